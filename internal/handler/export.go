package handler

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// ExportHandler streams transaction exports.
type ExportHandler struct {
	db *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{db: db}
}

var exportHeader = []string{"Date", "Account", "Category", "Description", "Amount", "Currency", "Type", "Source"}

// CSV exports the scope's transactions as a CSV download. Accepts the same
// start_date / end_date / account_id filters as the transaction list.
func (h *ExportHandler) CSV(c *gin.Context) {
	rows, err := h.load(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	// UTF-8 BOM so Excel opens the file correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	if err := w.Write(exportHeader); err != nil {
		return
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return
		}
	}
	w.Flush()
}

// XLSX exports the scope's transactions as an Excel workbook.
func (h *ExportHandler) XLSX(c *gin.Context) {
	rows, err := h.load(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName("Sheet1", sheet)
	for i, col := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
	}
	for r, row := range rows {
		for i, val := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		util.ProblemFromErr(c, err)
	}
}

// load fetches the filtered transactions and flattens them to export rows.
func (h *ExportHandler) load(c *gin.Context) ([][]string, error) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Transaction{}).
		Scopes(middleware.ScopedQuery(c)).
		Preload("Account").Preload("Category")

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		return nil, err
	}
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		return nil, err
	}
	if end != nil {
		q = q.Where("date < ?", end.AddDate(0, 0, 1))
	}
	if id := c.Query("account_id"); id != "" {
		q = q.Where("account_id = ?", id)
	}

	var txs []models.Transaction
	if err := q.Order("date, id").Find(&txs).Error; err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		txType := "income"
		if tx.Amount.IsNegative() {
			txType = "expense"
		}
		category := ""
		if tx.CategoryID != nil {
			category = tx.Category.Name
		}
		rows = append(rows, []string{
			tx.Date.Format(time.DateOnly),
			tx.Account.Name,
			category,
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.Currency,
			txType,
			tx.Source,
		})
	}
	return rows, nil
}
