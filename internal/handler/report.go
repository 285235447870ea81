package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/apperr"
	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// ReportHandler serves aggregate spending reports.
type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{db: db}
}

type categoryBreakdown struct {
	CategoryID   *uint           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"` // positive magnitude
}

type dailyTotal struct {
	Date     string          `json:"date"` // YYYY-MM-DD
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type monthlyReport struct {
	Month       string              `json:"month"` // YYYY-MM
	Income      decimal.Decimal     `json:"income"`
	Expenses    decimal.Decimal     `json:"expenses"`
	Net         decimal.Decimal     `json:"net"`
	ByCategory  []categoryBreakdown `json:"byCategory"`
	ByDay       []dailyTotal        `json:"byDay"`
	Transaction int64               `json:"transactionCount"`
}

// Monthly aggregates one calendar month (?month=YYYY-MM, default current):
// income, expenses, net, and an expense breakdown by category.
func (h *ReportHandler) Monthly(c *gin.Context) {
	monthStr := c.DefaultQuery("month", time.Now().Format("2006-01"))
	month, err := time.Parse("2006-01", monthStr)
	if err != nil {
		util.ProblemFromErr(c, apperr.Validationf("invalid month %q (want YYYY-MM)", monthStr))
		return
	}
	start := month
	end := month.AddDate(0, 1, 0)

	var txs []models.Transaction
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		Where("date >= ? AND date < ?", start, end).
		Find(&txs).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	report := monthlyReport{
		Month:    monthStr,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
		Net:      decimal.Zero,
	}
	byCat := make(map[string]*categoryBreakdown)
	byDay := make(map[string]*dailyTotal)
	for i := range txs {
		tx := &txs[i]
		report.Transaction++
		report.Net = report.Net.Add(tx.Amount)

		day := tx.Date.Format(time.DateOnly)
		dt, ok := byDay[day]
		if !ok {
			dt = &dailyTotal{Date: day, Income: decimal.Zero, Expenses: decimal.Zero}
			byDay[day] = dt
		}

		if !tx.Amount.IsNegative() {
			report.Income = report.Income.Add(tx.Amount)
			dt.Income = dt.Income.Add(tx.Amount)
			continue
		}
		report.Expenses = report.Expenses.Add(tx.Amount.Abs())
		dt.Expenses = dt.Expenses.Add(tx.Amount.Abs())

		name, err := categoryName(h.db, c, tx.CategoryID)
		if err != nil {
			util.ProblemFromErr(c, err)
			return
		}
		entry, ok := byCat[name]
		if !ok {
			entry = &categoryBreakdown{CategoryID: tx.CategoryID, CategoryName: name, Total: decimal.Zero}
			byCat[name] = entry
		}
		entry.Total = entry.Total.Add(tx.Amount.Abs())
	}

	for _, entry := range byCat {
		report.ByCategory = append(report.ByCategory, *entry)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Total.GreaterThan(report.ByCategory[j].Total)
	})

	for _, dt := range byDay {
		report.ByDay = append(report.ByDay, *dt)
	}
	sort.Slice(report.ByDay, func(i, j int) bool {
		return report.ByDay[i].Date < report.ByDay[j].Date
	})

	c.JSON(http.StatusOK, report)
}

func categoryName(db *gorm.DB, c *gin.Context, id *uint) (string, error) {
	if id == nil {
		return "Uncategorized", nil
	}
	var cat models.Category
	if err := db.WithContext(c.Request.Context()).First(&cat, *id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "Uncategorized", nil
		}
		return "", err
	}
	return cat.Name, nil
}
