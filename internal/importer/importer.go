// Package importer parses CSV bank statements and loads them into an
// account, flagging and skipping duplicates of already-known transactions.
//
// Expected format: a header row, then rows of
// date, description, amount, type, category (category optional).
// Row numbers in results are 2-based: the header counts as row 1.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/apperr"
	"homebudget/internal/models"
)

// Row is one parsed statement line.
type Row struct {
	RowNumber   int             `json:"rowNumber"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // sign normalized from Type
	Type        string          `json:"type"`   // income / expense
	Category    string          `json:"category,omitempty"`
	Duplicate   bool            `json:"duplicate"`
	Error       string          `json:"error,omitempty"`
}

// CommitRow is a caller-edited row sent back for final persistence.
type CommitRow struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Category    string `json:"category"`
	// ForceImport persists the row even when it is flagged as a duplicate.
	ForceImport bool `json:"forceImport"`
}

// PreviewResult is a parse without persistence.
type PreviewResult struct {
	Rows       []Row `json:"rows"`
	Total      int   `json:"total"`
	Duplicates int   `json:"duplicates"`
	Invalid    int   `json:"invalid"`
}

// ImportResult counts a persisting run.
type ImportResult struct {
	BatchID  string   `json:"batchId"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Target says which account and scope imported rows land in.
type Target struct {
	Account *models.Account
	Scope   models.Scope
	OwnerID *uint
}

// Service implements preview, import and commit over the database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Preview parses the statement and flags duplicates without writing anything.
func (s *Service) Preview(ctx context.Context, r io.Reader, target Target) (*PreviewResult, error) {
	rows, err := s.parse(ctx, r, target)
	if err != nil {
		return nil, err
	}
	res := &PreviewResult{Rows: rows, Total: len(rows)}
	for _, row := range rows {
		if row.Error != "" {
			res.Invalid++
		} else if row.Duplicate {
			res.Duplicates++
		}
	}
	return res, nil
}

// Import parses the statement and persists every valid, non-duplicate row.
func (s *Service) Import(ctx context.Context, r io.Reader, target Target) (*ImportResult, error) {
	rows, err := s.parse(ctx, r, target)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, rows, target, nil)
}

// Commit persists caller-supplied rows. Duplicate rows are skipped unless
// their force-import override is set.
func (s *Service) Commit(ctx context.Context, commitRows []CommitRow, target Target) (*ImportResult, error) {
	rows := make([]Row, 0, len(commitRows))
	force := make(map[int]bool, len(commitRows))
	seen := make(map[string]bool)
	for i, cr := range commitRows {
		rowNum := i + 2 // mirror file numbering: header would be row 1
		row := s.parseFields(ctx, rowNum, cr.Date, cr.Description, cr.Amount, cr.Type, cr.Category, target, seen)
		rows = append(rows, row)
		force[rowNum] = cr.ForceImport
	}
	return s.persist(ctx, rows, target, force)
}

func (s *Service) parse(ctx context.Context, r io.Reader, target Target) ([]Row, error) {
	csvr := csv.NewReader(r)
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	// header is row 1
	if _, err := csvr.Read(); err != nil {
		if err == io.EOF {
			return nil, apperr.Validationf("empty CSV file")
		}
		return nil, apperr.Validationf("read CSV header: %v", err)
	}

	var rows []Row
	seen := make(map[string]bool)
	rowNum := 1
	for {
		rowNum++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rows = append(rows, Row{RowNumber: rowNum, Error: fmt.Sprintf("malformed row: %v", err)})
			continue
		}
		if len(rec) < 4 {
			rows = append(rows, Row{RowNumber: rowNum, Error: "expected at least 4 columns (date, description, amount, type)"})
			continue
		}
		category := ""
		if len(rec) >= 5 {
			category = strings.TrimSpace(rec[4])
		}
		rows = append(rows, s.parseFields(ctx, rowNum, rec[0], rec[1], rec[2], rec[3], category, target, seen))
	}
	return rows, nil
}

func (s *Service) parseFields(ctx context.Context, rowNum int, dateStr, desc, amountStr, typeStr, category string, target Target, seen map[string]bool) Row {
	row := Row{RowNumber: rowNum, Description: strings.TrimSpace(desc), Category: category}

	date, err := parseDate(strings.TrimSpace(dateStr))
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Date = date

	typeStr = strings.ToLower(strings.TrimSpace(typeStr))
	if typeStr != "income" && typeStr != "expense" {
		row.Error = fmt.Sprintf("unknown type %q (want income or expense)", typeStr)
		return row
	}
	row.Type = typeStr

	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil {
		row.Error = fmt.Sprintf("invalid amount %q", amountStr)
		return row
	}
	// normalize sign from the declared type
	if typeStr == "expense" {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}
	row.Amount = amount

	if row.Description == "" {
		row.Error = "description must not be empty"
		return row
	}

	key := duplicateKey(date, row.Description, amount)
	if seen[key] {
		row.Duplicate = true
		return row
	}
	seen[key] = true

	dup, err := s.existingDuplicate(ctx, target.Account.ID, date, row.Description, amount)
	if err != nil {
		row.Error = fmt.Sprintf("duplicate check failed: %v", err)
		return row
	}
	row.Duplicate = dup
	return row
}

// existingDuplicate reports whether the account already holds a transaction
// with the same day, description and amount.
func (s *Service) existingDuplicate(ctx context.Context, accountID uint, date time.Time, desc string, amount decimal.Decimal) (bool, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? AND description = ? AND amount = ? AND date >= ? AND date < ?",
			accountID, desc, amount, dayStart, dayEnd).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) persist(ctx context.Context, rows []Row, target Target, force map[int]bool) (*ImportResult, error) {
	res := &ImportResult{BatchID: uuid.NewString()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if row.Error != "" {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", row.RowNumber, row.Error))
				continue
			}
			if row.Duplicate && !force[row.RowNumber] {
				res.Skipped++
				continue
			}

			t := models.Transaction{
				AccountID:     target.Account.ID,
				Description:   row.Description,
				Amount:        row.Amount,
				Currency:      target.Account.Currency,
				Date:          row.Date,
				Scope:         target.Scope,
				OwnerID:       target.OwnerID,
				Source:        models.SourceImport,
				ImportBatchID: &res.BatchID,
			}
			if row.Category != "" {
				catID, err := s.categoryID(tx, row.Category, row.Type, target)
				if err != nil {
					return err
				}
				t.CategoryID = catID
			}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("row %d: insert: %w", row.RowNumber, err)
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// categoryID finds or creates the named category.
func (s *Service) categoryID(tx *gorm.DB, name, txType string, target Target) (*uint, error) {
	var cat models.Category
	err := tx.Where("name = ? AND type = ?", name, txType).First(&cat).Error
	if err == gorm.ErrRecordNotFound {
		cat = models.Category{Name: name, Type: txType, Scope: target.Scope, OwnerID: target.OwnerID}
		err = tx.Create(&cat).Error
	}
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", name, err)
	}
	return &cat.ID, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}

func duplicateKey(date time.Time, desc string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s|%s|%s", date.Format(time.DateOnly), desc, amount.String())
}
