package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homebudget/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Account{}, &models.Category{}, &models.Transaction{},
	))
	return db
}

func testTarget(t *testing.T, db *gorm.DB) Target {
	t.Helper()
	acct := models.Account{Name: "Joint Checking", Type: "checking", Currency: "USD", Scope: models.ScopeShared}
	require.NoError(t, db.Create(&acct).Error)
	return Target{Account: &acct, Scope: models.ScopeShared}
}

const statement = `date,description,amount,type,category
2026-08-01,COFFEE CO,4.50,expense,Dining
2026-08-02,ACME PAYROLL,2500.00,income,Salary
2026-08-03,GROCERY MART,82.10,expense,
`

func TestPreviewParsesAndNumbersRows(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	res, err := svc.Preview(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 0, res.Duplicates)
	require.Equal(t, 0, res.Invalid)

	// header is row 1, first data row is row 2
	require.Equal(t, 2, res.Rows[0].RowNumber)
	require.Equal(t, 4, res.Rows[2].RowNumber)

	// expense sign normalized negative, income positive
	require.Equal(t, "-4.50", res.Rows[0].Amount.StringFixed(2))
	require.Equal(t, "2500.00", res.Rows[1].Amount.StringFixed(2))

	// nothing persisted
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPreviewFlagsBadRows(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	bad := "date,description,amount,type\n" +
		"not-a-date,X,1.00,expense\n" +
		"2026-08-01,X,oops,expense\n" +
		"2026-08-01,X,1.00,sideways\n" +
		"2026-08-01,X\n"

	res, err := svc.Preview(context.Background(), strings.NewReader(bad), target)
	require.NoError(t, err)
	require.Equal(t, 4, res.Invalid)
	for i, row := range res.Rows {
		require.NotEmpty(t, row.Error, "row %d", i)
		require.Equal(t, i+2, row.RowNumber)
	}
}

func TestPreviewEmptyFile(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	_, err := svc.Preview(context.Background(), strings.NewReader(""), target)
	require.Error(t, err)
}

func TestImportSkipsDuplicates(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	res, err := svc.Import(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
	require.Equal(t, 0, res.Skipped)
	require.Empty(t, res.Errors)
	require.NotEmpty(t, res.BatchID)

	// importing the same statement again skips every row
	res, err = svc.Import(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)
	require.Equal(t, 0, res.Imported)
	require.Equal(t, 3, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestImportCreatesCategories(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	_, err := svc.Import(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)

	var cats []models.Category
	require.NoError(t, db.Order("name").Find(&cats).Error)
	require.Len(t, cats, 2)
	require.Equal(t, "Dining", cats[0].Name)
	require.Equal(t, "expense", cats[0].Type)
	require.Equal(t, "Salary", cats[1].Name)
}

func TestImportFlagsInFileDuplicates(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	doubled := "date,description,amount,type\n" +
		"2026-08-01,COFFEE CO,4.50,expense\n" +
		"2026-08-01,COFFEE CO,4.50,expense\n"

	res, err := svc.Import(context.Background(), strings.NewReader(doubled), target)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 1, res.Skipped)
}

func TestCommitHonorsForceImport(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	_, err := svc.Import(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)

	// first row is a known duplicate, second a duplicate forced through,
	// third is fresh
	rows := []CommitRow{
		{Date: "2026-08-01", Description: "COFFEE CO", Amount: "4.50", Type: "expense"},
		{Date: "2026-08-02", Description: "ACME PAYROLL", Amount: "2500.00", Type: "income", ForceImport: true},
		{Date: "2026-08-05", Description: "NEW THING", Amount: "10.00", Type: "expense"},
	}

	res, err := svc.Commit(context.Background(), rows, target)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 1, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("description = ?", "ACME PAYROLL").Count(&count).Error)
	require.EqualValues(t, 2, count, "forced duplicate should create a second row")
}

func TestImportStampsBatchAndSource(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	target := testTarget(t, db)

	res, err := svc.Import(context.Background(), strings.NewReader(statement), target)
	require.NoError(t, err)

	var tx models.Transaction
	require.NoError(t, db.Where("description = ?", "COFFEE CO").First(&tx).Error)
	require.Equal(t, models.SourceImport, tx.Source)
	require.NotNil(t, tx.ImportBatchID)
	require.Equal(t, res.BatchID, *tx.ImportBatchID)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("-4.5")))
}
