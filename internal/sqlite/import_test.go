package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiir-tools/beanimport/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func testLedger(t *testing.T) ([]domain.Transaction, []domain.Open) {
	t.Helper()
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	txn, err := domain.NewTransaction(d, "Netto", "dagligvarer", []domain.Posting{
		{Account: "Assets:DanskeBank:Primary", Amount: decimal.RequireFromString("-10.00"), Currency: "DKK"},
		{Account: "Expenses:Food:Groceries", Amount: decimal.RequireFromString("10.00"), Currency: "DKK"},
	})
	require.NoError(t, err)
	txn.SourceID = "t-1"

	opens := []domain.Open{
		{Date: d, Account: "Assets:DanskeBank:Primary", Currencies: []string{"DKK"}},
		{Date: d, Account: "Expenses:Food:Groceries", Currencies: []string{"DKK"}},
	}
	return []domain.Transaction{*txn}, opens
}

func TestImportLedger(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	txns, opens := testLedger(t)

	result, err := db.ImportLedger(ctx, "/exports", txns, opens)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transactions)
	assert.Equal(t, 2, result.Accounts)
	assert.NotEmpty(t, result.BatchID)

	var count int
	require.NoError(t, db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM postings").Scan(&count))
	assert.Equal(t, 2, count)

	var amount string
	require.NoError(t, db.conn.QueryRowContext(ctx,
		"SELECT amount FROM postings WHERE spiir_id = 't-1' AND leg = 0").Scan(&amount))
	assert.Equal(t, "-10.00", amount)
}

// Importing the same export twice converges on one row per spiir id.
func TestImportLedger_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	txns, opens := testLedger(t)

	_, err := db.ImportLedger(ctx, "/exports", txns, opens)
	require.NoError(t, err)
	_, err = db.ImportLedger(ctx, "/exports", txns, opens)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM import_batches").Scan(&count))
	assert.Equal(t, 2, count, "each run records its own batch")
}

// Opening balances have no spiir id and are not mirrored.
func TestImportLedger_SkipsSynthesized(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	txns, opens := testLedger(t)
	txns[0].SourceID = ""

	result, err := db.ImportLedger(ctx, "/exports", txns, opens)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Transactions)
}
