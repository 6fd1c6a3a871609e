package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spiir-tools/beanimport/internal/domain"
	"github.com/spiir-tools/beanimport/internal/render"
)

// ImportResult summarizes one mirror run.
type ImportResult struct {
	BatchID      string
	Transactions int
	Accounts     int
}

// ImportLedger mirrors transactions and accounts into the database inside a
// single batch. Transactions are keyed on their spiir id with INSERT OR
// REPLACE, so importing the same exports again converges instead of
// duplicating. Synthesized entries without a spiir id (opening balances) are
// skipped; they are derived data and regenerate from the same inputs.
func (db *DB) ImportLedger(ctx context.Context, sourceDir string, txns []domain.Transaction, opens []domain.Open) (_ *ImportResult, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	batchID := uuid.NewString()
	stored := 0
	for i := range txns {
		txn := &txns[i]
		if txn.SourceID == "" {
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO transactions (
				spiir_id, batch_id, date, payee, narration, tags, counter_id, source_file, source_line
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, txn.SourceID, batchID, txn.Date.Format("2006-01-02"), txn.Payee, txn.Narration,
			strings.Join(txn.Tags(), ","), txn.Metadata("spiir-counter-id"),
			txn.SourceFile, txn.SourceLine)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction %s: %w", txn.SourceID, err)
		}

		for leg, p := range txn.Postings() {
			_, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO postings (spiir_id, leg, account, amount, currency)
				VALUES (?, ?, ?, ?, ?)
			`, txn.SourceID, leg, p.Account, render.Amount(p.Amount), p.Currency)
			if err != nil {
				return nil, fmt.Errorf("failed to insert posting %s/%d: %w", txn.SourceID, leg, err)
			}
		}
		stored++
	}

	for _, open := range opens {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO accounts (account, opened_on, currency)
			VALUES (?, ?, ?)
		`, open.Account, open.Date.Format("2006-01-02"), strings.Join(open.Currencies, ","))
		if err != nil {
			return nil, fmt.Errorf("failed to insert account %s: %w", open.Account, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_batches (id, imported_at, source_dir, transactions)
		VALUES (?, ?, ?, ?)
	`, batchID, time.Now().UTC().Format(time.RFC3339), sourceDir, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to record import batch: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return &ImportResult{
		BatchID:      batchID,
		Transactions: stored,
		Accounts:     len(opens),
	}, nil
}
