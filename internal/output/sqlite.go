package output

import (
	"database/sql"
	"fmt"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	_ "modernc.org/sqlite"
)

const transactionsSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_date TEXT NOT NULL,
	account_id       TEXT NOT NULL,
	description      TEXT NOT NULL,
	currency         TEXT NOT NULL,
	amount           REAL NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	subcategory      TEXT NOT NULL DEFAULT '',
	note             TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id);
`

// WriteSQLite writes the ledger into a sqlite database at path. The
// transactions table is created if missing and replaced wholesale, so
// repeated runs against the same file converge on the latest ledger.
func WriteSQLite(records []domain.Record, path string) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	}()

	if _, err := db.Exec(transactionsSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear previous ledger: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO transactions
		(transaction_date, account_id, description, currency, amount, category, subcategory, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.Exec(
			r.DateString(), r.AccountID, r.Description, r.Currency,
			r.Amount, r.Category, r.Subcategory, r.Note,
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	return nil
}
