package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Payment is one confirmed demo payment. Rows are written only after the
// transaction confirms, so the ledger never contains tentative entries.
type Payment struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Signature string    `json:"signature"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows GetPayments results. Zero values mean "no constraint".
type Filter struct {
	Kind     string
	Currency string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Validate rejects filter values that could never match.
func (f *Filter) Validate() error {
	if f.Currency != "" && f.Currency != "SOL" && f.Currency != "USDC" {
		return fmt.Errorf("currency must be SOL or USDC")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	return nil
}

// Store is the local payment ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database and runs migrations.
func Open(fileName string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+fileName+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS payments(
			id TEXT NOT NULL PRIMARY KEY,
			kind TEXT NOT NULL,
			signature TEXT NOT NULL,
			from_pubkey TEXT NOT NULL,
			to_pubkey TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			CHECK (
				kind <> '' AND
				signature <> '' AND
				currency <> ''
			)
		);
		CREATE INDEX IF NOT EXISTS payments_created_at ON payments(created_at);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to migrate history db: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SavePayment records one confirmed payment.
func (s *Store) SavePayment(p Payment) error {
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	_, err := s.db.Exec(
		"INSERT INTO payments (id, kind, signature, from_pubkey, to_pubkey, amount, currency, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Kind, p.Signature, p.From, p.To, p.Amount, p.Currency, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// GetPayments returns payments matching the filter, newest first.
func (s *Store) GetPayments(f Filter) ([]Payment, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := "SELECT id, kind, signature, from_pubkey, to_pubkey, amount, currency, created_at FROM payments WHERE 1=1"
	var args []any

	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, f.Kind)
	}
	if f.Currency != "" {
		query += " AND currency = ?"
		args = append(args, f.Currency)
	}
	if f.From != nil {
		query += " AND created_at >= ?"
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += " AND created_at <= ?"
		args = append(args, f.To.UTC())
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0, 8)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Kind, &p.Signature, &p.From, &p.To, &p.Amount, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
