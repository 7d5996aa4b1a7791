package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists records in the certificates table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on an open pgx-backed sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create upserts rec. A colliding code overwrites the previous record and
// clears its verification state.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (code, name, email, phone, college, generated_date, verified, verified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			college = EXCLUDED.college,
			generated_date = EXCLUDED.generated_date,
			verified = EXCLUDED.verified,
			verified_date = EXCLUDED.verified_date
	`, rec.Code, rec.Name, rec.Email, rec.Phone, rec.College, rec.GeneratedDate, rec.Verified, rec.VerifiedDate)
	if err != nil {
		return fmt.Errorf("failed to save certificate %s: %w", rec.Code, err)
	}
	return nil
}

// Get returns the record for code.
func (s *PostgresStore) Get(ctx context.Context, code string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, name, email, phone, college, generated_date, verified, verified_date
		FROM certificates WHERE code = $1
	`, code)
	var (
		rec          Record
		verifiedDate sql.NullTime
	)
	err := row.Scan(&rec.Code, &rec.Name, &rec.Email, &rec.Phone, &rec.College, &rec.GeneratedDate, &rec.Verified, &verifiedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get certificate %s: %w", code, err)
	}
	if verifiedDate.Valid {
		t := verifiedDate.Time
		rec.VerifiedDate = &t
	}
	return rec, nil
}

// MarkVerified sets the verification fields.
func (s *PostgresStore) MarkVerified(ctx context.Context, code string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE certificates SET verified = TRUE, verified_date = $2 WHERE code = $1
	`, code, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark certificate %s verified: %w", code, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
