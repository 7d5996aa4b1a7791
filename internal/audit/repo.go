package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives decoded events.
type Sink interface {
	Record(ctx context.Context, evt Event) error
}

// Repository persists events in the certificate_events table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts evt, assigning an id and timestamp when missing.
func (r *Repository) Record(ctx context.Context, evt Event) error {
	if evt.Code == "" {
		return errors.New("event code required")
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO certificate_events (id, type, code, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, evt.ID, evt.Type, evt.Code, evt.At, evt.Detail)
	return err
}

// ListByCode returns the newest events for code first.
func (r *Repository) ListByCode(ctx context.Context, code string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, code, occurred_at, detail
		FROM certificate_events
		WHERE code = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.Type, &evt.Code, &evt.At, &evt.Detail); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// LogSink writes events to the log. Used when no database is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink on logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.With(zap.String("component", "audit"))}
}

// Record logs evt.
func (s *LogSink) Record(_ context.Context, evt Event) error {
	s.logger.Info("certificate event",
		zap.String("type", evt.Type),
		zap.String("code", evt.Code),
		zap.Time("at", evt.At),
		zap.String("detail", evt.Detail),
	)
	return nil
}
