package security

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityEventRepository persists security events to the security_events table.
type SecurityEventRepository struct {
	db *pgxpool.Pool
}

func NewSecurityEventRepository(db *pgxpool.Pool) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

func (r *SecurityEventRepository) PersistEvent(ctx context.Context, event SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			event_type, service, environment, level,
			subject_type, subject_value, ip_address, user_agent,
			request_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11)
	`

	var details interface{}
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("encode event details: %w", err)
		}
		details = string(raw)
	}

	_, err := r.db.Exec(ctx, query,
		string(event.Event),
		event.Service,
		event.Environment,
		event.Level,
		nullable(event.SubjectType),
		nullable(event.SubjectValue),
		nullable(event.IP),
		nullable(event.UserAgent),
		nullable(event.RequestID),
		details,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to persist security event: %w", err)
	}
	return nil
}

// PersistFunc adapts the repository for SecurityLogger.SetPersistFunc.
func (r *SecurityEventRepository) PersistFunc() PersistFunc {
	return r.PersistEvent
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
