package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry records one field change on a user-edited record: who
// changed what, from which value to which, and when.
type AuditEntry struct {
	ID       uuid.UUID
	Actor    string
	Entity   string
	EntityID string
	Field    string
	OldValue string
	NewValue string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes change records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the entry, assigning an ID and timestamp when absent.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Actor == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires actor/entity/entity_id")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, actor, entity, entity_id, field, old_value, new_value, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Actor, entry.Entity, entry.EntityID, entry.Field, entry.OldValue, entry.NewValue, metaJSON, entry.At)
	return err
}
