package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one append-only audit trail record.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Validate reports whether the record identifies what happened to what.
func (l AuditLog) Validate() error {
	if l.Action == "" || l.Entity == "" || l.EntityID == "" {
		return errors.New("audit: action, entity and entity id required")
	}
	return nil
}

// AuditLogger appends records to audit_log.
type AuditLogger struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool, now: time.Now}
}

// Record stores log. A zero At is stamped with the current time.
func (a *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if a == nil || a.pool == nil {
		return errors.New("audit: logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	if log.At.IsZero() {
		log.At = a.now()
	}
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		return fmt.Errorf("audit: encode meta: %w", err)
	}
	_, err = a.pool.Exec(ctx, `INSERT INTO audit_log (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6)`, log.ActorID, log.Action, log.Entity, log.EntityID, meta, log.At.UTC())
	if err != nil {
		return fmt.Errorf("audit: insert %s %s: %w", log.Entity, log.EntityID, err)
	}
	return nil
}
