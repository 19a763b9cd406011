package postgres

import (
	"context"
	"database/sql"

	"eventregistration/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

func (r *auditRepository) AppendAudit(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, entry.Timestamp)
	return err
}

// Store combines the event, registration and audit repositories into a domain.EventStore.
type Store struct {
	*eventRepository
	*registrationRepository
	*auditRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		eventRepository:        &eventRepository{DB: db},
		registrationRepository: &registrationRepository{DB: db},
		auditRepository:        &auditRepository{DB: db},
	}
}

var _ domain.EventStore = (*Store)(nil)
