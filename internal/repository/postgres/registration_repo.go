package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistration/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

const registrationColumns = `id, event_id, user_id, user_email, status, sequence, version, created_at, updated_at`

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.UserEmail, &reg.Status,
		&reg.Sequence, &reg.Version, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) LoadRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

// SaveRegistration upserts the registration, ignoring versions that are not newer.
// It returns domain.ErrNotFound when the event row does not exist.
func (r *registrationRepository) SaveRegistration(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE registrations.version < EXCLUDED.version
	`
	_, err := r.DB.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.UserID, reg.UserEmail, string(reg.Status),
		reg.Sequence, reg.Version, reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		if errorCode(err) == codeForeignKeyViolation {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *registrationRepository) ListRegistrations(ctx context.Context, eventID string, status domain.RegistrationStatus) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND status = $2
		ORDER BY sequence
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) ListWaitlist(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	return r.ListRegistrations(ctx, eventID, domain.RegistrationStatusWaitlisted)
}

func (r *registrationRepository) MaxSequence(ctx context.Context, eventID string) (int64, error) {
	var seq int64
	query := `SELECT COALESCE(MAX(sequence), 0) FROM registrations WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
