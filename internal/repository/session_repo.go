package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/treningcentar/gymcore/internal/models"
)

type CreateSessionInput struct {
	Name         string
	TrainerID    int64
	TrainingType string
	StartsAt     time.Time
	EndsAt       time.Time
	Mode         string
	MaxCapacity  int
}

type SessionListFilter struct {
	Status    string
	TrainerID int64
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := `
		INSERT INTO sessions (name, trainer_id, training_type, starts_at, ends_at, mode, max_capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'upcoming')
		RETURNING id, name, trainer_id, training_type, starts_at, ends_at, mode, max_capacity, status, created_at, updated_at
	`
	var session models.Session
	err := r.db.QueryRow(
		ctx,
		query,
		input.Name,
		input.TrainerID,
		input.TrainingType,
		input.StartsAt,
		input.EndsAt,
		input.Mode,
		input.MaxCapacity,
	).Scan(
		&session.ID,
		&session.Name,
		&session.TrainerID,
		&session.TrainingType,
		&session.StartsAt,
		&session.EndsAt,
		&session.Mode,
		&session.MaxCapacity,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `
		SELECT id, name, trainer_id, training_type, starts_at, ends_at, mode, max_capacity, status, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var session models.Session
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.Name,
		&session.TrainerID,
		&session.TrainingType,
		&session.StartsAt,
		&session.EndsAt,
		&session.Mode,
		&session.MaxCapacity,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.TrainerID > 0 {
		args = append(args, filter.TrainerID)
		whereParts = append(whereParts, fmt.Sprintf("trainer_id = $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, name, trainer_id, training_type, starts_at, ends_at, mode, max_capacity, status, created_at, updated_at
		FROM sessions
		%s
		ORDER BY starts_at ASC, id ASC
	`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.Name,
			&session.TrainerID,
			&session.TrainingType,
			&session.StartsAt,
			&session.EndsAt,
			&session.Mode,
			&session.MaxCapacity,
			&session.Status,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING id, name, trainer_id, training_type, starts_at, ends_at, mode, max_capacity, status, created_at, updated_at
	`
	var session models.Session
	err := r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus).Scan(
		&session.ID,
		&session.Name,
		&session.TrainerID,
		&session.TrainingType,
		&session.StartsAt,
		&session.EndsAt,
		&session.Mode,
		&session.MaxCapacity,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishDue marks upcoming sessions whose end time has passed as finished.
// Used by the scheduler sweep, not by request handlers.
func (r *SessionRepository) FinishDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET status = 'finished', updated_at = NOW()
		WHERE status = 'upcoming' AND ends_at <= $1
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
