package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/treningcentar/gymcore/internal/models"
)

type CreateCheckinInput struct {
	Reference  uuid.UUID
	UserID     int64
	CheckinAt  time.Time
	CheckinDay time.Time
	Location   string
}

type CheckinRepository struct {
	db DBTX
}

func NewCheckinRepository(db DBTX) *CheckinRepository {
	return &CheckinRepository{db: db}
}

func (r *CheckinRepository) Create(
	ctx context.Context,
	input CreateCheckinInput,
) (*models.Checkin, error) {
	query := `
		INSERT INTO checkins (reference, user_id, checkin_at, checkin_day, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reference, user_id, checkin_at, location, created_at
	`
	var checkin models.Checkin
	err := r.db.QueryRow(
		ctx,
		query,
		input.Reference,
		input.UserID,
		input.CheckinAt,
		input.CheckinDay,
		input.Location,
	).Scan(
		&checkin.ID,
		&checkin.Reference,
		&checkin.UserID,
		&checkin.CheckinAt,
		&checkin.Location,
		&checkin.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

func (r *CheckinRepository) ExistsOnDay(
	ctx context.Context,
	userID int64,
	day time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM checkins
			WHERE user_id = $1 AND checkin_day = $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, day).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CheckinRepository) ListByUser(
	ctx context.Context,
	userID int64,
	from *time.Time,
	to *time.Time,
) ([]models.Checkin, error) {
	args := []any{userID}
	query := `
		SELECT id, reference, user_id, checkin_at, location, created_at
		FROM checkins
		WHERE user_id = $1
	`
	if from != nil {
		args = append(args, *from)
		query += ` AND checkin_at >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND checkin_at <= $3`
		} else {
			query += ` AND checkin_at <= $2`
		}
	}
	query += ` ORDER BY checkin_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkins := make([]models.Checkin, 0)
	for rows.Next() {
		var checkin models.Checkin
		if err := rows.Scan(
			&checkin.ID,
			&checkin.Reference,
			&checkin.UserID,
			&checkin.CheckinAt,
			&checkin.Location,
			&checkin.CreatedAt,
		); err != nil {
			return nil, err
		}
		checkins = append(checkins, checkin)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return checkins, nil
}
