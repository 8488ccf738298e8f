package repository

import (
	"context"

	"github.com/treningcentar/gymcore/internal/models"
)

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(
	ctx context.Context,
	userID int64,
	sessionID int64,
) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (user_id, session_id, status)
		VALUES ($1, $2, 'active')
		RETURNING id, user_id, session_id, status, created_at, updated_at
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, userID, sessionID).Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.SessionID,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepository) GetByID(
	ctx context.Context,
	reservationID int64,
) (*models.Reservation, error) {
	query := `
		SELECT id, user_id, session_id, status, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, reservationID).Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.SessionID,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepository) HasActive(
	ctx context.Context,
	userID int64,
	sessionID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM reservations
			WHERE user_id = $1 AND session_id = $2 AND status = 'active'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, sessionID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReservationRepository) CountActiveBySession(
	ctx context.Context,
	sessionID int64,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE session_id = $1 AND status = 'active'
	`
	var count int
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CancelIfActive flips an active reservation to cancelled. Returns
// pgx.ErrNoRows when the reservation is not currently active, which
// callers use to keep cancellation idempotent.
func (r *ReservationRepository) CancelIfActive(
	ctx context.Context,
	reservationID int64,
) (*models.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING id, user_id, session_id, status, created_at, updated_at
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, reservationID).Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.SessionID,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelAllForSession cancels every active reservation on a session.
// Runs inside the session-cancellation transaction.
func (r *ReservationRepository) CancelAllForSession(
	ctx context.Context,
	sessionID int64,
) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', updated_at = NOW()
		WHERE session_id = $1 AND status = 'active'
	`
	tag, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
