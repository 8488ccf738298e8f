package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/treningcentar/gymcore/internal/models"
)

// CascadeCanceller flips a session to canceled and cancels all of its
// active reservations in a single transaction, so that no reservation is
// left pointing at a canceled session.
type CascadeCanceller struct {
	db *pgxpool.Pool
}

func NewCascadeCanceller(db *pgxpool.Pool) *CascadeCanceller {
	return &CascadeCanceller{db: db}
}

// CancelSessionCascade returns the number of reservations it cancelled.
// pgx.ErrNoRows means the session was no longer upcoming.
func (c *CascadeCanceller) CancelSessionCascade(
	ctx context.Context,
	sessionID int64,
) (int64, error) {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := NewSessionRepository(tx)
	txReservations := NewReservationRepository(tx)

	if _, err := txSessions.UpdateStatusIfCurrent(
		ctx,
		sessionID,
		models.SessionUpcoming,
		models.SessionCanceled,
	); err != nil {
		return 0, err
	}

	cancelled, err := txReservations.CancelAllForSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return cancelled, nil
}
