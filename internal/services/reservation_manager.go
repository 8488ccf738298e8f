package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/treningcentar/gymcore/internal/models"
)

const uniqueViolationCode = "23505"

type reservationStore interface {
	Create(ctx context.Context, userID, sessionID int64) (*models.Reservation, error)
	GetByID(ctx context.Context, reservationID int64) (*models.Reservation, error)
	HasActive(ctx context.Context, userID, sessionID int64) (bool, error)
	CancelIfActive(ctx context.Context, reservationID int64) (*models.Reservation, error)
}

type sessionGetter interface {
	GetSession(ctx context.Context, sessionID int64) (*models.Session, error)
}

type seatTracker interface {
	TryReserveSeat(ctx context.Context, sessionID int64, capacity int) (bool, error)
	ReleaseSeat(sessionID int64)
}

// ReservationManager books seats on sessions and cancels reservations.
// It never touches seat counts directly; every grant and release goes
// through the CapacityTracker.
type ReservationManager struct {
	gate         admissionChecker
	catalog      sessionGetter
	reservations reservationStore
	seats        seatTracker
	log          zerolog.Logger
}

func NewReservationManager(
	gate admissionChecker,
	catalog sessionGetter,
	reservations reservationStore,
	seats seatTracker,
	log zerolog.Logger,
) *ReservationManager {
	return &ReservationManager{
		gate:         gate,
		catalog:      catalog,
		reservations: reservations,
		seats:        seats,
		log:          log,
	}
}

func (m *ReservationManager) Book(
	ctx context.Context,
	userID int64,
	sessionID int64,
	now time.Time,
) (*models.Reservation, error) {
	if userID <= 0 || sessionID <= 0 {
		return nil, ErrInvalidInput
	}

	admission, err := m.gate.CheckAdmission(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !admission.Allowed {
		return nil, ErrMembershipInactive
	}

	session, err := m.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionUpcoming || !now.Before(session.StartsAt) {
		return nil, ErrSessionNotBookable
	}

	booked, err := m.reservations.HasActive(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, ErrAlreadyBooked
	}

	granted, err := m.seats.TryReserveSeat(ctx, sessionID, session.Capacity())
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, ErrSessionFull
	}

	reservation, err := m.reservations.Create(ctx, userID, sessionID)
	if err != nil {
		// The seat was granted but the row never made it to storage.
		// Hand the seat back before surfacing the failure, otherwise it
		// leaks until the session's state is invalidated.
		m.seats.ReleaseSeat(sessionID)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrAlreadyBooked
		}
		m.log.Error().Err(err).
			Int64("user_id", userID).
			Int64("session_id", sessionID).
			Msg("reservation write failed after seat grant")
		return nil, err
	}

	return reservation, nil
}

// Cancel releases the reservation's seat. Cancelling a reservation that
// is already cancelled is a no-op success; the seat is only released
// when this call actually performed the transition.
func (m *ReservationManager) Cancel(
	ctx context.Context,
	reservationID int64,
) error {
	if _, err := m.reservations.GetByID(ctx, reservationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReservationNotFound
		}
		return err
	}

	updated, err := m.reservations.CancelIfActive(ctx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	m.seats.ReleaseSeat(updated.SessionID)
	return nil
}
