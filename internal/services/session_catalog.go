package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/repository"
)

// CancellationLeadTime is how far before the start a session can still
// be cancelled by its trainer.
const CancellationLeadTime = 24 * time.Hour

type sessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	FinishDue(ctx context.Context, now time.Time) (int64, error)
}

type sessionCascadeCanceller interface {
	CancelSessionCascade(ctx context.Context, sessionID int64) (int64, error)
}

type seatInvalidator interface {
	Invalidate(sessionID int64)
}

// SessionCatalog holds session definitions and their lifecycle. Seats on
// a session are owned by the CapacityTracker; the catalog only tells it
// when cached state became stale.
type SessionCatalog struct {
	sessions sessionStore
	cascade  sessionCascadeCanceller
	seats    seatInvalidator
	log      zerolog.Logger
}

func NewSessionCatalog(
	sessions sessionStore,
	cascade sessionCascadeCanceller,
	seats seatInvalidator,
	log zerolog.Logger,
) *SessionCatalog {
	return &SessionCatalog{
		sessions: sessions,
		cascade:  cascade,
		seats:    seats,
		log:      log,
	}
}

type CreateSessionInput struct {
	Name         string
	TrainerID    int64
	TrainingType string
	StartsAt     time.Time
	EndsAt       time.Time
	Mode         string
	MaxCapacity  int
}

func (c *SessionCatalog) CreateSession(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	if strings.TrimSpace(input.Name) == "" || input.TrainerID <= 0 {
		return nil, ErrInvalidInput
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidInput
	}

	switch input.Mode {
	case models.SessionModePersonal:
		// A personal session has exactly one seat; an explicit capacity
		// other than 1 is a caller mistake, not something to coerce.
		if input.MaxCapacity != 0 && input.MaxCapacity != 1 {
			return nil, ErrInvalidInput
		}
		input.MaxCapacity = 1
	case models.SessionModeGroup:
		if input.MaxCapacity < 1 {
			return nil, ErrInvalidInput
		}
	default:
		return nil, ErrInvalidInput
	}

	return c.sessions.Create(ctx, repository.CreateSessionInput{
		Name:         strings.TrimSpace(input.Name),
		TrainerID:    input.TrainerID,
		TrainingType: input.TrainingType,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		Mode:         input.Mode,
		MaxCapacity:  input.MaxCapacity,
	})
}

func (c *SessionCatalog) GetSession(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	var session *models.Session

	operation := func() error {
		var err error
		session, err = c.sessions.GetByID(ctx, sessionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(retryPolicy(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (c *SessionCatalog) ListSessions(
	ctx context.Context,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	return c.sessions.List(ctx, filter)
}

// CancelSession cancels an upcoming session and cascades the
// cancellation to all of its active reservations. Allowed only while
// more than CancellationLeadTime remains before the start.
func (c *SessionCatalog) CancelSession(
	ctx context.Context,
	sessionID int64,
	now time.Time,
) error {
	session, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	switch session.Status {
	case models.SessionCanceled:
		return nil
	case models.SessionFinished:
		return ErrSessionNotCancellable
	}

	if session.StartsAt.Sub(now) <= CancellationLeadTime {
		return ErrCancellationWindowExpired
	}

	cancelled, err := c.cascade.CancelSessionCascade(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Status moved under us; the session is no longer upcoming.
			return ErrSessionNotCancellable
		}
		return err
	}

	c.seats.Invalidate(sessionID)

	c.log.Info().
		Int64("session_id", sessionID).
		Int64("reservations_cancelled", cancelled).
		Msg("session cancelled")

	return nil
}

// FinishDueSessions marks upcoming sessions whose end time has passed as
// finished. Invoked by the scheduler sweep.
func (c *SessionCatalog) FinishDueSessions(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	finished, err := c.sessions.FinishDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if finished > 0 {
		c.log.Info().Int64("sessions_finished", finished).Msg("finish sweep")
	}
	return finished, nil
}
