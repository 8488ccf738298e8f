package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/repository"
	"github.com/treningcentar/gymcore/pkg/keylock"
)

type checkinStore interface {
	Create(ctx context.Context, input repository.CreateCheckinInput) (*models.Checkin, error)
	ExistsOnDay(ctx context.Context, userID int64, day time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64, from, to *time.Time) ([]models.Checkin, error)
}

type admissionChecker interface {
	CheckAdmission(ctx context.Context, userID int64, now time.Time) (Admission, error)
}

// CheckinLedger records gym check-ins and owns the one-check-in-per-user
//-per-day rule. The calendar day is computed in the configured reference
// zone, so day boundaries do not drift with client or server locales.
type CheckinLedger struct {
	gate     admissionChecker
	checkins checkinStore
	zone     *time.Location
	dayLocks *keylock.Map
}

func NewCheckinLedger(
	gate admissionChecker,
	checkins checkinStore,
	zone *time.Location,
) *CheckinLedger {
	return &CheckinLedger{
		gate:     gate,
		checkins: checkins,
		zone:     zone,
		dayLocks: keylock.New(),
	}
}

func (l *CheckinLedger) RecordCheckin(
	ctx context.Context,
	userID int64,
	timestamp time.Time,
	location string,
) (*models.Checkin, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	admission, err := l.gate.CheckAdmission(ctx, userID, timestamp)
	if err != nil {
		return nil, err
	}
	if !admission.Allowed {
		return nil, ErrMembershipInactive
	}

	day := l.dayOf(timestamp)

	// The duplicate check and the insert must act as one step for this
	// user and day; concurrent check-ins for other users are unaffected.
	key := checkinKey(userID, day)
	l.dayLocks.Lock(key)
	defer l.dayLocks.Unlock(key)

	exists, err := l.checkins.ExistsOnDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCheckin
	}

	return l.checkins.Create(ctx, repository.CreateCheckinInput{
		Reference:  uuid.New(),
		UserID:     userID,
		CheckinAt:  timestamp,
		CheckinDay: day,
		Location:   location,
	})
}

// CanCheckinToday reports whether the user has no check-in yet on the
// calendar day of now. Membership state is deliberately not consulted.
func (l *CheckinLedger) CanCheckinToday(
	ctx context.Context,
	userID int64,
	now time.Time,
) (bool, error) {
	exists, err := l.checkins.ExistsOnDay(ctx, userID, l.dayOf(now))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GetHistory returns the user's check-ins newest first, optionally
// bounded by an inclusive timestamp range.
func (l *CheckinLedger) GetHistory(
	ctx context.Context,
	userID int64,
	from *time.Time,
	to *time.Time,
) ([]models.Checkin, error) {
	return l.checkins.ListByUser(ctx, userID, from, to)
}

// dayOf truncates a timestamp to its calendar day in the reference zone.
// The result is a date-only value suitable for a DATE column.
func (l *CheckinLedger) dayOf(timestamp time.Time) time.Time {
	year, month, day := timestamp.In(l.zone).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func checkinKey(userID int64, day time.Time) string {
	return fmt.Sprintf("checkin:%d:%s", userID, day.Format("2006-01-02"))
}
