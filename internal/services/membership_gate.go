package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/treningcentar/gymcore/internal/models"
)

type DenialReason string

const (
	ReasonNoMembership          DenialReason = "NoMembership"
	ReasonNotActiveStatus       DenialReason = "NotActiveStatus"
	ReasonOutsideValidityWindow DenialReason = "OutsideValidityWindow"
)

// Admission is the gate's verdict on a check-in or booking attempt.
type Admission struct {
	Allowed bool
	Reason  DenialReason
}

type membershipReader interface {
	GetCurrentByUserID(ctx context.Context, userID int64) (*models.Membership, error)
}

// MembershipGate answers whether a user may perform a gated action right
// now. It only reads membership state and is safe for concurrent use.
type MembershipGate struct {
	memberships membershipReader
}

func NewMembershipGate(memberships membershipReader) *MembershipGate {
	return &MembershipGate{memberships: memberships}
}

func (g *MembershipGate) CheckAdmission(
	ctx context.Context,
	userID int64,
	now time.Time,
) (Admission, error) {
	membership, err := g.lookupMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admission{Reason: ReasonNoMembership}, nil
		}
		return Admission{}, err
	}

	if membership.Status != models.MembershipActive {
		return Admission{Reason: ReasonNotActiveStatus}, nil
	}

	// Validity window is half-open: the end date itself is already outside.
	if now.Before(membership.StartDate) || !now.Before(membership.EndDate) {
		return Admission{Reason: ReasonOutsideValidityWindow}, nil
	}

	return Admission{Allowed: true}, nil
}

// lookupMembership retries the read once on transient storage errors. A
// missing row is final and must not be retried.
func (g *MembershipGate) lookupMembership(
	ctx context.Context,
	userID int64,
) (*models.Membership, error) {
	var membership *models.Membership

	operation := func() error {
		var err error
		membership, err = g.memberships.GetCurrentByUserID(ctx, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(retryPolicy(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return membership, nil
}

func retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return backoff.WithMaxRetries(b, 1)
}
