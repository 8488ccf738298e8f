package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/treningcentar/gymcore/pkg/keylock"
)

type seatCounter interface {
	CountActiveBySession(ctx context.Context, sessionID int64) (int, error)
}

type seatState struct {
	capacity int
	reserved int
}

// CapacityTracker is the single owner of per-session seat counts. The
// count is seeded from the set of active reservations on first touch and
// kept in memory afterward. Seat grants for one session serialize on
// that session's lock; other sessions proceed independently.
type CapacityTracker struct {
	counts seatCounter
	locks  *keylock.Map
	log    zerolog.Logger

	mu    sync.Mutex
	seats map[int64]*seatState
}

func NewCapacityTracker(counts seatCounter, log zerolog.Logger) *CapacityTracker {
	return &CapacityTracker{
		counts: counts,
		locks:  keylock.New(),
		log:    log,
		seats:  make(map[int64]*seatState),
	}
}

// TryReserveSeat grants one seat when the session still has room. The
// check and the increment happen under the session's lock, which is what
// prevents overbooking under concurrent calls.
func (t *CapacityTracker) TryReserveSeat(
	ctx context.Context,
	sessionID int64,
	capacity int,
) (bool, error) {
	key := seatKey(sessionID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	state, err := t.load(ctx, sessionID, capacity)
	if err != nil {
		return false, err
	}
	state.capacity = capacity

	if state.reserved >= state.capacity {
		return false, nil
	}
	state.reserved++
	return true, nil
}

// ReleaseSeat returns one seat to the session. Releasing below zero is a
// caller bug; the count stays floored at zero and the event is logged.
func (t *CapacityTracker) ReleaseSeat(sessionID int64) {
	key := seatKey(sessionID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	t.mu.Lock()
	state, ok := t.seats[sessionID]
	t.mu.Unlock()
	if !ok {
		// Nothing cached: the next TryReserveSeat re-derives the count
		// from storage, which already reflects the cancellation.
		return
	}

	if state.reserved == 0 {
		t.log.Warn().
			Int64("session_id", sessionID).
			Msg("seat released without a matching reservation")
		return
	}
	state.reserved--
}

// Invalidate drops the cached state for a session. Called after a
// cascade cancellation rewrites the session's reservations in storage.
func (t *CapacityTracker) Invalidate(sessionID int64) {
	key := seatKey(sessionID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	t.mu.Lock()
	delete(t.seats, sessionID)
	t.mu.Unlock()
}

// load returns the cached state for a session, seeding it from the
// active-reservation count on first use. Callers must hold the
// session's lock.
func (t *CapacityTracker) load(
	ctx context.Context,
	sessionID int64,
	capacity int,
) (*seatState, error) {
	t.mu.Lock()
	state, ok := t.seats[sessionID]
	t.mu.Unlock()
	if ok {
		return state, nil
	}

	reserved, err := t.counts.CountActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state = &seatState{capacity: capacity, reserved: reserved}
	t.mu.Lock()
	t.seats[sessionID] = state
	t.mu.Unlock()
	return state, nil
}

func seatKey(sessionID int64) string {
	return "seats:" + strconv.FormatInt(sessionID, 10)
}
