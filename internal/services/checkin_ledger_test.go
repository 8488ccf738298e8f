package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/repository"
)

type allowAllGate struct{}

func (allowAllGate) CheckAdmission(_ context.Context, _ int64, _ time.Time) (Admission, error) {
	return Admission{Allowed: true}, nil
}

type denyGate struct {
	reason DenialReason
}

func (g denyGate) CheckAdmission(_ context.Context, _ int64, _ time.Time) (Admission, error) {
	return Admission{Reason: g.reason}, nil
}

// memCheckinStore mimics the checkins table, including the per-(user,day)
// uniqueness the real schema enforces with an index.
type memCheckinStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    []models.Checkin
	days    map[string]bool
	created int
}

func newMemCheckinStore() *memCheckinStore {
	return &memCheckinStore{days: make(map[string]bool)}
}

func (s *memCheckinStore) Create(_ context.Context, input repository.CreateCheckinInput) (*models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%d:%s", input.UserID, input.CheckinDay.Format("2006-01-02"))
	if s.days[key] {
		return nil, errors.New("unique constraint violation")
	}
	s.days[key] = true

	s.nextID++
	s.created++
	checkin := models.Checkin{
		ID:        s.nextID,
		Reference: input.Reference,
		UserID:    input.UserID,
		CheckinAt: input.CheckinAt,
		Location:  input.Location,
		CreatedAt: input.CheckinAt,
	}
	s.rows = append(s.rows, checkin)
	return &checkin, nil
}

func (s *memCheckinStore) ExistsOnDay(_ context.Context, userID int64, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d:%s", userID, day.Format("2006-01-02"))
	return s.days[key], nil
}

func (s *memCheckinStore) ListByUser(_ context.Context, userID int64, from, to *time.Time) ([]models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	checkins := make([]models.Checkin, 0)
	for i := len(s.rows) - 1; i >= 0; i-- {
		row := s.rows[i]
		if row.UserID != userID {
			continue
		}
		if from != nil && row.CheckinAt.Before(*from) {
			continue
		}
		if to != nil && row.CheckinAt.After(*to) {
			continue
		}
		checkins = append(checkins, row)
	}
	return checkins, nil
}

func TestRecordCheckinRejectsInactiveMembership(t *testing.T) {
	store := newMemCheckinStore()
	ledger := NewCheckinLedger(denyGate{reason: ReasonNotActiveStatus}, store, time.UTC)

	_, err := ledger.RecordCheckin(context.Background(), 42, time.Now(), "Main Entrance")
	if !errors.Is(err, ErrMembershipInactive) {
		t.Fatalf("expected ErrMembershipInactive, got %v", err)
	}
	if store.created != 0 {
		t.Fatalf("expected no rows written on denial, got %d", store.created)
	}
}

func TestRecordCheckinOncePerDay(t *testing.T) {
	store := newMemCheckinStore()
	ledger := NewCheckinLedger(allowAllGate{}, store, time.UTC)

	morning := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	checkin, err := ledger.RecordCheckin(context.Background(), 42, morning, "Main Entrance")
	if err != nil {
		t.Fatalf("expected first check-in to succeed, got %v", err)
	}
	if checkin.Location != "Main Entrance" {
		t.Fatalf("expected location to be stored, got %q", checkin.Location)
	}

	evening := time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC)
	if _, err := ledger.RecordCheckin(context.Background(), 42, evening, "Side Entrance"); !errors.Is(err, ErrDuplicateCheckin) {
		t.Fatalf("expected ErrDuplicateCheckin for same-day retry, got %v", err)
	}

	nextDay := time.Date(2024, 5, 21, 0, 1, 0, 0, time.UTC)
	if _, err := ledger.RecordCheckin(context.Background(), 42, nextDay, "Main Entrance"); err != nil {
		t.Fatalf("expected next-day check-in to succeed, got %v", err)
	}
}

func TestRecordCheckinDoesNotBlockOtherUsers(t *testing.T) {
	store := newMemCheckinStore()
	ledger := NewCheckinLedger(allowAllGate{}, store, time.UTC)

	ts := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	for userID := int64(1); userID <= 5; userID++ {
		if _, err := ledger.RecordCheckin(context.Background(), userID, ts, "Main Entrance"); err != nil {
			t.Fatalf("user %d: expected success, got %v", userID, err)
		}
	}
}

func TestConcurrentCheckinsExactlyOneSucceeds(t *testing.T) {
	store := newMemCheckinStore()
	ledger := NewCheckinLedger(allowAllGate{}, store, time.UTC)

	ts := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	const attempts = 50

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordCheckin(context.Background(), 42, ts, "Main Entrance")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateCheckin):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successes)
	}
	if duplicates != attempts-1 {
		t.Fatalf("expected %d duplicates, got %d", attempts-1, duplicates)
	}
	if store.created != 1 {
		t.Fatalf("expected 1 row written, got %d", store.created)
	}
}

func TestDayBoundaryUsesReferenceZone(t *testing.T) {
	belgrade, err := time.LoadLocation("Europe/Belgrade")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	store := newMemCheckinStore()
	ledger := NewCheckinLedger(allowAllGate{}, store, belgrade)

	// 23:30 UTC is already the next day in Belgrade (UTC+1 in winter), so
	// a second check-in half an hour later in UTC is still the same
	// Belgrade day and must be rejected.
	first := time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC)
	if _, err := ledger.RecordCheckin(context.Background(), 42, first, "Main Entrance"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	second := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if _, err := ledger.RecordCheckin(context.Background(), 42, second, "Main Entrance"); !errors.Is(err, ErrDuplicateCheckin) {
		t.Fatalf("expected ErrDuplicateCheckin across the UTC midnight, got %v", err)
	}
}

func TestCanCheckinTodayIgnoresMembership(t *testing.T) {
	store := newMemCheckinStore()
	// A denying gate must not matter: the question is about the day slot.
	ledger := NewCheckinLedger(denyGate{reason: ReasonNoMembership}, store, time.UTC)

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	ok, err := ledger.CanCheckinToday(context.Background(), 42, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ok {
		t.Fatalf("expected true with no check-in yet")
	}

	allowed := NewCheckinLedger(allowAllGate{}, store, time.UTC)
	if _, err := allowed.RecordCheckin(context.Background(), 42, now, "Main Entrance"); err != nil {
		t.Fatalf("expected check-in to succeed, got %v", err)
	}

	ok, err = ledger.CanCheckinToday(context.Background(), 42, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("expected false after today's check-in")
	}
}

func TestGetHistoryIsNewestFirst(t *testing.T) {
	store := newMemCheckinStore()
	ledger := NewCheckinLedger(allowAllGate{}, store, time.UTC)

	for day := 1; day <= 3; day++ {
		ts := time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC)
		if _, err := ledger.RecordCheckin(context.Background(), 42, ts, "Main Entrance"); err != nil {
			t.Fatalf("day %d: expected success, got %v", day, err)
		}
	}

	history, err := ledger.GetHistory(context.Background(), 42, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CheckinAt.After(history[i-1].CheckinAt) {
			t.Fatalf("expected descending order, got %v before %v", history[i-1].CheckinAt, history[i].CheckinAt)
		}
	}

	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	ranged, err := ledger.GetHistory(context.Background(), 42, &from, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("expected 2 entries from %v, got %d", from, len(ranged))
	}
}
