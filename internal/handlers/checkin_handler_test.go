package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/services"
)

type stubCheckinLedger struct {
	recordResult *models.Checkin
	recordErr    error
	canResult    bool
	canErr       error
	history      []models.Checkin
	historyErr   error

	lastUserID    int64
	lastTimestamp time.Time
	lastLocation  string
	lastFrom      *time.Time
	lastTo        *time.Time
}

func (s *stubCheckinLedger) RecordCheckin(_ context.Context, userID int64, timestamp time.Time, location string) (*models.Checkin, error) {
	s.lastUserID = userID
	s.lastTimestamp = timestamp
	s.lastLocation = location
	return s.recordResult, s.recordErr
}

func (s *stubCheckinLedger) CanCheckinToday(_ context.Context, userID int64, _ time.Time) (bool, error) {
	s.lastUserID = userID
	return s.canResult, s.canErr
}

func (s *stubCheckinLedger) GetHistory(_ context.Context, userID int64, from, to *time.Time) ([]models.Checkin, error) {
	s.lastUserID = userID
	s.lastFrom = from
	s.lastTo = to
	return s.history, s.historyErr
}

func newCheckinApp(ledger *stubCheckinLedger) *fiber.App {
	handler := &CheckinHandler{ledger: ledger}
	app := fiber.New()
	app.Post("/api/v1/check-ins", handler.RecordCheckin)
	app.Get("/api/v1/check-ins/history", handler.GetHistory)
	app.Get("/api/v1/check-ins/can-checkin-today/:userId", handler.CanCheckinToday)
	return app
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error
}

func TestRecordCheckinReturnsConfirmation(t *testing.T) {
	ledger := &stubCheckinLedger{
		recordResult: &models.Checkin{ID: 1, UserID: 42, Location: "Main Entrance"},
	}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-ins", strings.NewReader(`{
		"user_id": 42,
		"timestamp": "2024-05-20T09:00:00Z",
		"location": "Main Entrance"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ledger.lastUserID != 42 {
		t.Fatalf("expected user id 42, got %d", ledger.lastUserID)
	}
	if !ledger.lastTimestamp.Equal(time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", ledger.lastTimestamp)
	}
	if ledger.lastLocation != "Main Entrance" {
		t.Fatalf("expected location to pass through, got %q", ledger.lastLocation)
	}

	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "Check-in recorded.") {
		t.Fatalf("expected confirmation text, got %s", raw)
	}
}

func TestRecordCheckinMembershipConflictMessage(t *testing.T) {
	ledger := &stubCheckinLedger{recordErr: services.ErrMembershipInactive}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-ins", strings.NewReader(`{"user_id": 42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if got := errorMessage(t, resp); got != "User does not have an active membership." {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestRecordCheckinDuplicateConflictMessage(t *testing.T) {
	ledger := &stubCheckinLedger{recordErr: services.ErrDuplicateCheckin}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-ins", strings.NewReader(`{"user_id": 42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if got := errorMessage(t, resp); got != "User has already checked in today." {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestRecordCheckinRejectsBadTimestamp(t *testing.T) {
	app := newCheckinApp(&stubCheckinLedger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-ins", strings.NewReader(`{
		"user_id": 42,
		"timestamp": "yesterday"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetHistoryReturnsEmptyListNotNotFound(t *testing.T) {
	ledger := &stubCheckinLedger{history: []models.Checkin{}}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check-ins/history?user_id=42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for empty history, got %d", resp.StatusCode)
	}

	var body struct {
		Checkins []models.Checkin `json:"checkins"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Checkins == nil || len(body.Checkins) != 0 {
		t.Fatalf("expected empty list, got %v", body.Checkins)
	}
}

func TestGetHistoryPassesRange(t *testing.T) {
	ledger := &stubCheckinLedger{history: []models.Checkin{}}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/check-ins/history?user_id=42&start_date=2024-05-01&end_date=2024-05-31",
		nil,
	)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ledger.lastFrom == nil || ledger.lastTo == nil {
		t.Fatalf("expected both range bounds to be forwarded")
	}
	if ledger.lastFrom.Format("2006-01-02") != "2024-05-01" {
		t.Fatalf("unexpected start %v", ledger.lastFrom)
	}
}

func TestCanCheckinTodayReturnsBareBoolean(t *testing.T) {
	ledger := &stubCheckinLedger{canResult: true}
	app := newCheckinApp(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check-ins/can-checkin-today/42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(raw)) != "true" {
		t.Fatalf("expected bare true, got %s", raw)
	}
}
