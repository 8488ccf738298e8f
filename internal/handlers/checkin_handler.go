package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/services"
)

// The two conflict messages are part of the external contract; existing
// clients match on them verbatim.
const (
	msgNoActiveMembership = "User does not have an active membership."
	msgAlreadyCheckedIn   = "User has already checked in today."
)

type checkinLedgerService interface {
	RecordCheckin(ctx context.Context, userID int64, timestamp time.Time, location string) (*models.Checkin, error)
	CanCheckinToday(ctx context.Context, userID int64, now time.Time) (bool, error)
	GetHistory(ctx context.Context, userID int64, from, to *time.Time) ([]models.Checkin, error)
}

type CheckinHandler struct {
	ledger checkinLedgerService
}

func NewCheckinHandler(ledger *services.CheckinLedger) *CheckinHandler {
	return &CheckinHandler{ledger: ledger}
}

type recordCheckinRequest struct {
	UserID    int64  `json:"user_id"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
}

func (h *CheckinHandler) RecordCheckin(c *fiber.Ctx) error {
	var req recordCheckinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.UserID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be greater than 0"})
	}

	timestamp := time.Now()
	if trimmed := strings.TrimSpace(req.Timestamp); trimmed != "" {
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timestamp must be a valid RFC3339 timestamp"})
		}
		timestamp = parsed
	}

	checkin, err := h.ledger.RecordCheckin(c.Context(), req.UserID, timestamp, strings.TrimSpace(req.Location))
	if err != nil {
		return mapCheckinError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Check-in recorded.",
		"checkin": checkin,
	})
}

func (h *CheckinHandler) GetHistory(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(c.Query("user_id")), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be greater than 0"})
	}

	from, err := parseOptionalTime(c.Query("start_date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be a valid RFC3339 timestamp or date"})
	}
	to, err := parseOptionalTime(c.Query("end_date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be a valid RFC3339 timestamp or date"})
	}

	checkins, err := h.ledger.GetHistory(c.Context(), userID, from, to)
	if err != nil {
		return mapCheckinError(c, err)
	}

	return c.JSON(fiber.Map{"checkins": checkins})
}

func (h *CheckinHandler) CanCheckinToday(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	ok, err := h.ledger.CanCheckinToday(c.Context(), userID, time.Now())
	if err != nil {
		return mapCheckinError(c, err)
	}

	return c.JSON(ok)
}

func parseOptionalTime(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func mapCheckinError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrMembershipInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msgNoActiveMembership})
	case errors.Is(err, services.ErrDuplicateCheckin):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msgAlreadyCheckedIn})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process check-in request"})
	}
}
