package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/services"
)

type reservationManagerService interface {
	Book(ctx context.Context, userID, sessionID int64, now time.Time) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID int64) error
}

type ReservationHandler struct {
	manager reservationManagerService
}

func NewReservationHandler(manager *services.ReservationManager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

type bookReservationRequest struct {
	UserID    int64 `json:"user_id"`
	SessionID int64 `json:"session_id"`
}

func (h *ReservationHandler) Book(c *fiber.Ctx) error {
	var req bookReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.UserID <= 0 || req.SessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and session_id must be greater than 0"})
	}

	reservation, err := h.manager.Book(c.Context(), req.UserID, req.SessionID, time.Now())
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	reservationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || reservationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation id"})
	}

	if err := h.manager.Cancel(c.Context(), reservationID); err != nil {
		return mapReservationError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapReservationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrMembershipInactive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgNoActiveMembership})
	case errors.Is(err, services.ErrSessionNotBookable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session is not open for booking"})
	case errors.Is(err, services.ErrAlreadyBooked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already has an active reservation for this session"})
	case errors.Is(err, services.ErrSessionFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session is fully booked"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrReservationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reservation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process reservation request"})
	}
}
