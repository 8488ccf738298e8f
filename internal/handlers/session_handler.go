package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/treningcentar/gymcore/internal/models"
	"github.com/treningcentar/gymcore/internal/repository"
	"github.com/treningcentar/gymcore/internal/services"
)

const msgCancellationWindow = "Cannot cancel session less than 24 hours before start time."

type sessionCatalogService interface {
	CreateSession(ctx context.Context, input services.CreateSessionInput) (*models.Session, error)
	GetSession(ctx context.Context, sessionID int64) (*models.Session, error)
	ListSessions(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	CancelSession(ctx context.Context, sessionID int64, now time.Time) error
}

type SessionHandler struct {
	catalog sessionCatalogService
}

func NewSessionHandler(catalog *services.SessionCatalog) *SessionHandler {
	return &SessionHandler{catalog: catalog}
}

type createSessionRequest struct {
	Name         string `json:"name"`
	TrainerID    int64  `json:"trainer_id"`
	TrainingType string `json:"training_type"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	Mode         string `json:"mode"`
	MaxCapacity  int    `json:"max_capacity"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	if !trainerOrAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at must be a valid RFC3339 timestamp"})
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must be a valid RFC3339 timestamp"})
	}

	session, err := h.catalog.CreateSession(c.Context(), services.CreateSessionInput{
		Name:         req.Name,
		TrainerID:    req.TrainerID,
		TrainingType: req.TrainingType,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Mode:         req.Mode,
		MaxCapacity:  req.MaxCapacity,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.catalog.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	status := strings.TrimSpace(c.Query("status"))
	if status != "" &&
		status != models.SessionUpcoming &&
		status != models.SessionFinished &&
		status != models.SessionCanceled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be upcoming, finished or canceled"})
	}

	var trainerID int64
	if raw := strings.TrimSpace(c.Query("trainer_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "trainer_id must be greater than 0"})
		}
		trainerID = parsed
	}

	sessions, err := h.catalog.ListSessions(c.Context(), repository.SessionListFilter{
		Status:    status,
		TrainerID: trainerID,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	if !trainerOrAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if err := h.catalog.CancelSession(c.Context(), sessionID, time.Now()); err != nil {
		return mapSessionError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func trainerOrAdmin(c *fiber.Ctx) bool {
	role, ok := c.Locals("role").(string)
	return ok && (role == "trainer" || role == "admin")
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrCancellationWindowExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgCancellationWindow})
	case errors.Is(err, services.ErrSessionNotCancellable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session is no longer upcoming"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
