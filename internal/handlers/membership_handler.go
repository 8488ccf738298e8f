package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/treningcentar/gymcore/internal/services"
)

type admissionService interface {
	CheckAdmission(ctx context.Context, userID int64, now time.Time) (services.Admission, error)
}

type MembershipHandler struct {
	gate admissionService
}

func NewMembershipHandler(gate *services.MembershipGate) *MembershipHandler {
	return &MembershipHandler{gate: gate}
}

// ValidateMembership reports whether the user would be admitted right now.
func (h *MembershipHandler) ValidateMembership(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	admission, err := h.gate.CheckAdmission(c.Context(), userID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to validate membership"})
	}

	return c.JSON(admission.Allowed)
}
