package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/treningcentar/gymcore/internal/config"
	"github.com/treningcentar/gymcore/internal/handlers"
	"github.com/treningcentar/gymcore/internal/middleware"
	"github.com/treningcentar/gymcore/internal/repository"
	"github.com/treningcentar/gymcore/internal/services"
)

// RegisterRoutes wires repositories, services and handlers and mounts
// the API. It returns the session catalog so the caller can hand it to
// the scheduler sweep.
func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	log zerolog.Logger,
) *services.SessionCatalog {
	membershipRepo := repository.NewMembershipRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	cascade := repository.NewCascadeCanceller(db)

	gate := services.NewMembershipGate(membershipRepo)
	ledger := services.NewCheckinLedger(gate, checkinRepo, cfg.TimeZone)
	tracker := services.NewCapacityTracker(reservationRepo, log)
	catalog := services.NewSessionCatalog(sessionRepo, cascade, tracker, log)
	manager := services.NewReservationManager(gate, catalog, reservationRepo, tracker, log)

	membershipHandler := handlers.NewMembershipHandler(gate)
	checkinHandler := handlers.NewCheckinHandler(ledger)
	sessionHandler := handlers.NewSessionHandler(catalog)
	reservationHandler := handlers.NewReservationHandler(manager)

	api := app.Group("/api/v1", middleware.AuthRequired(cfg.JWTSecret))

	memberships := api.Group("/memberships")
	memberships.Get("/validate/:userId", membershipHandler.ValidateMembership)

	checkins := api.Group("/check-ins")
	checkins.Post("", checkinHandler.RecordCheckin)
	checkins.Get("/history", checkinHandler.GetHistory)
	checkins.Get("/can-checkin-today/:userId", checkinHandler.CanCheckinToday)

	sessions := api.Group("/sessions")
	sessions.Post("", sessionHandler.CreateSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Delete("/:id", sessionHandler.CancelSession)

	reservations := api.Group("/reservations")
	reservations.Post("", reservationHandler.Book)
	reservations.Delete("/:id", reservationHandler.Cancel)

	return catalog
}
