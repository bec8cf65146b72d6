package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixkit/repair-service/internal/api/http/handlers"
	"github.com/fixkit/repair-service/internal/auth"
	"github.com/fixkit/repair-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Equipment      *handlers.EquipmentHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())

	authed.Post("/reports", cfg.Tickets.CreateReport)
	authed.Get("/users/technicians", auth.RequireStaff(), cfg.Users.ListTechnicians)

	tickets := authed.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Patch("/:id", auth.RequireStaff(), cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/transition", auth.RequireStaff(), cfg.Tickets.Transition)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Assign)
	tickets.Post("/:id/accept", auth.RequireRole(domain.RoleIT, domain.RoleAdmin), cfg.Tickets.Accept)
	tickets.Post("/:id/reject", auth.RequireRole(domain.RoleIT, domain.RoleAdmin), cfg.Tickets.Reject)

	equipment := authed.Group("/equipment", auth.RequireStaff())
	equipment.Post("", cfg.Equipment.CreateItem)
	equipment.Get("", cfg.Equipment.ListItems)
	equipment.Get("/:id", cfg.Equipment.GetItem)

	loans := authed.Group("/loans", auth.RequireStaff())
	loans.Post("", cfg.Equipment.Checkout)
	loans.Get("", cfg.Equipment.ListLoans)
	loans.Get("/:id", cfg.Equipment.GetLoan)
	loans.Post("/:id/return", cfg.Equipment.Return)
}
