package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexdesk/case-service/internal/api/http/handlers"
	"github.com/lexdesk/case-service/internal/auth"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Cases          *handlers.CasesHandler
	StaffCases     *handlers.StaffCasesHandler
	Reassignment   *handlers.ReassignmentHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/students/register", cfg.Auth.RegisterStudent)
	authGroup.Post("/students/login", cfg.Auth.LoginStudent)
	authGroup.Post("/staff/login", cfg.Auth.LoginStaff)

	cases := app.Group("/cases", cfg.AuthMiddleware.Handle, auth.RequireStudent())
	cases.Post("", cfg.Cases.CreateCase)
	cases.Get("", cfg.Cases.ListCases)
	cases.Get("/:id", cfg.Cases.GetCase)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	admin := auth.RequireStaffRole(domain.StaffRoleAdmin)

	staff.Get("/cases", cfg.StaffCases.ListStaffCases)
	staff.Patch("/cases/:id/status", cfg.StaffCases.AdvanceStatus)
	staff.Get("/cases/:id/history", cfg.StaffCases.History)

	staff.Post("/reassignments", cfg.Reassignment.Reassign)
	staff.Post("/vacation-scan", admin, cfg.Reassignment.RunScan)
	staff.Get("/vacation-scan/last", admin, cfg.Reassignment.LastScan)

	staff.Post("/members", admin, cfg.Staff.CreateStaffMember)
	staff.Get("/members", admin, cfg.Staff.ListStaffMembers)
	staff.Get("/members/:id", cfg.Staff.GetStaffMember)
	staff.Patch("/members/:id", admin, cfg.Staff.UpdateStaffMember)
	staff.Put("/members/:id/leave", cfg.Staff.SetLeave)
	staff.Delete("/members/:id/leave", cfg.Staff.ClearLeave)
}
