package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Issues         *handlers.IssuesHandler
	Users          *handlers.UsersHandler
	Payments       *handlers.PaymentsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.Middleware
	Guard          *auth.Guard
}

// RegisterRoutes wires HTTP routes. Issue creation and upvoting accept
// anonymous callers; every other state-changing route requires a verified
// identity and the listed role.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	staffOrAdmin := cfg.Guard.RequireRole(domain.UserRoleStaff, domain.UserRoleAdmin)
	adminOnly := cfg.Guard.RequireRole(domain.UserRoleAdmin)

	issues := app.Group("/issues")
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Post("/", cfg.AuthMiddleware.HandleOptional, cfg.Issues.CreateIssue)
	issues.Post("/:id/upvote", cfg.AuthMiddleware.HandleOptional, cfg.Issues.Upvote)

	issues.Patch("/:id", cfg.AuthMiddleware.Handle, staffOrAdmin, cfg.Issues.UpdateIssue)
	issues.Patch("/:id/status", cfg.AuthMiddleware.Handle, staffOrAdmin, cfg.Issues.UpdateStatus)
	issues.Post("/:id/reject", cfg.AuthMiddleware.Handle, staffOrAdmin, cfg.Issues.RejectIssue)
	issues.Post("/:id/assign", cfg.AuthMiddleware.Handle, adminOnly, cfg.Issues.AssignStaff)
	issues.Post("/:id/boost", cfg.AuthMiddleware.Handle, adminOnly, cfg.Issues.BoostIssue)
	issues.Delete("/:id", cfg.AuthMiddleware.Handle, adminOnly, cfg.Issues.DeleteIssue)

	users := app.Group("/users")
	users.Get("/:email/role", cfg.Users.GetRole)
	users.Get("/", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.ListUsers)
	users.Get("/:email", cfg.AuthMiddleware.Handle, cfg.Guard.RequireRole(), cfg.Users.GetUser)
	users.Patch("/:email", cfg.AuthMiddleware.Handle, cfg.Guard.RequireRole(), cfg.Users.UpdateUser)
	users.Patch("/:email/role", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.ChangeRole)
	users.Patch("/:email/block", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.ToggleBlock)
	users.Post("/staff", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.RegisterStaff)

	payments := app.Group("/payments", cfg.AuthMiddleware.Handle, cfg.Guard.RequireRole())
	payments.Post("/checkout", cfg.Payments.CreateCheckout)
	payments.Post("/confirm", cfg.Payments.ConfirmPayment)
	payments.Get("/", cfg.Payments.ListMyPayments)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, adminOnly)
	staff.Post("/", cfg.Staff.CreateStaff)
	staff.Get("/", cfg.Staff.ListStaff)
	staff.Get("/:id", cfg.Staff.GetStaff)
	staff.Patch("/:id", cfg.Staff.UpdateStaff)
	staff.Delete("/:id", cfg.Staff.DeleteStaff)
}
