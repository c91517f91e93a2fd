package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/liveflow/donor-service/internal/api/http/handlers"
	"github.com/liveflow/donor-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.BloodRequestsHandler
	Donations      *handlers.DonationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *auth.Policy
	AllowedOrigins []string
	// AllRequestsPublic serves GET /all-blood-req without a credential.
	AllRequestsPublic bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-Id",
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
	}))

	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/user", cfg.Users.Upsert)
	app.Get("/searchdata", cfg.Users.Search)
	app.Get("/pending-blood-req", cfg.Requests.Pending)
	app.Get("/req-details/:id", cfg.Requests.Details)
	app.Get("/funding", cfg.Donations.List)
	app.Post("/create-checkout-session", cfg.Donations.Checkout)
	app.Post("/payment-success", cfg.Donations.PaymentSuccess)

	authed := cfg.AuthMiddleware.Handle
	if cfg.AllRequestsPublic {
		app.Get("/all-blood-req", cfg.Requests.List)
	} else {
		app.Get("/all-blood-req", authed, cfg.Requests.List)
	}

	app.Get("/profile", authed, cfg.Users.Profile)
	app.Get("/user/role", authed, cfg.Users.Role)
	app.Get("/user/status", authed, cfg.Users.Status)
	app.Get("/all-users", authed, cfg.Users.List)
	app.Patch("/update-role", authed, cfg.Users.UpdateRole)
	app.Patch("/update-status", authed, cfg.Users.UpdateStatus)
	app.Patch("/profile-update", authed, cfg.Users.UpdateProfile)

	app.Post("/create-request", authed, cfg.Requests.Create)
	app.Get("/my-blood-req-latest/:email", authed, cfg.Requests.Latest)
	app.Get("/my-blood-req/:email", authed, cfg.Requests.Mine)
	app.Get("/deleted-blood-req", authed, cfg.Requests.Archived)
	app.Patch("/update-blood-status", authed, cfg.Requests.AssignDonor)
	app.Patch("/update-blood-status-done", authed, cfg.Requests.Complete)
	app.Patch("/edit-request", authed, cfg.Requests.Edit)
	app.Post("/delete-request", authed, cfg.Requests.Retire)

	app.Get("/admin-stats", authed, auth.RequireAction(cfg.Policy, auth.ActionViewStats), cfg.Donations.Stats)
}
