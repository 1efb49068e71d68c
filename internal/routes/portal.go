package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/web"
)

// RegisterPortalRoutes wires the server rendered pages. Device management is
// an operator view; the registration page is public.
func RegisterPortalRoutes(app *fiber.App, h *web.Handler, operatorAuth, rateLimiter fiber.Handler) {
	app.Get("/", h.RegistrationPage)
	app.Post("/", rateLimiter, h.SubmitRegistration)

	mgmt := app.Group("/device-management", operatorAuth)
	mgmt.Get("", h.DevicesPage)
	mgmt.Post("/devices", h.AddDevice)
	mgmt.Post("/devices/:deviceId/delete", h.DeleteDevice)
}
