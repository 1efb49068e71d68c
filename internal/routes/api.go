package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/device"
	"github.com/devreg/portal/internal/registration"
)

// RegisterRegistrationRoutes wires the JSON registration API. idempotency may be nil.
func RegisterRegistrationRoutes(r fiber.Router, h *registration.Handler, operatorAuth, rateLimiter, idempotency fiber.Handler) {
	group := r.Group("/registrations")
	if idempotency != nil {
		group.Post("", rateLimiter, idempotency, h.Submit)
	} else {
		group.Post("", rateLimiter, h.Submit)
	}
	group.Get("", operatorAuth, h.Attempts)
}

// RegisterDeviceRoutes wires the operator device directory API.
func RegisterDeviceRoutes(r fiber.Router, h *device.Handler, operatorAuth fiber.Handler) {
	group := r.Group("/devices", operatorAuth)
	group.Get("", h.List)
	group.Post("", h.Register)
	group.Delete("/:deviceId", h.Remove)
}
