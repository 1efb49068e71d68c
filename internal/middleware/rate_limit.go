package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const defaultRegistrationsPerMin = 10

// RegistrationRateLimit caps registration submissions per client IP and device
// id in a fixed one minute window. Without Redis it is a no-op, and Redis
// errors fail open.
func RegistrationRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = defaultRegistrationsPerMin
	}
	return func(c *fiber.Ctx) error {
		if cache == nil || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		key := "rl:registration:" + c.IP() + ":" + submittedDeviceID(c)
		ctx := c.UserContext()
		// the window is created with its expiry, so a key can never outlive it
		var incr *redis.IntCmd
		_, err := cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, key, 0, time.Minute)
			incr = pipe.Incr(ctx, key)
			return nil
		})
		if err != nil {
			return c.Next()
		}
		if incr.Val() > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(fiber.StatusTooManyRequests, "too many registration attempts, try again later")
		}
		return c.Next()
	}
}

// submittedDeviceID reads the device id from the query string (portal form) or
// the JSON body (API).
func submittedDeviceID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Query("deviceId")); id != "" {
		return id
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req struct {
			DeviceID string `json:"deviceId"`
		}
		_ = c.BodyParser(&req)
		return strings.TrimSpace(req.DeviceID)
	}
	return ""
}
