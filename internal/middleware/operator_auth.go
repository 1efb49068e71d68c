package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/devreg/portal/internal/config"
)

// OperatorAuth protects operator pages and APIs with HTTP basic auth checked
// against a bcrypt hash. An empty hash disables the check.
func OperatorAuth(cfg config.OperatorConfig) fiber.Handler {
	if cfg.PasswordHash == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	hash := []byte(cfg.PasswordHash)
	wantUser := []byte(cfg.Username)

	return basicauth.New(basicauth.Config{
		Realm: "device-management",
		Authorizer: func(user, pass string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
			passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
			return userOK && passOK
		},
	})
}
