package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devreg/portal/internal/audit"
	"github.com/devreg/portal/internal/config"
	"github.com/devreg/portal/internal/device"
	"github.com/devreg/portal/internal/devicecheck"
	"github.com/devreg/portal/internal/keycloak"
	"github.com/devreg/portal/internal/middleware"
	"github.com/devreg/portal/internal/notification"
	"github.com/devreg/portal/internal/registration"
	"github.com/devreg/portal/internal/web"
)

const schemaTimeout = 5 * time.Second

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// MQTT are optional; in-process fallbacks are used when they are nil.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	MQTT   pahomqtt.Client
	Logger *slog.Logger

	// Validator and Provisioner override the HTTP clients built from Cfg.
	Validator   registration.DeviceValidator
	Provisioner registration.Provisioner
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !isDev(d.Cfg.AppEnv) && d.Cache == nil {
		d.Logger.Warn("redis not configured, submission lock is local to this instance", slog.String("app_env", d.Cfg.AppEnv))
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.AccessLog(d.Logger))

	RegisterHealthRoutes(app, d)

	attempts, err := auditRepository(d)
	if err != nil {
		return err
	}

	var guard registration.Guard
	if d.Cache != nil {
		guard = registration.NewRedisGuard(d.Cache, d.Cfg.SubmissionLockTTL)
	} else {
		guard = registration.NewMemoryGuard()
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.MQTT != nil {
		notifier = notification.NewMQTTNotifier(d.MQTT, d.Cfg.MQTT.Topic)
	}

	validator := d.Validator
	if validator == nil {
		validator = devicecheck.NewClient(d.Cfg.Upstream, d.Logger)
	}
	provisioner := d.Provisioner
	if provisioner == nil {
		provisioner = keycloak.NewClient(d.Cfg.Keycloak, d.Cfg.Upstream.RequestTimeout)
	}

	workflow := registration.NewWorkflow(validator, provisioner, guard, attempts, notifier, d.Logger)
	sessions := registration.NewSessions(workflow)
	directory := device.NewDirectory()

	operatorAuth := middleware.OperatorAuth(d.Cfg.Operator)
	rateLimiter := middleware.RegistrationRateLimit(d.Cache, d.Cfg.RegistrationPerMin)

	RegisterPortalRoutes(app, web.NewHandler(sessions, directory, d.Logger), operatorAuth, rateLimiter)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, middleware.IdempotencyConfig{TTL: d.Cfg.IdempotencyTTL}, d.Logger)
	}
	RegisterRegistrationRoutes(api, registration.NewHandler(sessions, attempts), operatorAuth, rateLimiter, idempotency)
	RegisterDeviceRoutes(api, device.NewHandler(directory), operatorAuth)

	d.Logger.Info("routes configured",
		slog.Bool("postgres_audit", d.DB != nil),
		slog.Bool("redis", d.Cache != nil),
		slog.Bool("mqtt_events", d.MQTT != nil),
	)
	return nil
}

func auditRepository(d Deps) (audit.Repository, error) {
	if d.DB == nil {
		return audit.NewMemoryRepository(), nil
	}
	repo := audit.NewPostgresRepository(d.DB)
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("prepare audit schema: %w", err)
	}
	return repo, nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
