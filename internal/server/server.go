package server

import (
	"context"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devreg/portal/internal/config"
	"github.com/devreg/portal/internal/middleware"
	"github.com/devreg/portal/internal/routes"
)

// Backends are the optional shared connections. Nil fields select in-process
// fallbacks.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	MQTT  pahomqtt.Client
}

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, backends Backends, logger *slog.Logger) (*Server, error) {
	// upstream calls are bounded by RequestTimeout, twice over in the worst case
	handlerBudget := 2*cfg.Upstream.RequestTimeout + 10*time.Second

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		// form and query strings outlive the request
		Immutable:             true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          handlerBudget,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	deps := routes.Deps{
		Cfg:    cfg,
		DB:     backends.DB,
		Cache:  backends.Cache,
		MQTT:   backends.MQTT,
		Logger: logger,
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
