package devicecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/config"
	"github.com/devreg/portal/internal/infra"
	"github.com/devreg/portal/internal/registration"
)

// Client asks the device backend whether a device identifier may be registered.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient builds a client from the upstream configuration.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// Validate fetches the backend verdict. It fails closed: transport errors,
// timeouts, non-2xx answers and unreadable bodies all yield an invalid result.
func (c *Client) Validate(ctx context.Context, deviceID string) registration.ValidationResult {
	result, err := c.fetch(ctx, deviceID)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("device validation failed", slog.String("device_id", deviceID), slog.Any("error", err))
		}
		return registration.ValidationResult{IsValid: false, Message: registration.ValidationFailedMessage}
	}
	return result
}

func (c *Client) fetch(ctx context.Context, deviceID string) (registration.ValidationResult, error) {
	timeout, err := infra.BoundedTimeout(ctx, c.timeout)
	if err != nil {
		return registration.ValidationResult{}, err
	}

	endpoint := fmt.Sprintf("%s/api/devices/validate/%s", c.baseURL, url.PathEscape(deviceID))
	agent := fiber.Get(endpoint).
		Timeout(timeout).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return registration.ValidationResult{}, fmt.Errorf("request %s: %w", endpoint, errs[0])
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return registration.ValidationResult{}, fmt.Errorf("unexpected status %d from %s", code, endpoint)
	}

	var result registration.ValidationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return registration.ValidationResult{}, fmt.Errorf("decode validation response: %w", err)
	}
	return result, nil
}
