package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/config"
	"github.com/devreg/portal/internal/infra"
	"github.com/devreg/portal/internal/registration"
)

// Provisioning steps, reported in ProvisioningError.
const (
	StepToken      = "token"
	StepCreateUser = "create_user"
)

const idempotencyKeyHeader = "Idempotency-Key"

var errMissingToken = errors.New("token response carried no access_token")

// ProvisioningError keeps the failing step for logs while presenting the single
// user facing failure.
type ProvisioningError struct {
	Step   string
	Status int
	Err    error
}

func (e *ProvisioningError) Error() string {
	return registration.ProvisioningFailedMessage
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// Is makes every ProvisioningError match registration.ErrProvisioningFailed.
func (e *ProvisioningError) Is(target error) bool {
	return target == registration.ErrProvisioningFailed
}

// LogValue exposes the step detail to structured logs.
func (e *ProvisioningError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("step", e.Step),
		slog.Int("status", e.Status),
		slog.String("cause", fmt.Sprint(e.Err)),
	)
}

// Client creates users through the Keycloak admin REST API using a service
// account obtained with the client credentials grant.
type Client struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	timeout      time.Duration
}

// NewClient builds a client from the service credentials.
func NewClient(cfg config.KeycloakConfig, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		realm:        cfg.Realm,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      timeout,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// UserRepresentation is the create-user payload.
type UserRepresentation struct {
	Username    string              `json:"username"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Enabled     bool                `json:"enabled"`
	Credentials []credential        `json:"credentials"`
	Attributes  map[string][]string `json:"attributes"`
}

// NewUserRepresentation maps a registration to the Keycloak user payload.
func NewUserRepresentation(req registration.ProvisionRequest) UserRepresentation {
	return UserRepresentation{
		Username:  req.Draft.Username,
		FirstName: req.Draft.FirstName,
		LastName:  req.Draft.LastName,
		Enabled:   true,
		Credentials: []credential{{
			Type:      "password",
			Value:     req.Draft.Password,
			Temporary: false,
		}},
		Attributes: map[string][]string{
			"deviceId":   {req.DeviceID},
			"macAddress": {req.Draft.MACAddress},
		},
	}
}

// Provision acquires an admin token and creates the user. Both steps must
// succeed; the token is discarded afterwards either way.
func (c *Client) Provision(ctx context.Context, req registration.ProvisionRequest) (registration.ProvisionedUser, error) {
	token, err := c.token(ctx)
	if err != nil {
		return registration.ProvisionedUser{}, err
	}
	return c.createUser(ctx, token, req)
}

func (c *Client) token(ctx context.Context) (string, error) {
	timeout, err := infra.BoundedTimeout(ctx, c.timeout)
	if err != nil {
		return "", &ProvisioningError{Step: StepToken, Err: err}
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("grant_type", "client_credentials")
	args.Set("client_id", c.clientID)
	args.Set("client_secret", c.clientSecret)

	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.baseURL, c.realm)
	code, body, errs := fiber.Post(endpoint).
		Timeout(timeout).
		Form(args).
		Bytes()
	if len(errs) > 0 {
		return "", &ProvisioningError{Step: StepToken, Err: errs[0]}
	}
	if !success(code) {
		return "", &ProvisioningError{Step: StepToken, Status: code, Err: errors.New(http.StatusText(code))}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &ProvisioningError{Step: StepToken, Status: code, Err: err}
	}
	if tok.AccessToken == "" {
		return "", &ProvisioningError{Step: StepToken, Status: code, Err: errMissingToken}
	}
	return tok.AccessToken, nil
}

func (c *Client) createUser(ctx context.Context, token string, req registration.ProvisionRequest) (registration.ProvisionedUser, error) {
	timeout, err := infra.BoundedTimeout(ctx, c.timeout)
	if err != nil {
		return registration.ProvisionedUser{}, &ProvisioningError{Step: StepCreateUser, Err: err}
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	endpoint := fmt.Sprintf("%s/admin/realms/%s/users", c.baseURL, c.realm)
	agent := fiber.Post(endpoint).
		Timeout(timeout).
		Set(fiber.HeaderAuthorization, "Bearer "+token).
		JSON(NewUserRepresentation(req))
	if req.IdempotencyKey != "" {
		agent.Set(idempotencyKeyHeader, req.IdempotencyKey)
	}
	agent.SetResponse(resp)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return registration.ProvisionedUser{}, &ProvisioningError{Step: StepCreateUser, Err: errs[0]}
	}
	if !success(code) {
		return registration.ProvisionedUser{}, &ProvisioningError{Step: StepCreateUser, Status: code, Err: errors.New(providerMessage(body, code))}
	}

	return registration.ProvisionedUser{
		Username: req.Draft.Username,
		Location: string(resp.Header.Peek(fiber.HeaderLocation)),
	}, nil
}

func success(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// providerMessage extracts Keycloak's errorMessage when present.
func providerMessage(body []byte, code int) string {
	var payload struct {
		ErrorMessage string `json:"errorMessage"`
		Error        string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.ErrorMessage != "" {
			return payload.ErrorMessage
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(code)
}
