package registration

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/audit"
)

const defaultAttemptsLimit = 50

// Handler exposes the registration workflow over the JSON API.
type Handler struct {
	sessions *Sessions
	attempts audit.Repository
}

// NewHandler constructs a registration HTTP handler.
func NewHandler(sessions *Sessions, attempts audit.Repository) *Handler {
	return &Handler{sessions: sessions, attempts: attempts}
}

type submitRequest struct {
	DeviceID string `json:"deviceId"`
	Draft
}

type outcomeResponse struct {
	State       State       `json:"state"`
	Kind        Kind        `json:"kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	FieldErrors FieldErrors `json:"fieldErrors,omitempty"`
	Username    string      `json:"username,omitempty"`
	Location    string      `json:"location,omitempty"`
}

// Submit runs one registration for the device in the request body.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	out := h.sessions.Submit(c.UserContext(), req.DeviceID, req.Draft)
	return c.Status(StatusCode(out)).JSON(outcomeResponse{
		State:       out.State,
		Kind:        out.Kind,
		Message:     out.Message,
		FieldErrors: out.FieldErrors,
		Username:    out.User.Username,
		Location:    out.User.Location,
	})
}

// Attempts lists recent registration attempts, newest first.
func (h *Handler) Attempts(c *fiber.Ctx) error {
	limit := defaultAttemptsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fiber.NewError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	attempts, err := h.attempts.Recent(c.UserContext(), limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if attempts == nil {
		attempts = []audit.Attempt{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"attempts": attempts})
}

// StatusCode maps an outcome to the HTTP status used by the API.
func StatusCode(out Outcome) int {
	if out.Kind == KindAlreadyRegistered {
		return http.StatusConflict
	}
	if out.State == StateSuccess {
		return http.StatusCreated
	}
	switch out.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindMissingDeviceID:
		return http.StatusBadRequest
	case KindDeviceInvalid:
		return http.StatusForbidden
	case KindProvisioning:
		return http.StatusBadGateway
	case KindInProgress:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
