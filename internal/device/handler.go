package device

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the directory over the JSON API.
type Handler struct {
	directory *Directory
}

// NewHandler builds a device HTTP handler.
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

type registerRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status Status `json:"status"`
}

// List returns all devices.
func (h *Handler) List(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"devices": h.directory.List(c.UserContext())})
}

// Register adds a device.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	dev, err := h.directory.Register(c.UserContext(), RegisterInput{Name: req.Name, Type: req.Type, Status: req.Status})
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrTypeRequired), errors.Is(err, ErrInvalidStatus):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(dev)
}

// Remove deletes a device; unknown ids still answer 204.
func (h *Handler) Remove(c *fiber.Ctx) error {
	h.directory.Remove(c.UserContext(), c.Params("deviceId"))
	return c.SendStatus(http.StatusNoContent)
}
