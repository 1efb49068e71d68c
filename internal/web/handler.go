package web

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/devreg/portal/internal/device"
	"github.com/devreg/portal/internal/registration"
)

const (
	registrationTitle = "Device Registration"
	devicesTitle      = "Device Management"
)

// Handler serves the server rendered registration and device management pages.
type Handler struct {
	sessions  *registration.Sessions
	directory *device.Directory
	logger    *slog.Logger
}

// NewHandler builds the page handler.
func NewHandler(sessions *registration.Sessions, directory *device.Directory, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, directory: directory, logger: logger}
}

type deviceForm struct {
	Name   string `form:"name"`
	Type   string `form:"type"`
	Status string `form:"status"`
}

// RegistrationPage shows the form for the device in the deviceId query parameter.
// A link without that parameter renders a navigation prompt instead, and a
// device that already completed registration shows the success message.
func (h *Handler) RegistrationPage(c *fiber.Ctx) error {
	view, ok := registrationLink(c)
	if ok {
		if c.QueryBool("dismiss") {
			h.sessions.Dismiss(view.DeviceID)
		}
		_, view.Success = h.sessions.Completed(view.DeviceID)
	}
	return h.html(c, http.StatusOK, registerTemplate, view)
}

// SubmitRegistration runs the workflow for the posted form and re-renders the
// page with its outcome. The password is never echoed back.
func (h *Handler) SubmitRegistration(c *fiber.Ctx) error {
	view, ok := registrationLink(c)
	if !ok {
		return h.html(c, http.StatusBadRequest, registerTemplate, view)
	}

	var draft registration.Draft
	if err := c.BodyParser(&draft); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid form submission")
	}

	out := h.sessions.Submit(c.UserContext(), view.DeviceID, draft)

	view.Draft = draft
	view.Draft.Password = ""
	status := registration.StatusCode(out)
	switch out.Kind {
	case registration.KindNone:
		view.Success = out.State == registration.StateSuccess
		status = http.StatusOK
	case registration.KindAlreadyRegistered:
		view.Success = true
	case registration.KindValidation:
		view.Errors = out.FieldErrors
	case registration.KindInProgress:
		view.InProgress = true
	default:
		view.Banner = out.Message
	}
	return h.html(c, status, registerTemplate, view)
}

// DevicesPage lists the directory with the add form.
func (h *Handler) DevicesPage(c *fiber.Ctx) error {
	return h.html(c, http.StatusOK, devicesTemplate, devicesView{
		Title:   devicesTitle,
		Devices: h.directory.List(c.UserContext()),
	})
}

// AddDevice registers a device from the management form.
func (h *Handler) AddDevice(c *fiber.Ctx) error {
	var form deviceForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid form submission")
	}

	dev, err := h.directory.Register(c.UserContext(), device.RegisterInput{
		Name:   form.Name,
		Type:   form.Type,
		Status: device.Status(strings.ToLower(strings.TrimSpace(form.Status))),
	})
	if err != nil {
		return h.html(c, http.StatusUnprocessableEntity, devicesTemplate, devicesView{
			Title:   devicesTitle,
			Devices: h.directory.List(c.UserContext()),
			Form:    form,
			Error:   err.Error(),
		})
	}

	h.logger.Info("device registered", slog.String("device_id", dev.ID), slog.String("type", dev.Type))
	return c.Redirect("/device-management", http.StatusSeeOther)
}

// DeleteDevice removes a device and returns to the list.
func (h *Handler) DeleteDevice(c *fiber.Ctx) error {
	id := c.Params("deviceId")
	h.directory.Remove(c.UserContext(), id)
	h.logger.Info("device removed", slog.String("device_id", id))
	return c.Redirect("/device-management", http.StatusSeeOther)
}

// registrationLink reads the deviceId query parameter. ok is false when the
// link carries no device id, with view set to the matching prompt.
func registrationLink(c *fiber.Ctx) (registerView, bool) {
	view := registerView{Title: registrationTitle}
	view.DeviceID = strings.TrimSpace(c.Query("deviceId"))
	if view.DeviceID == "" {
		view.MissingDeviceID = true
		view.MissingDeviceIDMessage = registration.MissingDeviceIDMessage
		return view, false
	}
	return view, true
}

func (h *Handler) html(c *fiber.Ctx, status int, tmpl *template.Template, data any) error {
	body, err := render(tmpl, data)
	if err != nil {
		h.logger.Error("render page", slog.String("template", tmpl.Name()), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to render page")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}
