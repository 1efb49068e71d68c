package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/devreg/portal/internal/device"
	"github.com/devreg/portal/internal/registration"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	registerTemplate = page("register.html")
	devicesTemplate  = page("devices.html")
)

func page(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// registerView is the data behind the registration page.
type registerView struct {
	Title                  string
	MissingDeviceID        bool
	MissingDeviceIDMessage string
	DeviceID               string
	Draft                  registration.Draft
	Errors                 registration.FieldErrors
	Banner                 string
	InProgress             bool
	Success                bool
}

// devicesView is the data behind the device management page.
type devicesView struct {
	Title   string
	Devices []device.Device
	Form    deviceForm
	Error   string
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
