package device

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNameRequired is returned when a device is registered without a name.
	ErrNameRequired = errors.New("device name is required")
	// ErrTypeRequired is returned when a device is registered without a type.
	ErrTypeRequired = errors.New("device type is required")
	// ErrInvalidStatus is returned for statuses other than active or inactive.
	ErrInvalidStatus = errors.New("status must be active or inactive")
)

// Directory is the in-memory set of devices shown on the management view.
// Entries live as long as the process and are listed in insertion order.
type Directory struct {
	mu      sync.RWMutex
	devices []Device
	now     func() time.Time
	newID   func() string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Register stamps the device with a fresh id and the current time and appends it.
func (d *Directory) Register(_ context.Context, input RegisterInput) (Device, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Device{}, ErrNameRequired
	}
	kind := strings.TrimSpace(input.Type)
	if kind == "" {
		return Device{}, ErrTypeRequired
	}
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return Device{}, ErrInvalidStatus
	}

	dev := Device{
		ID:             d.newID(),
		Name:           name,
		Type:           kind,
		Status:         status,
		LastRegistered: d.now(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.devices = append(d.devices, dev)
	return dev, nil
}

// Remove deletes the device with the given id. Unknown ids are ignored.
func (d *Directory) Remove(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, dev := range d.devices {
		if dev.ID == id {
			d.devices = append(d.devices[:i], d.devices[i+1:]...)
			return
		}
	}
}

// List returns a snapshot of the devices in insertion order.
func (d *Directory) List(_ context.Context) []Device {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Device, len(d.devices))
	copy(out, d.devices)
	return out
}
