package device

import "time"

// Status is the operational state shown in the device list.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Device is an entry in the device directory.
type Device struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Status         Status    `json:"status"`
	LastRegistered time.Time `json:"lastRegistered"`
}

// RegisterInput captures the operator supplied fields of a new device.
type RegisterInput struct {
	Name   string
	Type   string
	Status Status
}
