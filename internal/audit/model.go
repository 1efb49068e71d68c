package audit

import "time"

// Outcome values recorded for a registration attempt.
const (
	OutcomeSuccess            = "success"
	OutcomeDeviceInvalid      = "device_invalid"
	OutcomeProvisioningFailed = "provisioning_failed"
)

// Attempt is one registration submission that reached the device backend.
// It never carries the password.
type Attempt struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	Username   string    `json:"username"`
	MACAddress string    `json:"macAddress"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
