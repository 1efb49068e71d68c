package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindUserProvisioned is emitted after the identity provider accepted a new user.
	KindUserProvisioned = "user_provisioned"
	// KindRegistrationRejected is emitted when the device backend or the identity provider refused a registration.
	KindRegistrationRejected = "registration_rejected"
)

// Message describes a registration event.
type Message struct {
	Kind       string    `json:"kind"`
	DeviceID   string    `json:"deviceId"`
	Username   string    `json:"username"`
	MACAddress string    `json:"macAddress,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier delivers registration events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes events to the structured logger. It is the default
// when no broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("device_id", message.DeviceID),
		slog.String("username", message.Username),
		slog.String("reason", message.Reason),
	)
	return nil
}
