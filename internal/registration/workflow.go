package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devreg/portal/internal/audit"
	"github.com/devreg/portal/internal/notification"
)

// State is the position of a submission in the registration state machine.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Kind classifies why a submission did not succeed.
type Kind string

const (
	KindNone              Kind = ""
	KindValidation        Kind = "validation"
	KindMissingDeviceID   Kind = "missing_device_id"
	KindDeviceInvalid     Kind = "device_invalid"
	KindProvisioning      Kind = "provisioning_failed"
	KindInProgress        Kind = "in_progress"
	KindUnavailable       Kind = "unavailable"
	KindAlreadyRegistered Kind = "already_registered"
)

// ValidationResult is the device backend's verdict on a device identifier.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

// ProvisionRequest is everything the identity provider needs to create the user.
type ProvisionRequest struct {
	Draft          Draft
	DeviceID       string
	IdempotencyKey string
}

// ProvisionedUser acknowledges a created user.
type ProvisionedUser struct {
	Username string `json:"username"`
	Location string `json:"location,omitempty"`
}

// DeviceValidator checks device eligibility. Implementations fail closed and never
// return an error: any uncertainty is reported as an invalid device.
type DeviceValidator interface {
	Validate(ctx context.Context, deviceID string) ValidationResult
}

// Provisioner creates the user at the identity provider. Errors must satisfy
// errors.Is(err, ErrProvisioningFailed).
type Provisioner interface {
	Provision(ctx context.Context, req ProvisionRequest) (ProvisionedUser, error)
}

// Outcome is the result of one submission.
type Outcome struct {
	State       State
	Kind        Kind
	Message     string
	FieldErrors FieldErrors
	User        ProvisionedUser
	Err         error
}

// Workflow runs a registration: field rules, device check, then user creation.
type Workflow struct {
	validator   DeviceValidator
	provisioner Provisioner
	guard       Guard
	attempts    audit.Repository
	notifier    notification.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

// NewWorkflow wires the workflow. guard, attempts and notifier may be nil.
func NewWorkflow(validator DeviceValidator, provisioner Provisioner, guard Guard, attempts audit.Repository, notifier notification.Notifier, logger *slog.Logger) *Workflow {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Workflow{
		validator:   validator,
		provisioner: provisioner,
		guard:       guard,
		attempts:    attempts,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit moves a draft from Editing through Submitting to Success or Failed.
// Invalid drafts stay in Editing and never touch the network. The identity
// provider is only called after the device backend declared the device valid
// within this same submission.
func (w *Workflow) Submit(ctx context.Context, deviceID string, draft Draft) Outcome {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return Outcome{State: StateEditing, Kind: KindMissingDeviceID, Message: MissingDeviceIDMessage, Err: ErrMissingDeviceID}
	}

	if fieldErrs := draft.Validate(); len(fieldErrs) > 0 {
		return Outcome{State: StateEditing, Kind: KindValidation, FieldErrors: fieldErrs, Err: ErrValidation}
	}
	draft = draft.Normalized()

	release, err := w.guard.Acquire(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrSubmissionInProgress) {
			return Outcome{State: StateSubmitting, Kind: KindInProgress, Message: "Registration is already being processed", Err: err}
		}
		w.logger.Error("submission guard failed", slog.String("device_id", deviceID), slog.Any("error", err))
		return Outcome{State: StateFailed, Kind: KindUnavailable, Message: UnavailableMessage, Err: err}
	}
	defer release()

	w.logger.Info("registration submitted", slog.String("device_id", deviceID), slog.Any("draft", draft.Redacted()))

	result := w.validator.Validate(ctx, deviceID)
	if !result.IsValid {
		msg := result.Message
		if msg == "" {
			msg = DefaultInvalidDeviceMessage
		}
		w.logger.Warn("device rejected", slog.String("device_id", deviceID), slog.String("message", msg))
		w.record(ctx, deviceID, draft, audit.OutcomeDeviceInvalid, msg)
		w.notify(ctx, notification.KindRegistrationRejected, deviceID, draft, msg)
		return Outcome{State: StateFailed, Kind: KindDeviceInvalid, Message: msg, Err: fmt.Errorf("%w: %s", ErrDeviceInvalid, msg)}
	}

	user, err := w.provisioner.Provision(ctx, ProvisionRequest{Draft: draft, DeviceID: deviceID, IdempotencyKey: uuid.NewString()})
	if err != nil {
		if !errors.Is(err, ErrProvisioningFailed) {
			err = fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
		}
		w.logger.Error("user provisioning failed", slog.String("device_id", deviceID), slog.String("username", draft.Username), slog.Any("error", err))
		w.record(ctx, deviceID, draft, audit.OutcomeProvisioningFailed, ProvisioningFailedMessage)
		w.notify(ctx, notification.KindRegistrationRejected, deviceID, draft, ProvisioningFailedMessage)
		return Outcome{State: StateFailed, Kind: KindProvisioning, Message: ProvisioningFailedMessage, Err: err}
	}

	w.logger.Info("user provisioned", slog.String("device_id", deviceID), slog.String("username", draft.Username))
	w.record(ctx, deviceID, draft, audit.OutcomeSuccess, "")
	w.notify(ctx, notification.KindUserProvisioned, deviceID, draft, "")
	return Outcome{State: StateSuccess, User: user}
}

func (w *Workflow) record(ctx context.Context, deviceID string, draft Draft, outcome, message string) {
	if w.attempts == nil {
		return
	}
	err := w.attempts.Record(ctx, audit.Attempt{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		Username:   draft.Username,
		MACAddress: draft.MACAddress,
		Outcome:    outcome,
		Message:    message,
		CreatedAt:  w.now(),
	})
	if err != nil {
		w.logger.Warn("record registration attempt", slog.String("device_id", deviceID), slog.Any("error", err))
	}
}

func (w *Workflow) notify(ctx context.Context, kind, deviceID string, draft Draft, reason string) {
	if w.notifier == nil {
		return
	}
	err := w.notifier.Send(ctx, notification.Message{
		Kind:       kind,
		DeviceID:   deviceID,
		Username:   draft.Username,
		MACAddress: draft.MACAddress,
		Reason:     reason,
		OccurredAt: w.now(),
	})
	if err != nil {
		w.logger.Warn("send registration event", slog.String("kind", kind), slog.Any("error", err))
	}
}
