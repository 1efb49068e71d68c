package registration

import "errors"

var (
	// ErrValidation marks a draft rejected by the field rules. It is recoverable
	// by editing the form.
	ErrValidation = errors.New("registration draft is invalid")

	// ErrDeviceInvalid means the device backend declined the device identifier.
	ErrDeviceInvalid = errors.New("device is not eligible for registration")

	// ErrProvisioningFailed is the only error the identity provider client surfaces.
	// Step level detail stays behind it for logging.
	ErrProvisioningFailed = errors.New("failed to register user")

	// ErrMissingDeviceID is returned when a submission carries no device identifier.
	ErrMissingDeviceID = errors.New("no device ID provided")

	// ErrSubmissionInProgress rejects a second submit while one is still running.
	ErrSubmissionInProgress = errors.New("registration already in progress")

	// ErrAlreadyRegistered rejects a submit on a session that already succeeded.
	ErrAlreadyRegistered = errors.New("registration already completed")
)

const (
	// DefaultInvalidDeviceMessage is shown when the backend rejects a device without a reason.
	DefaultInvalidDeviceMessage = "Invalid device ID"
	// ProvisioningFailedMessage is the banner text for any identity provider failure.
	ProvisioningFailedMessage = "Failed to register user"
	// MissingDeviceIDMessage is the navigation prompt when the link carries no device ID.
	MissingDeviceIDMessage = "No device ID provided. Please use a valid registration link."
	// AlreadyRegisteredMessage answers a resubmit after a successful registration.
	AlreadyRegisteredMessage = "This device has already been registered"
	// UnavailableMessage is shown when the submission lock cannot be checked.
	UnavailableMessage = "Registration is temporarily unavailable"
	// ValidationFailedMessage is what a device check reports when the backend could not be reached.
	ValidationFailedMessage = "Failed to validate device"
)
