package speaker

import "errors"

// Common errors for the speaker session.
var (
	// ErrDeviceRequired is returned when an operation needs a connected
	// device and none is present.
	ErrDeviceRequired = errors.New("no speaker connected")

	// ErrEmptyPhrase is returned when a phrase addition has a blank english
	// or vietnamese side after trimming.
	ErrEmptyPhrase = errors.New("phrase and translation must not be empty")

	// ErrEmptyQuery is returned when a device lookup gets a blank query.
	ErrEmptyQuery = errors.New("device query must not be empty")

	// ErrEngineUnavailable indicates the speech engine probe failed. It is
	// swallowed at construction (the fallback engine takes over) and never
	// surfaces to users.
	ErrEngineUnavailable = errors.New("speech engine is not available")

	// ErrEngineCallFailed indicates an individual speak/stop/voices call
	// failed after the engine was deemed available.
	ErrEngineCallFailed = errors.New("speech engine call failed")

	// ErrNoDevices is returned when a connect is requested with an empty
	// device list. Callers should offer a scan or the system settings.
	ErrNoDevices = errors.New("no devices discovered yet: scan first or pair one in system settings")

	// ErrInvalidState is returned when an operation is not valid in the
	// session's current state.
	ErrInvalidState = errors.New("operation not valid in current session state")
)
