package speaker

// Messages for Bubble Tea communication between the session and the UI.

// DevicesUpdatedMsg carries a fresh discovery result.
type DevicesUpdatedMsg struct {
	Devices []Device
}

// ConnectedMsg indicates the logical connection moved to a device.
type ConnectedMsg struct {
	Device Device
}

// DisconnectedMsg indicates the logical connection was dropped.
type DisconnectedMsg struct{}

// SpokeMsg indicates an utterance was dispatched.
type SpokeMsg struct {
	Text string // the text actually spoken, after translation
}

// PromptMsg surfaces an advisory prompt to the user.
type PromptMsg struct {
	Prompt Prompt
}

// SessionErrorMsg indicates a session operation failed.
type SessionErrorMsg struct {
	Err error
}
