package speaker

// SessionState represents the current state of the speaker session.
type SessionState int

const (
	// StateIdle indicates no connection and no activity.
	StateIdle SessionState = iota
	// StateScanning indicates device discovery is in progress.
	StateScanning
	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting
	// StateConnected indicates a device holds the logical connection.
	StateConnected
	// StateSpeaking indicates an utterance is being dispatched.
	StateSpeaking
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// StateMachine manages state transitions for the speaker session.
type StateMachine struct {
	current     SessionState
	transitions map[SessionState][]SessionState
	onEnter     map[SessionState]func()
	onExit      map[SessionState]func()
}

// NewStateMachine creates a state machine with the valid session transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[SessionState][]SessionState{
			StateIdle:       {StateScanning, StateConnecting},
			StateScanning:   {StateIdle, StateConnecting, StateConnected},
			StateConnecting: {StateConnected, StateIdle, StateScanning},
			StateConnected:  {StateSpeaking, StateScanning, StateConnecting, StateIdle},
			StateSpeaking:   {StateConnected, StateIdle},
		},
		onEnter: make(map[SessionState]func()),
		onExit:  make(map[SessionState]func()),
	}
}

// Transition attempts to transition to the specified state. It returns
// false and leaves the machine unchanged when the transition is not valid.
func (sm *StateMachine) Transition(to SessionState) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() SessionState {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state SessionState, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state SessionState, fn func()) {
	sm.onExit[state] = fn
}
