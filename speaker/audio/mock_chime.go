package audio

import "sync"

// MockChime counts Play calls for tests, with a configurable failure.
type MockChime struct {
	mu    sync.Mutex
	calls int
	err   error
}

// NewMockChime creates a mock chime that always succeeds.
func NewMockChime() *MockChime {
	return &MockChime{}
}

// Play counts the call.
func (m *MockChime) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

// Fail configures Play to fail with err.
func (m *MockChime) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Play calls.
func (m *MockChime) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
