package signal

import "sync"

// Mirror is a domain's local copy of the success/error flags. It has its own
// lock, independent of the store's entity lock: the bus calls ResetSuccess and
// ResetError while holding the bus lock, and stores must never raise on the
// bus while holding the mirror lock, so the two locks never nest in both
// directions.
type Mirror struct {
	mu      sync.Mutex
	success bool
	err     error
}

// NewMirror returns a mirror with both flags down.
func NewMirror() *Mirror {
	return &Mirror{}
}

// SetSuccess raises the local success flag.
func (m *Mirror) SetSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.success = true
}

// SetError raises the local error flag.
func (m *Mirror) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Success reports the local success flag.
func (m *Mirror) Success() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.success
}

// Err returns the local error flag, nil when down.
func (m *Mirror) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ResetSuccess clears the local success flag.
func (m *Mirror) ResetSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.success = false
}

// ResetError clears the local error flag.
func (m *Mirror) ResetError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
}

var _ Resetter = (*Mirror)(nil)
