package scan

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the single active scan and its cancellation flag. Only one
// scan may run at a time; a second Start fails with ErrAlreadyScanning until
// the active scan releases its slot.
type Registry struct {
	mu        sync.Mutex
	active    string
	cancelled map[string]bool
}

// NewRegistry creates an empty scan registry.
func NewRegistry() *Registry {
	return &Registry{cancelled: make(map[string]bool)}
}

// Acquire claims the scan slot and returns a fresh scan ID. Fails with
// ErrAlreadyScanning when a scan is already running.
func (r *Registry) Acquire() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return "", ErrAlreadyScanning
	}

	scanID := uuid.NewString()[:8]
	r.active = scanID
	r.cancelled[scanID] = false
	return scanID, nil
}

// Release frees the scan slot and forgets the scan's cancellation flag.
func (r *Registry) Release(scanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == scanID {
		r.active = ""
	}
	delete(r.cancelled, scanID)
}

// Cancel flags a running scan for cancellation. Returns false when the scan
// ID is unknown or already finished.
func (r *Registry) Cancel(scanID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cancelled[scanID]; !ok {
		return false
	}
	r.cancelled[scanID] = true
	return true
}

// Cancelled reports whether the scan has been flagged for cancellation. The
// flag is sticky: once set it stays set for the scan's lifetime.
func (r *Registry) Cancelled(scanID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled[scanID]
}

// Active returns the ID of the running scan, or "" when idle.
func (r *Registry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
