package scan

import (
	"errors"
	"fmt"
)

// ErrAlreadyScanning is returned when a scan is requested while another scan
// holds the slot.
var ErrAlreadyScanning = errors.New("a scan is already running")

// ErrCancelled is returned internally when a scan observes its cancellation
// flag.
var ErrCancelled = errors.New("scan cancelled")

// SiteError reports a failure confined to one site. Other sites in the same
// scan keep running.
type SiteError struct {
	Site  string
	Stage string // "open", "extract", "detail", "store"
	Cause error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("site %s failed during %s: %v", e.Site, e.Stage, e.Cause)
}

func (e *SiteError) Unwrap() error {
	return e.Cause
}
