package scan

// EventKind identifies the type of a scan progress event.
type EventKind string

// Event kinds emitted over a scan's event stream, in roughly the order they
// occur.
const (
	EventStart           EventKind = "start"
	EventWebsiteStart    EventKind = "website_start"
	EventProgress        EventKind = "progress"
	EventProject         EventKind = "project"
	EventWebsiteComplete EventKind = "website_complete"
	EventDeduplication   EventKind = "deduplication"
	EventTFIDFComplete   EventKind = "tfidf_complete"
	EventComplete        EventKind = "complete"
	EventCancelled       EventKind = "cancelled"
	EventError           EventKind = "error"
)

// Event is a single progress update from a running scan.
type Event struct {
	Kind   EventKind `json:"kind"`
	ScanID string    `json:"scanId"`

	// Site is set for per-site events.
	Site string `json:"site,omitempty"`

	// Message carries human-readable progress or error detail.
	Message string `json:"message,omitempty"`

	// Project is set on EventProject, carrying the stored project.
	Project any `json:"project,omitempty"`

	// Counters, populated where meaningful for the kind.
	Page        int `json:"page,omitempty"`
	CardsSeen   int `json:"cardsSeen,omitempty"`
	NewProjects int `json:"newProjects,omitempty"`
	Removed     int `json:"removed,omitempty"`
}
