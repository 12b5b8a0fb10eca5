package scrape

import "fmt"

// ParseError represents a failure to make sense of a listing page.
type ParseError struct {
	Site    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scrape error for %s: %s: %v", e.Site, e.Message, e.Cause)
	}
	return fmt.Sprintf("scrape error for %s: %s", e.Site, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
