package llm

import "fmt"

// ExtractionError reports a failure while extracting structured project
// details from page text.
type ExtractionError struct {
	Stage string // "generate", "validate", or "decode"
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// EmbeddingError reports a failure while computing a text embedding.
type EmbeddingError struct {
	Model string
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding with %s failed: %v", e.Model, e.Cause)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}
