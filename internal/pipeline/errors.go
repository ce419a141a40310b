package pipeline

import (
	"errors"
	"fmt"
)

// ExtractionError wraps a failure in the structured extraction stage.
// Extraction failures degrade the page, they never fail it.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed on page %d: %v", e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TranslationError wraps a failure of the translation service. The
// original text is carried forward in its place.
type TranslationError struct {
	Page int
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed on page %d: %v", e.Page, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// CompositionError wraps a failure while composing or writing the
// output document. Composition failures are page-fatal.
type CompositionError struct {
	Page int
	Err  error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition failed on page %d: %v", e.Page, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// TimeoutError marks a stage that ran out of its deadline.
type TimeoutError struct {
	Stage string
	Page  int
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out on page %d: %v", e.Stage, e.Page, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsPageFatal reports whether an error must fail the whole page rather
// than degrade it.
func IsPageFatal(err error) bool {
	var ce *CompositionError
	return errors.As(err, &ce)
}
