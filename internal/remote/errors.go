package remote

import "fmt"

// Messages shown to the user. Error details stay in the logs.
const (
	ExtractionFailedMessage = "Failed to process document"
	SubmissionFailedMessage = "Failed to add invoice to Excel data"
)

// ExtractionError reports a failed upload: a transport error, a non-success
// status or a body that is not a valid record
type ExtractionError struct {
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extraction failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SubmissionError reports a failed invoice submission
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
