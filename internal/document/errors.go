package document

import "fmt"

// FormatError is returned when a backend response cannot be turned into a document to format
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting document: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the human-readable block cannot be scanned at all
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "failed to parse document data: " + e.Reason
}
