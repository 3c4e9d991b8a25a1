package hn

import "fmt"

// TransportError reports a failed request: the connection broke, the
// context ended, or the API answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not the expected JSON shape.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: GET %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError is returned when a caller requires a field the item
// does not carry (or carries with the wrong type).
type MissingFieldError struct {
	ItemID int
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("item %d: missing field %q", e.ItemID, e.Field)
}
