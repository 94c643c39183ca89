package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed station ids, dates, hours, or separators.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable means the archive page carries no sounding for the
	// requested slot: one of the table markers is missing.
	ErrUnavailable = errors.New("sounding unavailable")

	// ErrTransport wraps network and connection failures talking to the archive.
	ErrTransport = errors.New("transport failure")

	// ErrWrite wraps filesystem failures while persisting an output file.
	ErrWrite = errors.New("write failure")
)

// StatusError is returned when the archive answers with a non-success status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive returned status %d for %s", e.StatusCode, e.URL)
}

// Kind classifies a per-request failure for batch reporting.
type Kind string

const (
	KindOK          Kind = "ok"
	KindUnavailable Kind = "unavailable"
	KindError       Kind = "error"
)

// Classify maps an error from a single request to its reporting kind.
// A nil error is KindOK; a missing sounding is KindUnavailable; everything
// else (transport, status, write, input) is KindError.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindError
	}
}
