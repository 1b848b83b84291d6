package rtsp

import (
	"errors"
	"fmt"
)

// Framing and parse errors
var (
	ErrFraming           = errors.New("rtsp: framing error")
	ErrInvalidTitleLine  = errors.New("rtsp: invalid title line")
	ErrUnknownMethod     = errors.New("rtsp: unknown method")
	ErrInvalidStatusCode = errors.New("rtsp: invalid status code")
	ErrMissingHeader     = errors.New("rtsp: missing header")
)

// Client validation errors
var (
	ErrCSeqMismatch        = errors.New("rtsp: response CSeq does not match request")
	ErrSessionMismatch     = errors.New("rtsp: session changed")
	ErrNoPublicHeader      = errors.New("rtsp: no Public header found")
	ErrNoBody              = errors.New("rtsp: DESCRIBE response has no body")
	ErrContentTypeMismatch = errors.New("rtsp: unexpected content type")
)

// Transport negotiation errors
var (
	ErrUnsupportedTransport = errors.New("rtsp: unsupported transport")
	ErrInvalidTransport     = errors.New("rtsp: invalid transport")
	ErrNotPortPair          = errors.New("rtsp: parameter is not a port pair")
	ErrNotUnicast           = errors.New("rtsp: only unicast is supported")
)

// StatusError carries a response status. The client returns it for
// non-success responses; a Handler returns it to pick the status the server
// responds with.
type StatusError struct {
	Status Status
	Err    error
}

// NewStatusError creates a status-carrying error with an optional cause
func NewStatusError(status Status, err error) *StatusError {
	return &StatusError{Status: status, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rtsp: %d %s: %v", e.Status.Code(), e.Status.Phrase(), e.Err)
	}
	return fmt.Sprintf("rtsp: %d %s", e.Status.Code(), e.Status.Phrase())
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusOf returns the status carried by err, if any
func StatusOf(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return Status{}, false
}
