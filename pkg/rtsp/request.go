package rtsp

import (
	"fmt"
	"net/url"
	"strings"
)

// Method is an RTSP request method
type Method string

// RTSP Methods
const (
	MethodOptions      Method = "OPTIONS"
	MethodDescribe     Method = "DESCRIBE"
	MethodAnnounce     Method = "ANNOUNCE"
	MethodSetup        Method = "SETUP"
	MethodPlay         Method = "PLAY"
	MethodPause        Method = "PAUSE"
	MethodRecord       Method = "RECORD"
	MethodGetParameter Method = "GET_PARAMETER"
	MethodSetParameter Method = "SET_PARAMETER"
	MethodRedirect     Method = "REDIRECT"
	MethodTeardown     Method = "TEARDOWN"
)

var methods = []Method{
	MethodOptions,
	MethodDescribe,
	MethodAnnounce,
	MethodSetup,
	MethodPlay,
	MethodPause,
	MethodRecord,
	MethodGetParameter,
	MethodSetParameter,
	MethodRedirect,
	MethodTeardown,
}

// ParseMethod returns the method named s, or ErrUnknownMethod
func ParseMethod(s string) (Method, error) {
	for _, m := range methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// SessionRole describes how a method relates to a session. It is
// informational only: nothing in the client or the server enforces it.
type SessionRole int

const (
	SessionStateless SessionRole = iota
	SessionCreates
	SessionRequired
	SessionDestroys
)

// SessionRole returns the documented session role of the method
func (m Method) SessionRole() SessionRole {
	switch m {
	case MethodSetup:
		return SessionCreates
	case MethodPlay, MethodPause, MethodRecord, MethodGetParameter, MethodSetParameter, MethodRedirect:
		return SessionRequired
	case MethodTeardown:
		return SessionDestroys
	default:
		return SessionStateless
	}
}

// Request represents an RTSP request
type Request struct {
	Message
	Method Method
	URI    *url.URL
}

// NewRequest creates a new RTSP request. An empty session is not sent.
func NewRequest(method Method, uri *url.URL, cseq int, session string) *Request {
	return &Request{
		Message: newMessage(cseq, session, nil),
		Method:  method,
		URI:     uri,
	}
}

// Line returns the request line without the trailing CRLF
func (r *Request) Line() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.URI, Version)
}

// UserAgent returns the User-Agent header, if any
func (r *Request) UserAgent() string {
	v, _ := r.Header(HeaderUserAgent)
	return v
}

// String returns the request line
func (r *Request) String() string {
	return r.Line()
}

// parseRequestLine parses "METHOD SP Request-URI SP RTSP-Version"
func parseRequestLine(line string) (Method, *url.URL, error) {
	rest, ok := strings.CutSuffix(line, " "+Version)
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid request line: %q", ErrInvalidTitleLine, line)
	}

	name, rawURI, ok := strings.Cut(rest, " ")
	if !ok || name == "" || rawURI == "" {
		return "", nil, fmt.Errorf("%w: invalid request line: %q", ErrInvalidTitleLine, line)
	}

	method, err := ParseMethod(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidTitleLine, err)
	}

	uri, err := url.Parse(rawURI)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid request URI: %w", ErrInvalidTitleLine, err)
	}

	return method, uri, nil
}
