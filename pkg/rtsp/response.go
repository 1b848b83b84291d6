package rtsp

import (
	"fmt"
	"strconv"
	"strings"
)

// Response represents an RTSP response
type Response struct {
	Message
	Status Status
}

// NewResponse creates a new RTSP response. An empty session is not sent.
func NewResponse(status Status, cseq int, session string) *Response {
	return &Response{
		Message: newMessage(cseq, session, nil),
		Status:  status,
	}
}

// newResponseFor creates a response echoing the request's CSeq and Session
// headers verbatim.
func newResponseFor(req *Request, status Status) *Response {
	response := &Response{
		Message: Message{Headers: make(map[string]string)},
		Status:  status,
	}
	if cseq, ok := req.Header(HeaderCSeq); ok {
		response.SetHeader(HeaderCSeq, cseq)
	}
	if session, ok := req.Session(); ok {
		response.SetHeader(HeaderSession, session)
	}
	return response
}

// NewSuccessResponse creates a 200 OK response for req with an optional body
func NewSuccessResponse(req *Request, body []byte) *Response {
	response := newResponseFor(req, StatusOK)
	if body != nil {
		response.SetBody(body)
	}
	return response
}

// NewErrorResponse creates a 500 Internal Server Error response for req
func NewErrorResponse(req *Request) *Response {
	return newResponseFor(req, StatusInternalServerError)
}

// NewStatusResponse creates a response for req with the given status
func NewStatusResponse(req *Request, status Status) *Response {
	return newResponseFor(req, status)
}

// ServerName returns the Server header, if any
func (r *Response) ServerName() string {
	v, _ := r.Header(HeaderServer)
	return v
}

// String returns the status line
func (r *Response) String() string {
	return r.Status.String()
}

// parseStatusLine parses "RTSP-Version SP 3DIGIT SP Reason-Phrase"
func parseStatusLine(line string) (Status, error) {
	rest, ok := strings.CutPrefix(line, Version+" ")
	if !ok {
		return Status{}, fmt.Errorf("%w: invalid status line: %q", ErrInvalidTitleLine, line)
	}

	code, phrase, _ := strings.Cut(rest, " ")
	if len(code) != 3 {
		return Status{}, fmt.Errorf("%w: invalid status line: %q", ErrInvalidTitleLine, line)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return Status{}, fmt.Errorf("%w: invalid status line: %q", ErrInvalidTitleLine, line)
		}
	}

	n, _ := strconv.Atoi(code)
	status, err := NewStatus(n, phrase)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %w", ErrInvalidTitleLine, err)
	}
	return status, nil
}
