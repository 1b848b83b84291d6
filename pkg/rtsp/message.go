package rtsp

import (
	"fmt"
	"strconv"
)

// Message is the part shared by requests and responses: a header map keyed by
// the header name as received, and an optional body. A nil Body means the
// message has no body.
type Message struct {
	Headers map[string]string
	Body    []byte
}

func newMessage(cseq int, session string, body []byte) Message {
	m := Message{Headers: make(map[string]string)}
	m.SetCSeq(cseq)
	if session != "" {
		m.SetHeader(HeaderSession, session)
	}
	if body != nil {
		m.SetBody(body)
	}
	return m
}

// SetHeader sets a header value
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
}

// Header returns a header value and whether it is present
func (m *Message) Header(key string) (string, bool) {
	v, ok := m.Headers[key]
	return v, ok
}

// HasHeader reports whether the header is present
func (m *Message) HasHeader(key string) bool {
	_, ok := m.Headers[key]
	return ok
}

// RequiredHeader returns a header value or ErrMissingHeader
func (m *Message) RequiredHeader(key string) (string, error) {
	v, ok := m.Headers[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingHeader, key)
	}
	return v, nil
}

// SetCSeq sets the CSeq header
func (m *Message) SetCSeq(cseq int) {
	m.SetHeader(HeaderCSeq, strconv.Itoa(cseq))
}

// CSeq parses the CSeq header
func (m *Message) CSeq() (int, error) {
	v, err := m.RequiredHeader(HeaderCSeq)
	if err != nil {
		return 0, err
	}
	cseq, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid CSeq %q: %w", v, err)
	}
	return cseq, nil
}

// Session returns the Session header and whether it is present
func (m *Message) Session() (string, bool) {
	return m.Header(HeaderSession)
}

// SetBody sets the body and keeps Content-Length in sync with it. A nil body
// removes both.
func (m *Message) SetBody(body []byte) {
	m.Body = body
	if body == nil {
		delete(m.Headers, HeaderContentLength)
		return
	}
	m.SetHeader(HeaderContentLength, strconv.Itoa(len(body)))
}

// SetNonPersistent marks the message with Connection: close
func (m *Message) SetNonPersistent() {
	m.SetHeader(HeaderConnection, ConnectionClose)
}
