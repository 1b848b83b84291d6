package rtsp

import (
	"bufio"
	"io"
	"maps"
	"slices"
	"strconv"
)

// MessageWriter handles RTSP message writing
type MessageWriter struct {
	writer *bufio.Writer
}

// NewMessageWriter creates a new RTSP message writer
func NewMessageWriter(w io.Writer) *MessageWriter {
	return &MessageWriter{
		writer: bufio.NewWriter(w),
	}
}

// WriteRequest writes an RTSP request
func (mw *MessageWriter) WriteRequest(req *Request) error {
	return mw.writeMessage(req.Line(), &req.Message)
}

// WriteResponse writes an RTSP response
func (mw *MessageWriter) WriteResponse(resp *Response) error {
	return mw.writeMessage(resp.Status.String(), &resp.Message)
}

// writeMessage emits the title line, the header section and the body. The
// Content-Length header is derived from the body whenever one is present.
func (mw *MessageWriter) writeMessage(title string, m *Message) error {
	if m.Body != nil {
		m.SetHeader(HeaderContentLength, strconv.Itoa(len(m.Body)))
	}

	mw.writer.WriteString(title)
	mw.writer.WriteString(crlf)

	// Header order carries no meaning; sorting keeps the output stable
	for _, key := range slices.Sorted(maps.Keys(m.Headers)) {
		mw.writer.WriteString(key)
		mw.writer.WriteString(headerSeparator)
		mw.writer.WriteString(m.Headers[key])
		mw.writer.WriteString(crlf)
	}

	// Empty line
	mw.writer.WriteString(crlf)

	if m.Body != nil {
		mw.writer.Write(m.Body)
	}

	return mw.writer.Flush()
}
