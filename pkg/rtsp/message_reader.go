package rtsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MessageReader handles RTSP message parsing. Header lines and body bytes are
// read through the same buffered reader, so consecutive messages on one
// stream are parsed without losing bytes.
type MessageReader struct {
	reader *bufio.Reader
}

// NewMessageReader creates a new RTSP message reader
func NewMessageReader(r io.Reader) *MessageReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &MessageReader{
		reader: br,
	}
}

// ReadRequest reads and parses an RTSP request
func (mr *MessageReader) ReadRequest() (*Request, error) {
	request := &Request{}
	title, err := mr.readMessage(&request.Message)
	if err != nil {
		return nil, err
	}

	request.Method, request.URI, err = parseRequestLine(title)
	if err != nil {
		return nil, err
	}

	return request, nil
}

// ReadResponse reads and parses an RTSP response
func (mr *MessageReader) ReadResponse() (*Response, error) {
	response := &Response{}
	title, err := mr.readMessage(&response.Message)
	if err != nil {
		return nil, err
	}

	response.Status, err = parseStatusLine(title)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// readMessage fills m with the header section and body, and returns the raw
// title line. Nothing is stored in m unless the whole message was read.
func (mr *MessageReader) readMessage(m *Message) (string, error) {
	title, err := mr.readLine()
	if errors.Is(err, ErrFraming) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: EOF before reading the title line: %w", ErrFraming, err)
	}

	headers := make(map[string]string)
	if err := mr.readHeaders(headers); err != nil {
		return "", err
	}

	var body []byte
	if contentLengthStr, ok := headers[HeaderContentLength]; ok {
		contentLength, err := strconv.Atoi(strings.TrimSpace(contentLengthStr))
		if err != nil || contentLength < 0 {
			return "", fmt.Errorf("%w: invalid content length: %s", ErrFraming, contentLengthStr)
		}
		if contentLength > maxContentLength {
			return "", fmt.Errorf("%w: content length too large: %d", ErrFraming, contentLength)
		}

		body = make([]byte, contentLength)
		if _, err := io.ReadFull(mr.reader, body); err != nil {
			return "", fmt.Errorf("%w: truncated body: %w", ErrFraming, err)
		}
	}

	m.Headers = headers
	m.Body = body
	return title, nil
}

// readLine reads a line from the reader (removes \r\n). Lines longer than
// maxLineLength are a framing error.
func (mr *MessageReader) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := mr.reader.ReadSlice('\n')
		if len(line)+len(chunk) > maxLineLength {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrFraming, maxLineLength)
		}
		line = append(line, chunk...)

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}

	// Remove \r\n
	return strings.TrimRight(string(line), "\r\n"), nil
}

// readHeaders reads headers until an empty line
func (mr *MessageReader) readHeaders(headers map[string]string) error {
	for {
		line, err := mr.readLine()
		if errors.Is(err, ErrFraming) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: EOF before end of header section: %w", ErrFraming, err)
		}

		// Empty line means end of headers
		if line == "" {
			return nil
		}

		key, value, err := parseHeaderLine(line)
		if err != nil {
			return err
		}
		headers[key] = value
	}
}

// parseHeaderLine splits "Header-Name: value". The value is left-trimmed.
func parseHeaderLine(line string) (string, string, error) {
	colonIndex := strings.IndexByte(line, ':')
	if colonIndex <= 0 {
		return "", "", fmt.Errorf("%w: could not parse header: %q", ErrFraming, line)
	}

	key := line[:colonIndex]
	value := strings.TrimLeft(line[colonIndex+1:], " \t")
	return key, value, nil
}
