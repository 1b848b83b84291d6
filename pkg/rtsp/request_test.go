package rtsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLine(t *testing.T) {
	method, uri, err := parseRequestLine("PLAY rtsp://audio.example.com/audio RTSP/1.0")
	require.NoError(t, err)
	assert.Equal(t, MethodPlay, method)
	assert.Equal(t, "audio.example.com", uri.Host)
	assert.Equal(t, "/audio", uri.Path)

	method, uri, err = parseRequestLine("OPTIONS * RTSP/1.0")
	require.NoError(t, err)
	assert.Equal(t, MethodOptions, method)
	assert.Equal(t, "*", uri.String())
}

func TestParseRequestLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		err  error
	}{
		{name: "unknown method", line: "FETCH rtsp://example.com RTSP/1.0", err: ErrUnknownMethod},
		{name: "lower case method", line: "play rtsp://example.com RTSP/1.0", err: ErrUnknownMethod},
		{name: "version mismatch", line: "PLAY rtsp://example.com RTSP/2.0", err: ErrInvalidTitleLine},
		{name: "http version", line: "GET / HTTP/1.1", err: ErrInvalidTitleLine},
		{name: "missing uri", line: "PLAY RTSP/1.0", err: ErrInvalidTitleLine},
		{name: "malformed uri", line: "PLAY rtsp://exa mple.com/%zz RTSP/1.0", err: ErrInvalidTitleLine},
		{name: "empty", line: "", err: ErrInvalidTitleLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseRequestLine(tt.line)
			assert.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, ErrFraming)
		})
	}
}

func TestParseStatusLine(t *testing.T) {
	status, err := parseStatusLine("RTSP/1.0 200 OK")
	require.NoError(t, err)
	assert.Equal(t, 200, status.Code())
	assert.Equal(t, "OK", status.Phrase())
	assert.Equal(t, KindSuccess, status.Kind())

	status, err = parseStatusLine("RTSP/1.0 461 Unsupported transport")
	require.NoError(t, err)
	assert.Equal(t, "Unsupported transport", status.Phrase())

	status, err = parseStatusLine("RTSP/1.0 299 ")
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, status.Kind())
	assert.Equal(t, "", status.Phrase())
}

func TestParseStatusLineErrors(t *testing.T) {
	for _, line := range []string{
		"RTSP/1.0 20 OK",
		"RTSP/1.0 2000 OK",
		"RTSP/1.0 2x0 OK",
		"RTSP/1.0 099 Low",
		"RTSP/1.0 600 High",
		"RTSP/2.0 200 OK",
		"HTTP/1.1 200 OK",
	} {
		_, err := parseStatusLine(line)
		assert.ErrorIs(t, err, ErrInvalidTitleLine, line)
	}
}

func TestReadRequestInvalidTitleIsNotFraming(t *testing.T) {
	_, err := NewMessageReader(strings.NewReader("BOGUS * RTSP/1.0\r\nCSeq: 1\r\n\r\n")).ReadRequest()
	assert.ErrorIs(t, err, ErrInvalidTitleLine)
	assert.NotErrorIs(t, err, ErrFraming)
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{
		"OPTIONS", "DESCRIBE", "SETUP", "PLAY", "PAUSE", "RECORD",
		"GET_PARAMETER", "SET_PARAMETER", "REDIRECT", "TEARDOWN", "ANNOUNCE",
	} {
		method, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, string(method))
	}
}

func TestMethodSessionRole(t *testing.T) {
	assert.Equal(t, SessionStateless, MethodOptions.SessionRole())
	assert.Equal(t, SessionStateless, MethodDescribe.SessionRole())
	assert.Equal(t, SessionCreates, MethodSetup.SessionRole())
	assert.Equal(t, SessionRequired, MethodPlay.SessionRole())
	assert.Equal(t, SessionRequired, MethodGetParameter.SessionRole())
	assert.Equal(t, SessionDestroys, MethodTeardown.SessionRole())
}

func TestNewRequest(t *testing.T) {
	req := NewRequest(MethodSetup, mustParseURL(t, "rtsp://example.com/stream"), 5, "abc")
	assert.Equal(t, "SETUP rtsp://example.com/stream RTSP/1.0", req.Line())
	assert.Equal(t, "5", req.Headers[HeaderCSeq])
	session, ok := req.Session()
	assert.True(t, ok)
	assert.Equal(t, "abc", session)

	req = NewRequest(MethodOptions, mustParseURL(t, "*"), 1, "")
	assert.False(t, req.HasHeader(HeaderSession))
}

func TestResponseConstructors(t *testing.T) {
	req := NewRequest(MethodDescribe, mustParseURL(t, "rtsp://example.com"), 9, "abc")

	resp := NewSuccessResponse(req, []byte("body"))
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "9", resp.Headers[HeaderCSeq])
	assert.Equal(t, "abc", resp.Headers[HeaderSession])
	assert.Equal(t, "4", resp.Headers[HeaderContentLength])

	resp = NewErrorResponse(req)
	assert.Equal(t, StatusInternalServerError, resp.Status)
	assert.Equal(t, "9", resp.Headers[HeaderCSeq])
	assert.Equal(t, "abc", resp.Headers[HeaderSession])
	assert.Nil(t, resp.Body)
}
