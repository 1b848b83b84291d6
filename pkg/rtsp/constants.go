package rtsp

import (
	"fmt"
	"time"
)

// RTSP Version
const (
	MajorVersion = 1
	MinorVersion = 0
)

var Version = fmt.Sprintf("RTSP/%d.%d", MajorVersion, MinorVersion)

// RTSP Headers
const (
	HeaderAccept        = "Accept"
	HeaderConnection    = "Connection"
	HeaderContentBase   = "Content-Base"
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderCSeq          = "CSeq"
	HeaderPublic        = "Public"
	HeaderServer        = "Server"
	HeaderSession       = "Session"
	HeaderTransport     = "Transport"
	HeaderUserAgent     = "User-Agent"
)

// Header values
const (
	ConnectionClose = "close"
	MimeTypeSDP     = "application/sdp"
	Charset         = "UTF-8"
)

// Default Values
const (
	DefaultPort           = 554
	DefaultAcceptTimeout  = 5 * time.Second
	DefaultReadTimeout    = 15 * time.Second
	DefaultCloseDelay     = 500 * time.Millisecond
	DefaultConnectTimeout = 5 * time.Second
)

const (
	crlf            = "\r\n"
	headerSeparator = ": "

	// Limits on what a peer may make us buffer
	maxLineLength    = 8 << 10
	maxContentLength = 1 << 20

	// acceptRetryDelay is slept after an accept error that is not a timeout
	acceptRetryDelay = 100 * time.Millisecond
)
