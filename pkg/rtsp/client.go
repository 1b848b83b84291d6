package rtsp

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var listSeparator = regexp.MustCompile(`\s*,\s*`)

// Client is an RTSP client session. Every request is sent on a fresh
// connection that is closed once the response has been read. The client is
// not safe for concurrent use.
type Client struct {
	uri            *url.URL
	addr           string
	cseq           int
	session        string
	hasSession     bool
	connectTimeout time.Duration
	readTimeout    time.Duration
	userAgent      string
	logger         *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithConnectTimeout sets the default connect timeout used by Transfer
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.connectTimeout = d }
}

// WithReadTimeout bounds the time spent writing a request and reading its
// response. Zero disables the deadline.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.readTimeout = d }
}

// WithUserAgent sets the User-Agent header on every request
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the given base URI, e.g.
// rtsp://example.com:554/stream. The port defaults to 554.
func NewClient(rawURI string, opts ...ClientOption) (*Client, error) {
	uri, err := url.Parse(rawURI)
	if err != nil {
		return nil, fmt.Errorf("invalid uri %q: %w", rawURI, err)
	}
	if uri.Hostname() == "" {
		return nil, fmt.Errorf("invalid uri %q: no host", rawURI)
	}

	port := uri.Port()
	if port == "" {
		port = strconv.Itoa(DefaultPort)
	}

	c := &Client{
		uri:            uri,
		addr:           net.JoinHostPort(uri.Hostname(), port),
		cseq:           1,
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "rtsp-client")

	return c, nil
}

// URI returns the base URI
func (c *Client) URI() *url.URL {
	return c.uri
}

// Session returns the pinned session id, if one has been received
func (c *Client) Session() (string, bool) {
	return c.session, c.hasSession
}

// Transfer sends req and validates the response using the default connect
// timeout.
func (c *Client) Transfer(req *Request) (*Response, error) {
	return c.TransferTimeout(req, c.connectTimeout)
}

// TransferTimeout sends req on a new connection and reads one response. The
// response must be a success, echo the request CSeq, and carry the pinned
// session if it carries one at all. The first session id seen is pinned.
func (c *Client) TransferTimeout(req *Request, connectTimeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("tcp", c.addr, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	defer closeWithLog(c.logger, conn)

	if c.readTimeout > 0 {
		conn.SetDeadline(time.Now().Add(c.readTimeout))
	}

	c.logger.Debug("RTSP request sent", "method", req.Method, "uri", req.URI, "cseq", req.Headers[HeaderCSeq])

	if err := NewMessageWriter(conn).WriteRequest(req); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	response, err := NewMessageReader(conn).ReadResponse()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if err := c.validate(req, response); err != nil {
		return nil, err
	}

	return response, nil
}

func (c *Client) validate(req *Request, response *Response) error {
	if response.Status.Kind() != KindSuccess {
		return NewStatusError(response.Status, fmt.Errorf("transfer failed: %s", response.Status))
	}

	requestCSeq, err := req.CSeq()
	if err != nil {
		return err
	}
	responseCSeq, err := response.CSeq()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCSeqMismatch, err)
	}
	if requestCSeq != responseCSeq {
		return fmt.Errorf("%w: sent %d, received %d", ErrCSeqMismatch, requestCSeq, responseCSeq)
	}

	// Some servers hand out the session before SETUP, e.g. in DESCRIBE, so the
	// first one seen is pinned whatever the method.
	session, ok := response.Session()
	switch {
	case !ok:
	case !c.hasSession:
		c.session, c.hasSession = session, true
		c.logger.Debug("RTSP session pinned", "sessionId", session)
	case session != c.session:
		return fmt.Errorf("%w: pinned %q, received %q", ErrSessionMismatch, c.session, session)
	}

	return nil
}

// newRequest builds a non-persistent request with the next CSeq and the
// pinned session, if any.
func (c *Client) newRequest(method Method, uri *url.URL) *Request {
	req := NewRequest(method, uri, c.cseq, c.session)
	c.cseq++
	req.SetNonPersistent()
	if c.userAgent != "" {
		req.SetHeader(HeaderUserAgent, c.userAgent)
	}
	return req
}

// Options requests the methods supported by the server
func (c *Client) Options() ([]Method, error) {
	response, err := c.Transfer(c.newRequest(MethodOptions, c.uri))
	if err != nil {
		return nil, err
	}

	// e.g.: Public: OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN
	public, ok := response.Header(HeaderPublic)
	if !ok {
		return nil, ErrNoPublicHeader
	}

	names := listSeparator.Split(strings.TrimSpace(public), -1)
	result := make([]Method, 0, len(names))
	for _, name := range names {
		method, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		result = append(result, method)
	}

	return result, nil
}

// Describe requests a description of the base URI in one of the accepted
// content types.
func (c *Client) Describe(accept []string) (*Response, error) {
	req := c.newRequest(MethodDescribe, c.uri)
	req.SetHeader(HeaderAccept, strings.Join(accept, ", "))

	response, err := c.Transfer(req)
	if err != nil {
		return nil, err
	}

	if response.Body == nil {
		return nil, ErrNoBody
	}

	return response, nil
}

// DescribeSDP requests an SDP description and returns it as text
func (c *Client) DescribeSDP() (string, error) {
	response, err := c.Describe([]string{MimeTypeSDP})
	if err != nil {
		return "", err
	}

	if contentType, ok := response.Header(HeaderContentType); ok && contentType != MimeTypeSDP {
		return "", fmt.Errorf("%w: %s", ErrContentTypeMismatch, contentType)
	}

	return string(response.Body), nil
}

// Setup negotiates transport for the base URI
func (c *Client) Setup(transport *Transport) (*Transport, error) {
	return c.SetupURI(c.uri, transport)
}

// SetupURI negotiates transport for uri and returns the server's transport
func (c *Client) SetupURI(uri *url.URL, transport *Transport) (*Transport, error) {
	req := c.newRequest(MethodSetup, uri)
	req.SetHeader(HeaderTransport, transport.String())

	response, err := c.Transfer(req)
	if err != nil {
		return nil, err
	}

	t, err := response.RequiredHeader(HeaderTransport)
	if err != nil {
		return nil, err
	}
	return ParseTransport(t)
}

// RTPUnicastSetup sets up unicast RTP to clientRTPPort (RTCP on the next port)
func (c *Client) RTPUnicastSetup(clientRTPPort int) (*Transport, error) {
	return c.RTPUnicastSetupURI(c.uri, clientRTPPort)
}

// RTPUnicastSetupURI is RTPUnicastSetup for an explicit URI
func (c *Client) RTPUnicastSetupURI(uri *url.URL, clientRTPPort int) (*Transport, error) {
	transport := NewTransport()
	transport.SetUnicast()
	transport.SetClientRTPPort(clientRTPPort)
	return c.SetupURI(uri, transport)
}

// Play starts playback of the base URI. Ranges are not supported.
func (c *Client) Play() error {
	return c.PlayURI(c.uri)
}

// PlayURI starts playback of uri
func (c *Client) PlayURI(uri *url.URL) error {
	_, err := c.Transfer(c.newRequest(MethodPlay, uri))
	return err
}

// Close tears the session down
func (c *Client) Close() error {
	_, err := c.Transfer(c.newRequest(MethodTeardown, c.uri))
	return err
}
