package rtsp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"
)

var supportedMethods = []Method{
	MethodOptions,
	MethodDescribe,
	MethodSetup,
	MethodPlay,
	MethodTeardown,
}

// ServerConfig represents RTSP server configuration
type ServerConfig struct {
	// Host to bind; empty binds all interfaces
	Host string
	// Port to bind; 0 picks an ephemeral port
	Port int
	// AcceptTimeout bounds each accept so the loop can observe Stop.
	// Zero means DefaultAcceptTimeout.
	AcceptTimeout time.Duration
	// ReadTimeout bounds reading a request and writing its response.
	// Zero means DefaultReadTimeout.
	ReadTimeout time.Duration
	// CloseDelay is slept after writing a response and before closing the
	// connection. Zero means DefaultCloseDelay, negative disables it.
	CloseDelay time.Duration
	// ServerName is sent in the Server header when set
	ServerName string
	Logger     *slog.Logger
}

// deadlineListener is a listener whose Accept can be bounded in time
type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// Server represents an RTSP server. It serves one connection at a time and
// one request per connection.
type Server struct {
	handler       Handler
	listener      deadlineListener
	acceptTimeout time.Duration
	readTimeout   time.Duration
	closeDelay    time.Duration
	serverName    string
	logger        *slog.Logger
	started       atomic.Bool
	exitRequested atomic.Bool
	done          chan struct{}
}

// NewServer binds the listening socket. Serving starts with Start.
func NewServer(handler Handler, config ServerConfig) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "rtsp-server")

	s := &Server{
		handler:       handler,
		acceptTimeout: orDefault(config.AcceptTimeout, DefaultAcceptTimeout),
		readTimeout:   orDefault(config.ReadTimeout, DefaultReadTimeout),
		closeDelay:    orDefault(config.CloseDelay, DefaultCloseDelay),
		serverName:    config.ServerName,
		logger:        logger,
		done:          make(chan struct{}),
	}

	ln, err := s.createListener(config.Host, config.Port)
	if err != nil {
		return nil, err
	}
	s.listener = ln

	return s, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// Start starts serving on a dedicated goroutine
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("RTSP Server started", "addr", s.listener.Addr())
	go s.acceptConnections()
}

// Stop requests the accept loop to exit and waits until it has. The request
// in progress, if any, is completed first. The listener is closed by the
// loop itself.
func (s *Server) Stop() {
	if !s.started.Load() {
		closeWithLog(s.logger, s.listener)
		return
	}

	s.logger.Info("RTSP Server stopping...")
	s.exitRequested.Store(true)
	<-s.done
	s.logger.Info("RTSP Server stopped successfully")
}

// Addr returns the bound address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the bound port
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// createListener creates a TCP listener
func (s *Server) createListener(host string, port int) (*net.TCPListener, error) {
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, err
	}

	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		s.logger.Error("Error starting RTSP server", "err", err)
		return nil, err
	}

	return ln, nil
}

// acceptConnections accepts and serves connections until Stop is called
func (s *Server) acceptConnections() {
	defer close(s.done)

	for {
		if s.exitRequested.Load() {
			s.logger.Info("RTSP accept loop stopping...")
			closeWithLog(s.logger, s.listener)
			return
		}

		s.listener.SetDeadline(time.Now().Add(s.acceptTimeout))
		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				s.logger.Error("RTSP listener closed unexpectedly", "err", err)
				return
			}
			s.logger.Warn("RTSP accept failed", "err", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		s.serve(conn)
	}
}

// serve handles exactly one request on conn and closes it
func (s *Server) serve(conn net.Conn) {
	defer closeWithLog(s.logger, conn)

	conn.SetDeadline(time.Now().Add(s.readTimeout))

	var response *Response
	request, err := NewMessageReader(conn).ReadRequest()
	if err != nil {
		s.logger.Warn("Failed to read RTSP request", "remoteAddr", conn.RemoteAddr(), "err", err)
		s.handler.OnRequestError(err)
		response = &Response{
			Message: Message{Headers: make(map[string]string)},
			Status:  StatusInternalServerError,
		}
	} else {
		s.logger.Debug("RTSP request received", "method", request.Method, "uri", request.URI, "cseq", request.Headers[HeaderCSeq])
		response = s.handle(request, conn.LocalAddr())
	}

	// Persistent connections are not supported
	response.SetNonPersistent()
	if s.serverName != "" {
		response.SetHeader(HeaderServer, s.serverName)
	}

	if err := NewMessageWriter(conn).WriteResponse(response); err != nil {
		s.logger.Warn("Failed to write RTSP response", "remoteAddr", conn.RemoteAddr(), "err", err)
		if request != nil {
			s.handler.OnRequestError(err)
		}
		return
	}

	// Closing right after the write has been seen to cut the client's read
	// short.
	if s.closeDelay > 0 {
		time.Sleep(s.closeDelay)
	}
}

// handle routes a request and maps handler failures to error responses
func (s *Server) handle(request *Request, local net.Addr) *Response {
	response, err := s.dispatch(request, local)
	if err == nil {
		return response
	}

	if status, ok := StatusOf(err); ok {
		s.logger.Error("Returning custom RTSP response", "method", request.Method, "status", status.Code(), "err", err)
		response = NewStatusResponse(request, status)
	} else {
		s.logger.Error("Failed to handle RTSP request", "method", request.Method, "err", err)
		response = NewErrorResponse(request)
	}
	s.handler.OnRequestError(err)

	return response
}

func (s *Server) dispatch(request *Request, local net.Addr) (*Response, error) {
	switch request.Method {
	case MethodOptions:
		return s.handleOptions(request)
	case MethodDescribe:
		return s.handleDescribe(request)
	case MethodSetup:
		return s.handleSetup(request, local)
	case MethodPlay:
		return s.handlePlay(request)
	case MethodTeardown:
		return s.handleTeardown(request)
	default:
		return NewStatusResponse(request, StatusNotImplemented), nil
	}
}

// handleOptions handles OPTIONS request
func (s *Server) handleOptions(request *Request) (*Response, error) {
	names := make([]string, len(supportedMethods))
	for i, m := range supportedMethods {
		names[i] = string(m)
	}

	response := NewSuccessResponse(request, nil)
	response.SetHeader(HeaderPublic, strings.Join(names, ", "))
	return response, nil
}

// handleDescribe handles DESCRIBE request
func (s *Server) handleDescribe(request *Request) (*Response, error) {
	var accept []string
	value, ok := request.Header(HeaderAccept)
	if !ok {
		value, ok = request.Header(HeaderContentType)
	}
	if ok {
		accept = listSeparator.Split(strings.TrimSpace(value), -1)
	}

	body, err := s.handler.OnRequestDescription(accept)
	if err != nil {
		return nil, err
	}

	response := NewSuccessResponse(request, body)
	if body != nil {
		response.SetHeader(HeaderContentType, MimeTypeSDP)
	}
	response.SetHeader(HeaderContentBase, request.URI.String())
	return response, nil
}

// handleSetup handles SETUP request
func (s *Server) handleSetup(request *Request, local net.Addr) (*Response, error) {
	value, err := request.RequiredHeader(HeaderTransport)
	if err != nil {
		return nil, NewStatusError(StatusBadRequest, err)
	}

	clientTransport, err := ParseTransport(value)
	if err != nil {
		return nil, NewStatusError(StatusUnsupportedTransport, err)
	}
	if !clientTransport.IsUnicast() {
		return nil, NewStatusError(StatusUnsupportedTransport, ErrNotUnicast)
	}

	clientPorts, err := clientTransport.ClientPorts()
	if err != nil {
		return nil, NewStatusError(StatusBadRequest, err)
	}

	if !request.HasHeader(HeaderSession) {
		request.SetHeader(HeaderSession, s.handler.CreateSession())
	}
	session, _ := request.Session()

	serverRTP, serverRTCP, err := s.handler.OnSetupUnicast(session, request.URI, clientPorts.RTP, clientPorts.RTCP)
	if err != nil {
		return nil, err
	}

	serverTransport := NewTransport()
	serverTransport.SetUnicast()
	serverTransport.SetClientPorts(clientPorts)
	serverTransport.SetServerPorts(PortPair{RTP: serverRTP, RTCP: serverRTCP})
	if tcp, ok := local.(*net.TCPAddr); ok {
		serverTransport.SetSource(tcp.IP.String())
	}

	response := NewSuccessResponse(request, nil)
	response.SetHeader(HeaderTransport, serverTransport.String())
	return response, nil
}

// handlePlay handles PLAY request. Ranges are not supported.
func (s *Server) handlePlay(request *Request) (*Response, error) {
	session, _ := request.Session()
	if err := s.handler.OnPlay(session, request.URI); err != nil {
		return nil, err
	}
	return NewSuccessResponse(request, nil), nil
}

// handleTeardown handles TEARDOWN request
func (s *Server) handleTeardown(request *Request) (*Response, error) {
	session, _ := request.Session()
	if err := s.handler.OnTeardown(session); err != nil {
		return nil, err
	}
	return NewSuccessResponse(request, nil), nil
}

// closeWithLog closes a resource with logging
func closeWithLog(logger *slog.Logger, c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Error("Error closing resource", "err", err)
	}
}
