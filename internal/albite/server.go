package albite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
	"github.com/dumbledore/AlbiteRTSP/pkg/rtsp"
	"github.com/google/uuid"
)

// Server serves the configured media file over RTSP
type Server struct {
	config      *Config
	logger      *slog.Logger
	rtsp        *rtsp.Server
	description []byte
	sessions    *sessionRegistry
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewServer(config *Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	description, err := buildDescription(config.Media, config.RTSP.Host)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      config,
		logger:      logger,
		description: description,
		sessions:    newSessionRegistry(),
		ctx:         ctx,
		cancel:      cancel,
	}

	s.rtsp, err = rtsp.NewServer(s, rtsp.ServerConfig{
		Host:          config.RTSP.Host,
		Port:          config.RTSP.Port,
		AcceptTimeout: config.RTSP.AcceptTimeout,
		ReadTimeout:   config.RTSP.ReadTimeout,
		CloseDelay:    config.RTSP.CloseDelay,
		ServerName:    config.RTSP.ServerName,
		Logger:        logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create RTSP server: %w", err)
	}

	return s, nil
}

func (s *Server) Start() error {
	// 미디어 파일이 없으면 시작하지 않음
	if _, err := os.Stat(s.config.Media.File); err != nil {
		s.rtsp.Stop()
		s.cancel()
		return fmt.Errorf("media file unavailable: %w", err)
	}

	s.logger.Info("Start Server", "addr", s.rtsp.Addr(), "media", s.config.Media.File)
	s.rtsp.Start()
	return nil
}

func (s *Server) Stop() {
	s.logger.Info("Stopping Albite Server...")

	// 1. RTSP 서버 종료
	s.rtsp.Stop()

	// 2. 진행 중인 미디어 펌프 종료
	s.cancel()

	// 3. 세션 정리
	s.sessions.stopAll()

	s.logger.Info("Albite Server stopped successfully")
}

// Addr returns the RTSP listening address
func (s *Server) Addr() net.Addr {
	return s.rtsp.Addr()
}

// OnRequestError logs failed requests
func (s *Server) OnRequestError(err error) {
	s.logger.Warn("RTSP request failed", "err", err)
}

// OnRequestDescription returns the SDP if the client accepts it
func (s *Server) OnRequestDescription(accept []string) ([]byte, error) {
	if len(accept) > 0 && !acceptsSDP(accept) {
		return nil, rtsp.NewStatusError(rtsp.StatusNotAcceptable, fmt.Errorf("no acceptable description type in %v", accept))
	}
	return s.description, nil
}

func acceptsSDP(accept []string) bool {
	for _, a := range accept {
		mimeType, _, _ := strings.Cut(a, ";")
		if strings.EqualFold(strings.TrimSpace(mimeType), rtsp.MimeTypeSDP) {
			return true
		}
	}
	return false
}

// CreateSession mints a new session id
func (s *Server) CreateSession() string {
	return uuid.NewString()
}

// OnSetupUnicast creates the RTP sender for the session
func (s *Server) OnSetupUnicast(session string, uri *url.URL, clientRTPPort, clientRTCPPort int) (int, int, error) {
	// 같은 세션의 재 SETUP은 기존 sender를 교체
	if previous, ok := s.sessions.remove(session); ok {
		s.logger.Info("Replacing media session", "sessionId", session)
		previous.stop()
	}

	sender, err := rtp.NewSender(rtp.SenderConfig{
		Host:           s.config.RTSP.Host,
		RTPPort:        s.config.Media.ServerRTPPort,
		Destination:    s.config.Media.Destination,
		ClientRTPPort:  clientRTPPort,
		ClientRTCPPort: clientRTCPPort,
		PayloadType:    s.config.Media.PayloadType,
		ClockRate:      s.config.Media.ClockRate,
		Logger:         s.logger.With("sessionId", session),
	})
	if errors.Is(err, syscall.EADDRINUSE) {
		// 고정 server_rtp_port는 동시에 하나의 세션만 사용 가능
		return 0, 0, rtsp.NewStatusError(rtsp.StatusServiceUnavailable, fmt.Errorf("server RTP port %d in use: %w", s.config.Media.ServerRTPPort, err))
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create RTP sender: %w", err)
	}

	s.sessions.put(newMediaSession(session, sender, s.logger))
	serverRTPPort, serverRTCPPort := sender.LocalPorts()
	s.logger.Info("Media session set up", "sessionId", session, "uri", uri, "serverRTP", serverRTPPort, "serverRTCP", serverRTCPPort)

	return serverRTPPort, serverRTCPPort, nil
}

// OnPlay starts streaming for the session
func (s *Server) OnPlay(session string, uri *url.URL) error {
	media, ok := s.sessions.get(session)
	if !ok {
		return rtsp.NewStatusError(rtsp.StatusSessionNotFound, fmt.Errorf("unknown session %q", session))
	}

	if media.play(s.ctx, s.config.Media) {
		s.logger.Info("Media session playing", "sessionId", session, "uri", uri)
	}
	return nil
}

// OnTeardown stops streaming and releases the session
func (s *Server) OnTeardown(session string) error {
	media, ok := s.sessions.remove(session)
	if !ok {
		return rtsp.NewStatusError(rtsp.StatusSessionNotFound, fmt.Errorf("unknown session %q", session))
	}

	media.stop()
	s.logger.Info("Media session torn down", "sessionId", session)
	return nil
}
