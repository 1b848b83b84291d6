package rtp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pion/randutil"
	"github.com/pion/rtcp"
	pionrtp "github.com/pion/rtp"
)

// Constants for RTP
const (
	MaxRTPPacketSize = 1500 // Maximum RTP packet size (MTU)
	rtpHeaderSize    = 12
)

// Common payload types
const (
	PayloadTypeMP2T = 33 // MPEG-2 TS
	PayloadTypeH264 = 96 // H.264 (dynamic)
)

// DefaultClockRate is the 90kHz video clock
const DefaultClockRate = 90000

var ErrSenderClosed = errors.New("rtp: sender is closed")

// SenderConfig configures a unicast RTP sender
type SenderConfig struct {
	// Host to bind locally; empty binds all interfaces
	Host string
	// RTPPort to bind; RTCP binds RTPPort+1. Zero binds two ephemeral ports.
	RTPPort int
	// Destination host of the client
	Destination    string
	ClientRTPPort  int
	ClientRTCPPort int
	PayloadType    uint8
	ClockRate      uint32
	Logger         *slog.Logger
}

// Sender sends RTP packets and RTCP sender reports to one client over UDP
type Sender struct {
	rtpConn     *net.UDPConn
	rtcpConn    *net.UDPConn
	rtpAddr     *net.UDPAddr
	rtcpAddr    *net.UDPAddr
	ssrc        uint32
	payloadType uint8
	clockRate   uint32
	sequencer   pionrtp.Sequencer
	packetCount uint32
	octetCount  uint32
	lastTS      uint32
	closed      bool
	logger      *slog.Logger
	mu          sync.Mutex
}

// NewSender binds the local RTP/RTCP ports and resolves the client addresses
func NewSender(config SenderConfig) (*Sender, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clockRate := config.ClockRate
	if clockRate == 0 {
		clockRate = DefaultClockRate
	}

	rtpAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(config.Destination, strconv.Itoa(config.ClientRTPPort)))
	if err != nil {
		return nil, fmt.Errorf("invalid client RTP address: %w", err)
	}
	rtcpAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(config.Destination, strconv.Itoa(config.ClientRTCPPort)))
	if err != nil {
		return nil, fmt.Errorf("invalid client RTCP address: %w", err)
	}

	rtpConn, err := listenUDP(config.Host, config.RTPPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start RTP listener: %w", err)
	}
	rtcpPort := 0
	if config.RTPPort != 0 {
		rtcpPort = config.RTPPort + 1
	}
	rtcpConn, err := listenUDP(config.Host, rtcpPort)
	if err != nil {
		rtpConn.Close()
		return nil, fmt.Errorf("failed to start RTCP listener: %w", err)
	}

	s := &Sender{
		rtpConn:     rtpConn,
		rtcpConn:    rtcpConn,
		rtpAddr:     rtpAddr,
		rtcpAddr:    rtcpAddr,
		ssrc:        randutil.NewMathRandomGenerator().Uint32(),
		payloadType: config.PayloadType,
		clockRate:   clockRate,
		sequencer:   pionrtp.NewRandomSequencer(),
	}
	rtpPort, rtcpPort := s.LocalPorts()
	s.logger = logger.With("ssrc", s.ssrc)
	s.logger.Info("RTP sender created", "rtpPort", rtpPort, "rtcpPort", rtcpPort, "clientRTP", rtpAddr, "clientRTCP", rtcpAddr)

	return s, nil
}

func listenUDP(host string, port int) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return net.ListenUDP("udp", addr)
}

// LocalPorts returns the bound RTP and RTCP ports
func (s *Sender) LocalPorts() (rtpPort, rtcpPort int) {
	return s.rtpConn.LocalAddr().(*net.UDPAddr).Port, s.rtcpConn.LocalAddr().(*net.UDPAddr).Port
}

// SSRC returns the synchronization source of the stream
func (s *Sender) SSRC() uint32 {
	return s.ssrc
}

// ClockRate returns the RTP clock rate
func (s *Sender) ClockRate() uint32 {
	return s.clockRate
}

// WritePayload sends one RTP packet carrying payload
func (s *Sender) WritePayload(payload []byte, timestamp uint32, marker bool) error {
	if rtpHeaderSize+len(payload) > MaxRTPPacketSize {
		return fmt.Errorf("RTP packet too large: %d bytes", rtpHeaderSize+len(payload))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSenderClosed
	}

	packet := &pionrtp.Packet{
		Header: pionrtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    s.payloadType,
			SequenceNumber: s.sequencer.NextSequenceNumber(),
			Timestamp:      timestamp,
			SSRC:           s.ssrc,
		},
		Payload: payload,
	}

	data, err := packet.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal RTP packet: %w", err)
	}

	if _, err := s.rtpConn.WriteToUDP(data, s.rtpAddr); err != nil {
		return fmt.Errorf("failed to send RTP packet: %w", err)
	}

	s.packetCount++
	s.octetCount += uint32(len(payload))
	s.lastTS = timestamp

	s.logger.Debug("RTP packet sent", "seq", packet.SequenceNumber, "ts", timestamp, "size", len(data))
	return nil
}

// WriteSenderReport sends an RTCP sender report pairing now with the last
// RTP timestamp sent.
func (s *Sender) WriteSenderReport(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSenderClosed
	}

	report := &rtcp.SenderReport{
		SSRC:        s.ssrc,
		NTPTime:     NTPTime(now),
		RTPTime:     s.lastTS,
		PacketCount: s.packetCount,
		OctetCount:  s.octetCount,
	}

	data, err := rtcp.Marshal([]rtcp.Packet{report})
	if err != nil {
		return fmt.Errorf("failed to marshal RTCP sender report: %w", err)
	}

	if _, err := s.rtcpConn.WriteToUDP(data, s.rtcpAddr); err != nil {
		return fmt.Errorf("failed to send RTCP sender report: %w", err)
	}

	s.logger.Debug("RTCP sender report sent", "packets", s.packetCount, "octets", s.octetCount)
	return nil
}

// Close closes the RTP and RTCP sockets
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := errors.Join(s.rtpConn.Close(), s.rtcpConn.Close())
	s.logger.Info("RTP sender closed", "packets", s.packetCount)
	return err
}

// NTPTime converts t to the 64-bit NTP timestamp format
func NTPTime(t time.Time) uint64 {
	// seconds between 1900-01-01 and 1970-01-01
	const ntpEpochOffset = 2208988800

	nanos := t.UnixNano()
	seconds := uint64(nanos/1e9) + ntpEpochOffset
	fraction := (uint64(nanos%1e9) << 32) / 1e9
	return seconds<<32 | fraction
}
