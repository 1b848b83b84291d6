package rtsp

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Lower transports
const (
	TransportRTP    = "RTP/AVP"
	TransportRTPUDP = "RTP/AVP/UDP"
	TransportRTPTCP = "RTP/AVP/TCP"
)

// Transport parameters
const (
	ParamUnicast    = "unicast"
	ParamClientPort = "client_port"
	ParamServerPort = "server_port"
	ParamSource     = "source"
)

// PortPair is an RTP/RTCP port pair, rendered "<rtp>-<rtcp>"
type PortPair struct {
	RTP  int
	RTCP int
}

// NewPortPair returns the pair (port, port+1)
func NewPortPair(rtpPort int) PortPair {
	return PortPair{RTP: rtpPort, RTCP: rtpPort + 1}
}

func (p PortPair) String() string {
	return fmt.Sprintf("%d-%d", p.RTP, p.RTCP)
}

// ParsePortPair parses "<rtp>-<rtcp>"
func ParsePortPair(s string) (PortPair, error) {
	rtp, rtcp, ok := strings.Cut(s, "-")
	if !ok {
		return PortPair{}, fmt.Errorf("%w: %q", ErrNotPortPair, s)
	}

	rtpPort, err := strconv.Atoi(rtp)
	if err != nil {
		return PortPair{}, fmt.Errorf("%w: %q: %w", ErrNotPortPair, s, err)
	}
	rtcpPort, err := strconv.Atoi(rtcp)
	if err != nil {
		return PortPair{}, fmt.Errorf("%w: %q: %w", ErrNotPortPair, s, err)
	}

	return PortPair{RTP: rtpPort, RTCP: rtcpPort}, nil
}

type transportParam struct {
	value    string
	hasValue bool
}

// Transport is the parameter set of a Transport header. The lower transport
// is always RTP over UDP.
type Transport struct {
	params map[string]transportParam
}

// NewTransport creates an empty RTP/AVP/UDP transport
func NewTransport() *Transport {
	return &Transport{params: make(map[string]transportParam)}
}

// ParseTransport parses a Transport header value. Both RTP/AVP and
// RTP/AVP/UDP are accepted; RTP/AVP/TCP is not supported.
func ParseTransport(s string) (*Transport, error) {
	tokens := strings.Split(s, ";")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	switch tokens[0] {
	case TransportRTP, TransportRTPUDP:
	case TransportRTPTCP:
		return nil, fmt.Errorf("%w: RTP over TCP: %q", ErrUnsupportedTransport, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransport, s)
	}

	t := NewTransport()
	for _, token := range tokens[1:] {
		if token == "" {
			continue
		}
		if key, value, ok := strings.Cut(token, "="); ok {
			t.Set(key, value)
		} else {
			t.SetFlag(token)
		}
	}

	return t, nil
}

// String renders the header value, lower transport first
func (t *Transport) String() string {
	var sb strings.Builder
	sb.WriteString(TransportRTPUDP)

	for _, key := range slices.Sorted(maps.Keys(t.params)) {
		sb.WriteByte(';')
		sb.WriteString(key)
		if p := t.params[key]; p.hasValue {
			sb.WriteByte('=')
			sb.WriteString(p.value)
		}
	}

	return sb.String()
}

// Has reports whether the parameter is present, as a flag or a pair
func (t *Transport) Has(key string) bool {
	_, ok := t.params[key]
	return ok
}

// Value returns the value of a key=value parameter. Flags report false.
func (t *Transport) Value(key string) (string, bool) {
	p, ok := t.params[key]
	if !ok || !p.hasValue {
		return "", false
	}
	return p.value, true
}

// Set stores a key=value parameter
func (t *Transport) Set(key, value string) {
	t.params[key] = transportParam{value: value, hasValue: true}
}

// SetFlag stores a bare flag parameter
func (t *Transport) SetFlag(key string) {
	t.params[key] = transportParam{}
}

func (t *Transport) IsUnicast() bool {
	return t.Has(ParamUnicast)
}

func (t *Transport) SetUnicast() {
	t.SetFlag(ParamUnicast)
}

func (t *Transport) portPair(key string) (PortPair, error) {
	v, ok := t.Value(key)
	if !ok {
		return PortPair{}, fmt.Errorf("%w: no %s parameter", ErrNotPortPair, key)
	}
	return ParsePortPair(v)
}

// ClientPorts returns the client_port pair
func (t *Transport) ClientPorts() (PortPair, error) {
	return t.portPair(ParamClientPort)
}

// ServerPorts returns the server_port pair
func (t *Transport) ServerPorts() (PortPair, error) {
	return t.portPair(ParamServerPort)
}

// SetClientPorts sets client_port to the given pair
func (t *Transport) SetClientPorts(p PortPair) {
	t.Set(ParamClientPort, p.String())
}

// SetServerPorts sets server_port to the given pair
func (t *Transport) SetServerPorts(p PortPair) {
	t.Set(ParamServerPort, p.String())
}

// SetClientRTPPort sets client_port to (port, port+1)
func (t *Transport) SetClientRTPPort(port int) {
	t.SetClientPorts(NewPortPair(port))
}

// SetServerRTPPort sets server_port to (port, port+1)
func (t *Transport) SetServerRTPPort(port int) {
	t.SetServerPorts(NewPortPair(port))
}

// Source returns the source host, if any
func (t *Transport) Source() (string, bool) {
	return t.Value(ParamSource)
}

func (t *Transport) SetSource(host string) {
	t.Set(ParamSource, host)
}
