package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransport(t *testing.T) {
	transport, err := ParseTransport("RTP/AVP;unicast;client_port=5000-5001")
	require.NoError(t, err)

	assert.True(t, transport.IsUnicast())
	ports, err := transport.ClientPorts()
	require.NoError(t, err)
	assert.Equal(t, PortPair{RTP: 5000, RTCP: 5001}, ports)

	_, err = transport.ServerPorts()
	assert.ErrorIs(t, err, ErrNotPortPair)

	_, ok := transport.Source()
	assert.False(t, ok)
}

func TestParseTransportLowerTransports(t *testing.T) {
	_, err := ParseTransport("RTP/AVP/UDP ; unicast ; client_port=5000-5001")
	assert.NoError(t, err)

	_, err = ParseTransport("RTP/AVP")
	assert.NoError(t, err)

	_, err = ParseTransport("RTP/AVP/TCP;unicast;interleaved=0-1")
	assert.ErrorIs(t, err, ErrUnsupportedTransport)

	for _, s := range []string{"", "RAW/RAW/UDP;unicast", "unicast;RTP/AVP", "rtp/avp"} {
		_, err = ParseTransport(s)
		assert.ErrorIs(t, err, ErrInvalidTransport, s)
	}
}

func TestTransportRoundTrip(t *testing.T) {
	transport := NewTransport()
	transport.SetUnicast()
	transport.SetClientRTPPort(5000)
	transport.SetServerPorts(PortPair{RTP: 6000, RTCP: 6003})
	transport.SetSource("192.168.1.10")
	transport.SetFlag("append")

	s := transport.String()
	assert.Equal(t, "RTP/AVP/UDP;append;client_port=5000-5001;server_port=6000-6003;source=192.168.1.10;unicast", s)

	parsed, err := ParseTransport(s)
	require.NoError(t, err)

	assert.True(t, parsed.IsUnicast())
	clientPorts, err := parsed.ClientPorts()
	require.NoError(t, err)
	assert.Equal(t, PortPair{RTP: 5000, RTCP: 5001}, clientPorts)
	serverPorts, err := parsed.ServerPorts()
	require.NoError(t, err)
	assert.Equal(t, PortPair{RTP: 6000, RTCP: 6003}, serverPorts)
	source, ok := parsed.Source()
	assert.True(t, ok)
	assert.Equal(t, "192.168.1.10", source)
	assert.Equal(t, s, parsed.String())
}

func TestTransportFlagsAndPairs(t *testing.T) {
	transport, err := ParseTransport("RTP/AVP;multicast;ttl=16;ttl=127;mode")
	require.NoError(t, err)

	assert.False(t, transport.IsUnicast())
	assert.True(t, transport.Has("multicast"))
	_, ok := transport.Value("multicast")
	assert.False(t, ok, "flags carry no value")

	ttl, ok := transport.Value("ttl")
	assert.True(t, ok)
	assert.Equal(t, "127", ttl, "last occurrence wins")

	assert.Equal(t, "RTP/AVP/UDP;mode;multicast;ttl=127", transport.String())
}

func TestTransportMalformedPortPair(t *testing.T) {
	transport, err := ParseTransport("RTP/AVP;unicast;client_port=5000")
	require.NoError(t, err)

	_, err = transport.ClientPorts()
	assert.ErrorIs(t, err, ErrNotPortPair)

	transport.Set(ParamClientPort, "a-b")
	_, err = transport.ClientPorts()
	assert.ErrorIs(t, err, ErrNotPortPair)

	transport.SetFlag(ParamClientPort)
	_, err = transport.ClientPorts()
	assert.ErrorIs(t, err, ErrNotPortPair)
}

func TestPortPair(t *testing.T) {
	assert.Equal(t, PortPair{RTP: 1234, RTCP: 1235}, NewPortPair(1234))
	assert.Equal(t, "1234-1235", NewPortPair(1234).String())

	pair, err := ParsePortPair("7000-7001")
	require.NoError(t, err)
	assert.Equal(t, PortPair{RTP: 7000, RTCP: 7001}, pair)

	_, err = ParsePortPair("7000")
	assert.ErrorIs(t, err, ErrNotPortPair)
}
