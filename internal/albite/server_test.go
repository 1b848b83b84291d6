package albite

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
	"github.com/dumbledore/AlbiteRTSP/pkg/rtsp"
	pionrtp "github.com/pion/rtp"
	"github.com/pion/sdp/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPacketSize = 188

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mediaFixture returns a file of three packets, each filled with its index
func mediaFixture(t *testing.T) (string, []byte) {
	t.Helper()
	var content []byte
	for i := 0; i < 3; i++ {
		content = append(content, bytes.Repeat([]byte{byte(i + 1)}, testPacketSize)...)
	}
	path := filepath.Join(t.TempDir(), "sample.ts")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path, content
}

func testConfig(file string) *Config {
	config := DefaultConfig()
	config.RTSP.Host = "127.0.0.1"
	config.RTSP.Port = 0
	config.RTSP.AcceptTimeout = 50 * time.Millisecond
	config.RTSP.CloseDelay = -1
	config.RTSP.ServerName = "albite-test"
	config.Media.File = file
	config.Media.PacketSize = testPacketSize
	config.Media.PacketInterval = 5 * time.Millisecond
	config.Media.ReportInterval = 20 * time.Millisecond
	return config
}

func newTestServer(t *testing.T, config *Config) *Server {
	t.Helper()
	server, err := NewServer(config, discardLogger())
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func newTestClient(t *testing.T, server *Server) *rtsp.Client {
	t.Helper()
	client, err := rtsp.NewClient("rtsp://"+server.Addr().String()+"/stream",
		rtsp.WithLogger(discardLogger()),
		rtsp.WithConnectTimeout(time.Second),
		rtsp.WithReadTimeout(2*time.Second),
	)
	require.NoError(t, err)
	return client
}

func TestServerSession(t *testing.T) {
	file, content := mediaFixture(t)
	server := newTestServer(t, testConfig(file))
	client := newTestClient(t, server)

	methods, err := client.Options()
	require.NoError(t, err)
	assert.Contains(t, methods, rtsp.MethodPlay)

	raw, err := client.DescribeSDP()
	require.NoError(t, err)
	var description sdp.SessionDescription
	require.NoError(t, description.Unmarshal([]byte(raw)))
	assert.Equal(t, sdp.SessionName("Albite Stream"), description.SessionName)
	codec, err := description.GetCodecForPayloadType(rtp.PayloadTypeMP2T)
	require.NoError(t, err)
	assert.Equal(t, "MP2T", codec.Name)
	assert.Equal(t, uint32(rtp.DefaultClockRate), codec.ClockRate)

	media, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer media.Close()

	transport, err := client.RTPUnicastSetup(media.LocalAddr().(*net.UDPAddr).Port)
	require.NoError(t, err)
	serverPorts, err := transport.ServerPorts()
	require.NoError(t, err)
	assert.NotZero(t, serverPorts.RTP)

	session, ok := client.Session()
	require.True(t, ok)
	assert.Equal(t, 1, server.sessions.count())

	require.NoError(t, client.Play())

	// packets arrive in file order
	buf := make([]byte, rtp.MaxRTPPacketSize)
	for i := 0; i < 3; i++ {
		require.NoError(t, media.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, from, err := media.ReadFromUDP(buf)
		require.NoError(t, err)
		assert.Equal(t, serverPorts.RTP, from.Port)

		var packet pionrtp.Packet
		require.NoError(t, packet.Unmarshal(buf[:n]))
		assert.Equal(t, uint8(rtp.PayloadTypeMP2T), packet.PayloadType)
		assert.Equal(t, content[i*testPacketSize:(i+1)*testPacketSize], packet.Payload)
	}

	require.NoError(t, client.Close())
	_, ok = server.sessions.get(session)
	assert.False(t, ok)

	// the session is gone
	status, ok := rtsp.StatusOf(client.Play())
	require.True(t, ok)
	assert.Equal(t, rtsp.StatusSessionNotFound.Code(), status.Code())
}

func TestServerDescribeNotAcceptable(t *testing.T) {
	file, _ := mediaFixture(t)
	server := newTestServer(t, testConfig(file))
	client := newTestClient(t, server)

	_, err := client.Describe([]string{"text/html"})
	status, ok := rtsp.StatusOf(err)
	require.True(t, ok, "expected a status error, got %v", err)
	assert.Equal(t, rtsp.StatusNotAcceptable.Code(), status.Code())

	response, err := client.Describe([]string{"text/html", "application/sdp;q=0.5"})
	require.NoError(t, err)
	assert.NotEmpty(t, response.Body)
}

func TestServerUnknownSession(t *testing.T) {
	file, _ := mediaFixture(t)
	server := newTestServer(t, testConfig(file))

	err := server.OnPlay("missing", nil)
	status, ok := rtsp.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, rtsp.StatusSessionNotFound.Code(), status.Code())

	status, ok = rtsp.StatusOf(server.OnTeardown("missing"))
	require.True(t, ok)
	assert.Equal(t, rtsp.StatusSessionNotFound.Code(), status.Code())
}

func TestServerRepeatedSetupReplacesSender(t *testing.T) {
	file, _ := mediaFixture(t)
	server := newTestServer(t, testConfig(file))

	session := server.CreateSession()
	_, _, err := server.OnSetupUnicast(session, nil, 5000, 5001)
	require.NoError(t, err)
	first, ok := server.sessions.get(session)
	require.True(t, ok)

	_, _, err = server.OnSetupUnicast(session, nil, 5002, 5003)
	require.NoError(t, err)
	second, ok := server.sessions.get(session)
	require.True(t, ok)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, server.sessions.count())
	assert.ErrorIs(t, first.sender.WritePayload([]byte{1}, 0, false), rtp.ErrSenderClosed)
}

func TestServerSetupFixedPortInUse(t *testing.T) {
	file, _ := mediaFixture(t)
	taken, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer taken.Close()

	config := testConfig(file)
	config.Media.ServerRTPPort = taken.LocalAddr().(*net.UDPAddr).Port
	server := newTestServer(t, config)

	_, _, err = server.OnSetupUnicast(server.CreateSession(), nil, 5000, 5001)
	status, ok := rtsp.StatusOf(err)
	require.True(t, ok, "expected a status error, got %v", err)
	assert.Equal(t, rtsp.StatusServiceUnavailable.Code(), status.Code())
	assert.Equal(t, 0, server.sessions.count())
}

func TestServerStopReleasesSessions(t *testing.T) {
	file, _ := mediaFixture(t)
	server, err := NewServer(testConfig(file), discardLogger())
	require.NoError(t, err)
	require.NoError(t, server.Start())

	session := server.CreateSession()
	_, _, err = server.OnSetupUnicast(session, nil, 5000, 5001)
	require.NoError(t, err)
	require.NoError(t, server.OnPlay(session, nil))
	media, _ := server.sessions.get(session)

	server.Stop()
	assert.Equal(t, 0, server.sessions.count())
	assert.ErrorIs(t, media.sender.WriteSenderReport(time.Now()), rtp.ErrSenderClosed)
}

func TestServerStartWithoutMedia(t *testing.T) {
	server, err := NewServer(testConfig(filepath.Join(t.TempDir(), "missing.ts")), discardLogger())
	require.NoError(t, err)
	assert.Error(t, server.Start())
}

func TestCreateSessionUnique(t *testing.T) {
	server := &Server{}
	assert.NotEqual(t, server.CreateSession(), server.CreateSession())
}

func TestRTPTimestamp(t *testing.T) {
	assert.Equal(t, uint32(100), rtpTimestamp(100, 0, 90000))
	assert.Equal(t, uint32(90100), rtpTimestamp(100, time.Second, 90000))
	assert.Equal(t, uint32(4), rtpTimestamp(^uint32(0)-4, 100*time.Microsecond, 90000))
}
