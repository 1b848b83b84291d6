package rtsp

import "net/url"

// Handler is implemented by the application serving media. Any method may
// fail; returning a *StatusError selects the response status, every other
// error becomes 500 Internal Server Error.
type Handler interface {
	// OnRequestError is called for every request that could not be
	// answered with a success response.
	OnRequestError(err error)

	// OnRequestDescription returns the description body for DESCRIBE.
	// accept is nil when the client did not state acceptable types.
	OnRequestDescription(accept []string) ([]byte, error)

	// CreateSession mints a session id for a SETUP without one
	CreateSession() string

	// OnSetupUnicast prepares unicast delivery to the client ports and
	// returns the server's RTP and RTCP ports.
	OnSetupUnicast(session string, uri *url.URL, clientRTPPort, clientRTCPPort int) (serverRTPPort, serverRTCPPort int, err error)

	OnPlay(session string, uri *url.URL) error

	OnTeardown(session string) error
}
