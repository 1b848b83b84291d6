package rtsp

import "fmt"

// Kind is the coarse classification of a status code.
type Kind int

const (
	KindInformational Kind = iota + 1
	KindSuccess
	KindRedirection
	KindClientError
	KindServerError
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInformational:
		return "Informational"
	case KindSuccess:
		return "Success"
	case KindRedirection:
		return "Redirection"
	case KindClientError:
		return "Client Error"
	case KindServerError:
		return "Server Error"
	default:
		return "Unknown"
	}
}

// Status is a response status code with its reason phrase. The kind is
// derived from the code once, at construction.
type Status struct {
	code   int
	phrase string
	kind   Kind
}

// NewStatus creates a status for an arbitrary code and phrase. Codes outside
// [100, 599] are rejected.
func NewStatus(code int, phrase string) (Status, error) {
	kind, err := kindOf(code)
	if err != nil {
		return Status{}, err
	}
	return Status{code: code, phrase: phrase, kind: kind}, nil
}

func kindOf(code int) (Kind, error) {
	switch {
	case code >= 100 && code < 200:
		return KindInformational, nil
	case code >= 200 && code < 300:
		return KindSuccess, nil
	case code >= 300 && code < 400:
		return KindRedirection, nil
	case code >= 400 && code < 500:
		return KindClientError, nil
	case code >= 500 && code < 600:
		return KindServerError, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidStatusCode, code)
	}
}

func knownStatus(code int, phrase string) Status {
	s, err := NewStatus(code, phrase)
	if err != nil {
		panic(err)
	}
	statusTable[code] = s
	return s
}

var statusTable = make(map[int]Status)

// RTSP Status Codes
var (
	StatusContinue                       = knownStatus(100, "Continue")
	StatusOK                             = knownStatus(200, "OK")
	StatusCreated                        = knownStatus(201, "Created")
	StatusLowOnStorageSpace              = knownStatus(250, "Low on Storage Space")
	StatusMultipleChoices                = knownStatus(300, "Multiple Choices")
	StatusMovedPermanently               = knownStatus(301, "Moved Permanently")
	StatusMovedTemporarily               = knownStatus(302, "Moved Temporarily")
	StatusSeeOther                       = knownStatus(303, "See Other")
	StatusNotModified                    = knownStatus(304, "Not Modified")
	StatusUseProxy                       = knownStatus(305, "Use Proxy")
	StatusBadRequest                     = knownStatus(400, "Bad Request")
	StatusUnauthorized                   = knownStatus(401, "Unauthorized")
	StatusPaymentRequired                = knownStatus(402, "Payment Required")
	StatusForbidden                      = knownStatus(403, "Forbidden")
	StatusNotFound                       = knownStatus(404, "Not Found")
	StatusMethodNotAllowed               = knownStatus(405, "Method Not Allowed")
	StatusNotAcceptable                  = knownStatus(406, "Not Acceptable")
	StatusProxyAuthRequired              = knownStatus(407, "Proxy Authentication Required")
	StatusRequestTimeout                 = knownStatus(408, "Request Time-out")
	StatusGone                           = knownStatus(410, "Gone")
	StatusLengthRequired                 = knownStatus(411, "Length Required")
	StatusPreconditionFailed             = knownStatus(412, "Precondition Failed")
	StatusRequestEntityTooLarge          = knownStatus(413, "Request Entity Too Large")
	StatusRequestURITooLarge             = knownStatus(414, "Request-URI Too Large")
	StatusUnsupportedMediaType           = knownStatus(415, "Unsupported Media Type")
	StatusParameterNotUnderstood         = knownStatus(451, "Parameter Not Understood")
	StatusConferenceNotFound             = knownStatus(452, "Conference Not Found")
	StatusNotEnoughBandwidth             = knownStatus(453, "Not Enough Bandwidth")
	StatusSessionNotFound                = knownStatus(454, "Session Not Found")
	StatusMethodNotValidInThisState      = knownStatus(455, "Method Not Valid in This State")
	StatusHeaderFieldNotValidForResource = knownStatus(456, "Header Field Not Valid for Resource")
	StatusInvalidRange                   = knownStatus(457, "Invalid Range")
	StatusParameterIsReadOnly            = knownStatus(458, "Parameter Is Read-Only")
	StatusAggregateOperationNotAllowed   = knownStatus(459, "Aggregate operation not allowed")
	StatusOnlyAggregateOperationAllowed  = knownStatus(460, "Only aggregate operation allowed")
	StatusUnsupportedTransport           = knownStatus(461, "Unsupported transport")
	StatusDestinationUnreachable         = knownStatus(462, "Destination unreachable")
	StatusInternalServerError            = knownStatus(500, "Internal Server Error")
	StatusNotImplemented                 = knownStatus(501, "Not Implemented")
	StatusBadGateway                     = knownStatus(502, "Bad Gateway")
	StatusServiceUnavailable             = knownStatus(503, "Service Unavailable")
	StatusGatewayTimeout                 = knownStatus(504, "Gateway Time-out")
	StatusRTSPVersionNotSupported        = knownStatus(505, "RTSP Version not supported")
	StatusOptionNotSupported             = knownStatus(551, "Option not supported")
)

// StatusText returns the standard reason phrase for a code, or "" when the
// code is not in the catalog.
func StatusText(code int) string {
	return statusTable[code].phrase
}

// Code returns the 3-digit status code
func (s Status) Code() int { return s.code }

// Phrase returns the reason phrase
func (s Status) Phrase() string { return s.phrase }

// Kind returns the classification derived from the code
func (s Status) Kind() Kind { return s.kind }

// IsSuccess reports whether the status is a 2xx
func (s Status) IsSuccess() bool { return s.kind == KindSuccess }

// String returns the status line, e.g. "RTSP/1.0 200 OK"
func (s Status) String() string {
	return fmt.Sprintf("%s %d %s", Version, s.code, s.phrase)
}
