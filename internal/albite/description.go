package albite

import (
	"fmt"
	"time"

	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
	"github.com/pion/sdp/v3"
)

// encodingName returns the rtpmap encoding for the payload types we know
func encodingName(payloadType uint8) string {
	switch payloadType {
	case rtp.PayloadTypeMP2T:
		return "MP2T"
	case rtp.PayloadTypeH264:
		return "H264"
	default:
		return fmt.Sprintf("PT%d", payloadType)
	}
}

// buildDescription builds the SDP returned for DESCRIBE
func buildDescription(media MediaConfig, host string) ([]byte, error) {
	if host == "" {
		host = "0.0.0.0"
	}
	version := uint64(time.Now().Unix())

	video := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:  "video",
			Port:   sdp.RangedPort{Value: 0},
			Protos: []string{"RTP", "AVP"},
		},
	}
	video = video.WithCodec(media.PayloadType, encodingName(media.PayloadType), media.ClockRate, 0, "")

	description := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      version,
			SessionVersion: version,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: host,
		},
		SessionName: sdp.SessionName(media.SessionName),
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: host},
		},
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*sdp.MediaDescription{video},
	}

	data, err := description.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session description: %w", err)
	}
	return data, nil
}
