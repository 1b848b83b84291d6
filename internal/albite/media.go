package albite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
	"github.com/pion/randutil"
)

// rtpTimestamp converts elapsed time to RTP clock ticks from base
func rtpTimestamp(base uint32, elapsed time.Duration, clockRate uint32) uint32 {
	ticks := uint64(elapsed) * uint64(clockRate) / uint64(time.Second)
	return base + uint32(ticks)
}

// pumpMedia streams the media file to the sender until EOF or ctx is done
func pumpMedia(ctx context.Context, sender *rtp.Sender, media MediaConfig, logger *slog.Logger) {
	file, err := os.Open(media.File)
	if err != nil {
		logger.Error("Failed to open media file", "file", media.File, "err", err)
		return
	}
	defer file.Close()

	packetTicker := time.NewTicker(media.PacketInterval)
	defer packetTicker.Stop()
	reportTicker := time.NewTicker(media.ReportInterval)
	defer reportTicker.Stop()

	base := randutil.NewMathRandomGenerator().Uint32()
	start := time.Now()
	buf := make([]byte, media.PacketSize)
	sent := 0

	logger.Info("Media pump started", "file", media.File)
	defer func() {
		logger.Info("Media pump stopped", "packets", sent)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-reportTicker.C:
			if err := sender.WriteSenderReport(now); err != nil {
				logger.Warn("Failed to send sender report", "err", err)
			}

		case now := <-packetTicker.C:
			n, err := io.ReadFull(file, buf)
			if n > 0 {
				ts := rtpTimestamp(base, now.Sub(start), sender.ClockRate())
				if err := sender.WritePayload(buf[:n], ts, false); err != nil {
					logger.Warn("Failed to send RTP packet", "err", err)
					if errors.Is(err, rtp.ErrSenderClosed) {
						return
					}
				} else {
					sent++
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					logger.Error("Failed to read media file", "err", err)
				}
				// 마지막 리포트로 전송 통계를 알림
				if err := sender.WriteSenderReport(now); err != nil {
					logger.Warn("Failed to send sender report", "err", err)
				}
				return
			}
		}
	}
}
