package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// LivenessMonitor pings every connection on a fixed period. There is no ack
// tracking; a failed send is the only signal of a dead peer.
type LivenessMonitor struct {
	Hub    *Hub
	Period time.Duration
}

func (m *LivenessMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Period)
	defer ticker.Stop()
	log.Info().Str("module", "app.liveness").Dur("period", m.Period).Msg("liveness monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.liveness").Msg("liveness monitor stopped")
			return nil
		case <-ticker.C:
			sent, evicted := m.Hub.PingAll()
			log.Debug().Str("module", "app.liveness").Int("sent", sent).Int("evicted", evicted).Msg("heartbeat")
		}
	}
}
