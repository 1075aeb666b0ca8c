package signal

import (
	"context"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout())); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the disconnect path: it runs exactly once, whatever closed
// the socket.
func (ctl *SignalWSController) readPump(cancel context.CancelFunc, roomID uuid.UUID, who domain.Identity, c *WsSignalConn) {
	defer func() {
		ctl.Hub.Disconnect(roomID, c, who)
		c.Close()
		cancel()
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closed")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		ctl.Hub.HandleInbound(roomID, c, who, data)
	}
}
