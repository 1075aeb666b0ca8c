// Package signal serves the signaling websocket: admission, the per
// connection read and write loops, and hand-off to the hub.
package signal

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/OneVoice/internal/app"
	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type SignalWSController struct {
	Hub       *app.Hub
	Admission *app.Admission
	// Identify returns the caller vouched for by the identity middleware.
	Identify func(c *gin.Context) (domain.Identity, bool)

	ReadLimit    int64
	WriteTimeout time.Duration
	SendBuffer   int
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades first and only then checks identity and room, so a
// refused client sees close code 1008 rather than a bare HTTP error.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	who, authed := ctl.Identify(c)
	roomID, parseErr := uuid.Parse(c.Param("room_id"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	if !authed {
		ctl.reject(ws, "authentication required")
		return
	}
	if parseErr != nil {
		ctl.reject(ws, "room not found")
		return
	}
	if err := ctl.Admission.Admit(c.Request.Context(), who, roomID); err != nil {
		log.Info().Str("module", "signal").Str("room", roomID.String()).Err(err).Msg("admission refused")
		ctl.reject(ws, "room not found")
		return
	}

	ws.SetReadLimit(ctl.ReadLimit)
	conn := newWsSignalConn(ws, ctl.SendBuffer)
	ctl.Hub.Connect(roomID, conn, who)

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go ctl.readPump(cancel, roomID, who, conn)
}

func (ctl *SignalWSController) reject(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.writeTimeout())); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("close frame")
	}
	_ = ws.Close()
}

func (ctl *SignalWSController) writeTimeout() time.Duration {
	if ctl.WriteTimeout <= 0 {
		return 5 * time.Second
	}
	return ctl.WriteTimeout
}
