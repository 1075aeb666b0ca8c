package app

import (
	"encoding/json"

	"github.com/dkeye/OneVoice/internal/core"
	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/metrics"
	"github.com/dkeye/OneVoice/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub applies the signaling protocol on top of the registry: it decides
// what an inbound frame means and who receives it. It never touches the
// store, so a disconnect cannot change roster or session state.
type Hub struct {
	Registry *core.Registry
	Policy   Policy
	Chat     *RateLimiter
	Metrics  *metrics.Metrics
}

func (h *Hub) Connect(roomID uuid.UUID, conn core.Conn, who domain.Identity) {
	h.Registry.Connect(roomID, conn)
	h.Metrics.IncConnects()
	log.Info().Str("module", "app.hub").Str("conn", string(conn.ID())).Str("room", roomID.String()).Str("user", who.UserID.String()).Msg("joined signaling")
}

// Disconnect removes conn and tells the room. Repeated calls are no-ops.
func (h *Hub) Disconnect(roomID uuid.UUID, conn core.Conn, who domain.Identity) {
	if !h.Registry.Disconnect(roomID, conn) {
		return
	}
	log.Info().Str("module", "app.hub").Str("conn", string(conn.ID())).Str("room", roomID.String()).Str("user", who.UserID.String()).Msg("left signaling")
	h.broadcast(roomID, protocol.UserLeft{Type: protocol.TypeUserLeft, UserID: who.UserID.String()}, "")
}

// NotifyRoom delivers a server event to everyone in the room.
func (h *Hub) NotifyRoom(roomID uuid.UUID, v any) {
	h.broadcast(roomID, v, "")
}

// HandleInbound processes one frame read from conn. Bad input is dropped;
// the connection stays open.
func (h *Hub) HandleInbound(roomID uuid.UUID, conn core.Conn, who domain.Identity, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		h.Metrics.IncInbound("malformed")
		log.Debug().Str("module", "app.hub").Str("conn", string(conn.ID())).Msg("dropped malformed frame")
		return
	}

	switch {
	case env.Type == protocol.TypeChatMessage:
		h.relayChat(roomID, conn, who, data)
	case env.Type.Relayed():
		h.Metrics.IncInbound("relayed")
		h.publish(roomID, core.Frame(data), conn.ID())
	default:
		h.Metrics.IncInbound("ignored")
		log.Debug().Str("module", "app.hub").Str("conn", string(conn.ID())).Str("type", string(env.Type)).Msg("unknown signal type")
	}
}

func (h *Hub) relayChat(roomID uuid.UUID, conn core.Conn, who domain.Identity, data []byte) {
	var in protocol.ChatIn
	if err := json.Unmarshal(data, &in); err != nil {
		h.Metrics.IncInbound("malformed")
		return
	}
	if h.Chat != nil && !h.Chat.Allow(who.UserID) {
		h.Metrics.IncChatRateLimited()
		log.Debug().Str("module", "app.hub").Str("user", who.UserID.String()).Msg("chat rate limited")
		return
	}
	h.Metrics.IncInbound("chat")
	h.broadcast(roomID, protocol.ChatOut{
		Type:     protocol.TypeChatMessage,
		SenderID: who.UserID.String(),
		FullName: who.FullName,
		Text:     in.Text,
	}, conn.ID())
}

// PingAll offers a heartbeat to every live connection and evicts the ones
// that cannot take it. Eviction only closes; each read loop then runs its
// own disconnect path.
func (h *Hub) PingAll() (sent, evicted int) {
	for _, c := range h.Registry.Live() {
		if err := c.TrySend(protocol.PingFrame); err != nil {
			log.Info().Str("module", "app.hub").Str("conn", string(c.ID())).Err(err).Msg("heartbeat failed, closing")
			h.Metrics.IncEvictions()
			c.Close()
			evicted++
			continue
		}
		sent++
	}
	h.Metrics.SetConnections(h.Registry.Len())
	if h.Chat != nil {
		h.Chat.Prune()
	}
	return sent, evicted
}

func (h *Hub) broadcast(roomID uuid.UUID, v any, exclude core.ConnID) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Str("module", "app.hub").Err(err).Msg("encode event")
		return
	}
	h.publish(roomID, data, exclude)
}

func (h *Hub) publish(roomID uuid.UUID, data core.Frame, exclude core.ConnID) {
	res := h.Registry.Broadcast(roomID, data, exclude)
	if len(res.Dropped) == 0 {
		return
	}
	h.Metrics.AddDropped(len(res.Dropped))
	for _, slow := range res.Dropped {
		action := KickMember
		if h.Policy != nil {
			action = h.Policy.OnBackPressure(roomID, slow)
		}
		switch action {
		case KickMember:
			log.Warn().Str("module", "app.hub").Str("conn", string(slow.ID())).Str("room", roomID.String()).Msg("evicting slow connection")
			h.Metrics.IncEvictions()
			slow.Close()
		case DropFrame, NoAction:
		}
	}
}
