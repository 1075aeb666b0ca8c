// Package core tracks live signaling connections grouped by room.
package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type RoomInfo struct {
	RoomID      uuid.UUID `json:"room_id"`
	Connections int       `json:"connections"`
}

// Registry maps rooms to their live connections. The top-level lock only
// guards the shard map; empty shards are dropped on the last disconnect.
// A separate liveness set holds every connection regardless of room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*room

	liveMu sync.Mutex
	live   map[ConnID]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[uuid.UUID]*room),
		live:  make(map[ConnID]Conn),
	}
}

// Connect adds c to roomID. Duplicate users are allowed; identity is the
// connection, not the user.
func (r *Registry) Connect(roomID uuid.UUID, c Conn) {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	if ok {
		rm.add(c)
		r.mu.RUnlock()
	} else {
		r.mu.RUnlock()
		r.mu.Lock()
		if rm, ok = r.rooms[roomID]; !ok {
			rm = newRoom(roomID)
			r.rooms[roomID] = rm
		}
		rm.add(c)
		r.mu.Unlock()
	}

	r.liveMu.Lock()
	r.live[c.ID()] = c
	r.liveMu.Unlock()
	log.Debug().Str("module", "core.registry").Str("conn", string(c.ID())).Str("room", roomID.String()).Msg("connected")
}

// Disconnect removes c from roomID and from the liveness set. It reports
// whether c was actually registered in that room, so callers can run
// their departure side effects exactly once.
func (r *Registry) Disconnect(roomID uuid.UUID, c Conn) bool {
	r.liveMu.Lock()
	if cur, ok := r.live[c.ID()]; ok && cur == c {
		delete(r.live, c.ID())
	}
	r.liveMu.Unlock()

	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	removed, empty := rm.remove(c)
	if empty {
		r.mu.Lock()
		// re-check: a Connect may have landed between the two locks
		if cur, ok := r.rooms[roomID]; ok && cur == rm && rm.size() == 0 {
			delete(r.rooms, roomID)
		}
		r.mu.Unlock()
	}
	if removed {
		log.Debug().Str("module", "core.registry").Str("conn", string(c.ID())).Str("room", roomID.String()).Msg("disconnected")
	}
	return removed
}

// Broadcast offers data to every connection in roomID except exclude.
// Pass an empty exclude to reach everyone.
func (r *Registry) Broadcast(roomID uuid.UUID, data Frame, exclude ConnID) PublishResult {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return PublishResult{}
	}
	res := rm.broadcast(data, exclude)
	log.Debug().Str("module", "core.registry").Str("room", roomID.String()).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *Registry) Snapshot(roomID uuid.UUID) []Conn {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return rm.snapshot()
}

func (r *Registry) RoomSize(roomID uuid.UUID) int {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return rm.size()
}

func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, rm := range r.rooms {
		out = append(out, RoomInfo{RoomID: id, Connections: rm.size()})
	}
	return out
}

// Live returns a snapshot of every registered connection.
func (r *Registry) Live() []Conn {
	r.liveMu.Lock()
	defer r.liveMu.Unlock()
	out := make([]Conn, 0, len(r.live))
	for _, c := range r.live {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.liveMu.Lock()
	defer r.liveMu.Unlock()
	return len(r.live)
}
