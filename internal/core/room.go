package core

import (
	"sync"

	"github.com/google/uuid"
)

// room is one shard of the registry. Its lock only guards its own set, so
// traffic in one room never waits on another.
type room struct {
	id    uuid.UUID
	mu    sync.RWMutex
	conns map[ConnID]Conn
}

func newRoom(id uuid.UUID) *room {
	return &room{id: id, conns: make(map[ConnID]Conn)}
}

func (r *room) add(c Conn) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	r.mu.Unlock()
}

// remove reports whether c was present and whether the shard is now empty.
func (r *room) remove(c Conn) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[c.ID()]; ok && cur == c {
		delete(r.conns, c.ID())
		removed = true
	}
	return removed, len(r.conns) == 0
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// broadcast never closes anything; dropped peers are returned to the caller.
func (r *room) broadcast(data Frame, exclude ConnID) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for id, c := range r.conns {
		if id == exclude {
			continue
		}
		if err := c.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, c)
			continue
		}
		res.SentTo++
	}
	return res
}

func (r *room) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
