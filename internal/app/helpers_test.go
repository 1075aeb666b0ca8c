package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/OneVoice/internal/core"
	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store/memory"
	"github.com/google/uuid"
)

var t0 = time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC)

type fakeConn struct {
	id     core.ConnID
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: core.ConnID(id)} }

func (f *fakeConn) ID() core.ConnID { return f.id }

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) raw() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, fr := range f.frames {
		out[i] = string(fr)
	}
	return out
}

// messages decodes every received frame into a generic map.
func (f *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, s := range f.raw() {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			t.Fatalf("bad frame %q: %v", s, err)
		}
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range f.messages(t) {
		out = append(out, m["type"].(string))
	}
	return out
}

type fixture struct {
	store    *memory.Store
	registry *core.Registry
	hub      *Hub
	sessions *Sessions
	roster   *Roster
	rooms    *Rooms
	chat     *Chat
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), registry: core.NewRegistry(), clock: t0}
	f.hub = &Hub{Registry: f.registry, Policy: EvictPolicy{}}
	now := func() time.Time { return f.clock }

	f.sessions = NewSessions(f.store, f.hub, nil, nil, nil)
	f.sessions.Now = now
	f.roster = NewRoster(f.store, f.hub)
	f.roster.Now = now
	f.rooms = NewRooms(f.store)
	f.rooms.Now = now
	f.chat = NewChat(f.store, f.hub)
	f.chat.Now = now
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func user(name string) domain.Identity {
	return domain.Identity{UserID: uuid.New(), FullName: name}
}

func (f *fixture) room(t *testing.T, owner domain.Identity) *domain.Room {
	t.Helper()
	r, err := f.rooms.Create(context.Background(), owner, "Weekly sync", false)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// liveSession starts a session owned and hosted by owner.
func (f *fixture) liveSession(t *testing.T, owner domain.Identity) *domain.Session {
	t.Helper()
	s, err := f.sessions.StartNow(context.Background(), owner, f.room(t, owner).ID)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// emptyLiveSession has no participant rows at all.
func (f *fixture) emptyLiveSession(t *testing.T) *domain.Session {
	t.Helper()
	s := domain.NewLiveSession(uuid.New(), t0)
	if err := f.store.CreateSession(context.Background(), s, nil); err != nil {
		t.Fatal(err)
	}
	return s
}

// listen registers a fake connection in the session's room.
func (f *fixture) listen(roomID uuid.UUID, name string) *fakeConn {
	c := newFakeConn(name)
	f.hub.Connect(roomID, c, user(name))
	return c
}
