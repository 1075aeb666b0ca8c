// Package memory is a process-local Store used in development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
)

type participantKey struct {
	session uuid.UUID
	user    uuid.UUID
}

// Store keeps everything in maps behind one mutex. Values are copied on the
// way in and out so callers never alias stored rows.
type Store struct {
	mu           sync.Mutex
	rooms        map[uuid.UUID]domain.Room
	sessions     map[uuid.UUID]domain.Session
	participants map[participantKey]domain.Participant
	chat         map[uuid.UUID][]domain.ChatMessage

	// sessionLocks serialises WithSession per id without holding mu for
	// the whole callback.
	lockMu       sync.Mutex
	sessionLocks map[uuid.UUID]*sync.Mutex
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		rooms:        make(map[uuid.UUID]domain.Room),
		sessions:     make(map[uuid.UUID]domain.Session),
		participants: make(map[participantKey]domain.Participant),
		chat:         make(map[uuid.UUID][]domain.ChatMessage),
		sessionLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateRoom(_ context.Context, r *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = *r
	return nil
}

func (s *Store) GetRoom(_ context.Context, id uuid.UUID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetRoomByCode(_ context.Context, code string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.UniqueCode == code {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListRoomsByOwner(_ context.Context, owner uuid.UUID) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Room{}
	for _, r := range s.rooms {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteRoom(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

func (s *Store) CreateSession(_ context.Context, sess *domain.Session, host *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(*sess)
	if host != nil {
		s.participants[participantKey{sess.ID, host.UserID}] = copyParticipant(*host)
	}
	return nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copySession(sess)
	return &out, nil
}

func (s *Store) FindLiveSession(_ context.Context, roomID uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Session
	for _, sess := range s.sessions {
		if sess.RoomID != roomID || sess.Status != domain.SessionLive {
			continue
		}
		if found == nil || sess.CreatedAt.After(found.CreatedAt) {
			cp := copySession(sess)
			found = &cp
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (s *Store) ListSessionsByRoom(_ context.Context, roomID uuid.UUID) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Session{}
	for _, sess := range s.sessions {
		if sess.RoomID == roomID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListScheduledHostedBy(_ context.Context, user uuid.UUID) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Session{}
	for _, sess := range s.sessions {
		if sess.Status != domain.SessionScheduled {
			continue
		}
		if r, ok := s.rooms[sess.RoomID]; ok && r.OwnerID == user {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledStartTime.Before(*out[j].ScheduledStartTime)
	})
	return out, nil
}

func (s *Store) ListActiveParticipants(_ context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Participant{}
	for k, p := range s.participants {
		if k.session == sessionID && p.Active() {
			out = append(out, copyParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinTime.Before(out[j].JoinTime) })
	return out, nil
}

func (s *Store) GetParticipant(_ context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey{sessionID, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyParticipant(p)
	return &out, nil
}

func (s *Store) CreateChatMessage(_ context.Context, m *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat[m.SessionID] = append(s.chat[m.SessionID], *m)
	return nil
}

func (s *Store) ListChatMessages(_ context.Context, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.chat[sessionID]))
	copy(out, s.chat[sessionID])
	return out, nil
}

func (s *Store) sessionLock(id uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.sessionLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.sessionLocks[id] = l
	}
	return l
}

func (s *Store) WithSession(ctx context.Context, id uuid.UUID, fn func(tx store.SessionTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	tx := &sessionTx{session: copySession(sess), participants: make(map[uuid.UUID]domain.Participant)}
	for k, p := range s.participants {
		if k.session == id {
			tx.participants[k.user] = copyParticipant(p)
		}
	}
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = tx.session
	for user, p := range tx.participants {
		s.participants[participantKey{id, user}] = p
	}
	return nil
}

// sessionTx stages changes on private copies until commit.
type sessionTx struct {
	session      domain.Session
	participants map[uuid.UUID]domain.Participant
}

func (t *sessionTx) Session() *domain.Session {
	out := copySession(t.session)
	return &out
}

func (t *sessionTx) SaveSession(s *domain.Session) error {
	t.session = copySession(*s)
	return nil
}

func (t *sessionTx) Participant(userID uuid.UUID) (*domain.Participant, error) {
	p, ok := t.participants[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyParticipant(p)
	return &out, nil
}

func (t *sessionTx) CountActive() (int, error) {
	n := 0
	for _, p := range t.participants {
		if p.Active() {
			n++
		}
	}
	return n, nil
}

func (t *sessionTx) SaveParticipant(p *domain.Participant) error {
	t.participants[p.UserID] = copyParticipant(*p)
	return nil
}

func (t *sessionTx) ClearScreenShare() error {
	for id, p := range t.participants {
		p.IsSharingScreen = false
		t.participants[id] = p
	}
	return nil
}

func copySession(s domain.Session) domain.Session {
	s.ScheduledStartTime = copyPtr(s.ScheduledStartTime)
	s.ActualStartTime = copyPtr(s.ActualStartTime)
	s.ActualEndTime = copyPtr(s.ActualEndTime)
	if s.RecordingStatus != nil {
		st := *s.RecordingStatus
		s.RecordingStatus = &st
	}
	if s.RecordingURL != nil {
		u := *s.RecordingURL
		s.RecordingURL = &u
	}
	return s
}

func copyParticipant(p domain.Participant) domain.Participant {
	p.LeaveTime = copyPtr(p.LeaveTime)
	return p
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
