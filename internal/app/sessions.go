package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/metrics"
	"github.com/dkeye/OneVoice/internal/protocol"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sessions drives the session state machine. Every transition runs inside
// one store transaction and peers are told after it commits.
type Sessions struct {
	base
	Events     EventPublisher
	Recordings RecordingFinalizer
	Metrics    *metrics.Metrics
}

func NewSessions(st store.Store, n Notifier, ev EventPublisher, rec RecordingFinalizer, m *metrics.Metrics) *Sessions {
	return &Sessions{
		base:       base{Store: st, Notifier: n},
		Events:     ev,
		Recordings: rec,
		Metrics:    m,
	}
}

type SessionDetail struct {
	*domain.Session
	Participants []domain.Participant `json:"participants"`
}

// StartNow opens a LIVE session in a room the caller owns.
func (s *Sessions) StartNow(ctx context.Context, who domain.Identity, roomID uuid.UUID) (*domain.Session, error) {
	room, err := s.ownedRoom(ctx, who, roomID)
	if err != nil {
		return nil, err
	}
	return s.startLive(ctx, who, room)
}

// StartInstant creates a private room for the caller and goes live in it.
func (s *Sessions) StartInstant(ctx context.Context, who domain.Identity) (*domain.Room, *domain.Session, error) {
	room := domain.NewInstantRoom(who, s.now())
	if err := s.Store.CreateRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("create instant room: %w", err)
	}
	sess, err := s.startLive(ctx, who, room)
	if err != nil {
		// the room exists only for this session
		if derr := s.Store.DeleteRoom(context.WithoutCancel(ctx), room.ID); derr != nil {
			log.Error().Str("module", "app.sessions").Str("room", room.ID.String()).Err(derr).Msg("remove orphan instant room")
		}
		return nil, nil, err
	}
	return room, sess, nil
}

func (s *Sessions) startLive(ctx context.Context, who domain.Identity, room *domain.Room) (*domain.Session, error) {
	now := s.now()
	sess := domain.NewLiveSession(room.ID, now)
	host := domain.NewParticipant(sess.ID, who, domain.RoleHost, now)
	if err := s.Store.CreateSession(ctx, sess, host); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Metrics.IncSessionEvent("start")
	log.Info().Str("module", "app.sessions").Str("session", sess.ID.String()).Str("room", room.ID.String()).Msg("session live")
	publish(ctx, s.Events, KeySessionStarted, s.event(sess, who, now))
	return sess, nil
}

func (s *Sessions) Schedule(ctx context.Context, who domain.Identity, roomID uuid.UUID, at time.Time) (*domain.Session, error) {
	room, err := s.ownedRoom(ctx, who, roomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess, err := domain.NewScheduledSession(room.ID, at, now)
	if err != nil {
		return nil, err
	}
	host := domain.NewParticipant(sess.ID, who, domain.RoleHost, now)
	if err := s.Store.CreateSession(ctx, sess, host); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Metrics.IncSessionEvent("schedule")
	log.Info().Str("module", "app.sessions").Str("session", sess.ID.String()).Time("at", *sess.ScheduledStartTime).Msg("session scheduled")
	publish(ctx, s.Events, KeySessionScheduled, s.event(sess, who, now))
	return sess, nil
}

func (s *Sessions) End(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Session, error) {
	now := s.now()
	ended, err := s.transition(ctx, who, id, func(cur *domain.Session) error { return cur.End(now) })
	if err != nil {
		return nil, err
	}
	s.Metrics.IncSessionEvent("end")
	s.notify(ended.RoomID, s.wire(protocol.TypeSessionEnded, ended))
	publish(ctx, s.Events, KeySessionEnded, s.event(ended, who, now))
	return ended, nil
}

func (s *Sessions) Cancel(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Session, error) {
	now := s.now()
	cancelled, err := s.transition(ctx, who, id, func(cur *domain.Session) error { return cur.Cancel(now) })
	if err != nil {
		return nil, err
	}
	s.Metrics.IncSessionEvent("cancel")
	s.notify(cancelled.RoomID, s.wire(protocol.TypeSessionCancelled, cancelled))
	publish(ctx, s.Events, KeySessionCancelled, s.event(cancelled, who, now))
	return cancelled, nil
}

func (s *Sessions) StartRecording(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Session, error) {
	now := s.now()
	sess, err := s.transition(ctx, who, id, func(cur *domain.Session) error { return cur.StartRecording(now) })
	if err != nil {
		return nil, err
	}
	s.notify(sess.RoomID, s.wire(protocol.TypeRecordingStarted, sess))
	return sess, nil
}

// StopRecording asks the finalizer for the artifact location and publishes it.
func (s *Sessions) StopRecording(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Session, error) {
	if err := s.checkHost(ctx, who, id); err != nil {
		return nil, err
	}
	url, err := s.finalizer().Finalize(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finalize recording: %w", err)
	}
	now := s.now()
	sess, err := s.transition(ctx, who, id, func(cur *domain.Session) error {
		cur.StopRecording(url, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(sess.RoomID, s.wire(protocol.TypeRecordingStopped, sess))
	publish(ctx, s.Events, KeyRecordingMerge, RecordingMergeMessage{JobID: uuid.New(), LiveSessionID: sess.ID})
	return sess, nil
}

// Detail is visible to any authenticated caller.
func (s *Sessions) Detail(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.Store.ListActiveParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: sess, Participants: parts}, nil
}

// History lists a room's sessions, newest first. Rooms the caller does not
// own are reported as missing.
func (s *Sessions) History(ctx context.Context, who domain.Identity, roomID uuid.UUID) ([]domain.Session, error) {
	if _, err := s.ownedRoom(ctx, who, roomID); err != nil {
		if errors.Is(err, domain.ErrNotRoomOwner) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return s.Store.ListSessionsByRoom(ctx, roomID)
}

func (s *Sessions) ScheduledFor(ctx context.Context, who domain.Identity) ([]domain.Session, error) {
	return s.Store.ListScheduledHostedBy(ctx, who.UserID)
}

// transition applies fn to the locked session after the host check and
// saves the result. fn must leave the session untouched when it fails.
func (s *Sessions) transition(ctx context.Context, who domain.Identity, id uuid.UUID, fn func(cur *domain.Session) error) (*domain.Session, error) {
	var out *domain.Session
	err := s.Store.WithSession(ctx, id, func(tx store.SessionTx) error {
		if err := requireHost(tx, who.UserID, false); err != nil {
			return err
		}
		cur := tx.Session()
		if err := fn(cur); err != nil {
			return err
		}
		out = cur
		return tx.SaveSession(cur)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	return out, nil
}

func (s *Sessions) checkHost(ctx context.Context, who domain.Identity, id uuid.UUID) error {
	if _, err := s.session(ctx, id); err != nil {
		return err
	}
	p, err := s.Store.GetParticipant(ctx, id, who.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrNotHost
	}
	if err != nil {
		return err
	}
	if p.Role != domain.RoleHost {
		return domain.ErrNotHost
	}
	return nil
}

func (s *Sessions) finalizer() RecordingFinalizer {
	if s.Recordings == nil {
		return StaticRecordings{BaseURL: "https://recordings.example.com"}
	}
	return s.Recordings
}

func (s *Sessions) wire(t protocol.Type, sess *domain.Session) protocol.SessionEvent {
	ev := protocol.SessionEvent{
		Type:      t,
		SessionID: sess.ID.String(),
		RoomID:    sess.RoomID.String(),
		Status:    string(sess.Status),
	}
	if sess.RecordingURL != nil {
		ev.RecordingURL = *sess.RecordingURL
	}
	return ev
}

func (s *Sessions) event(sess *domain.Session, who domain.Identity, at time.Time) SessionEventMessage {
	return SessionEventMessage{
		SessionID: sess.ID,
		RoomID:    sess.RoomID,
		Status:    string(sess.Status),
		ActorID:   who.UserID,
		At:        at,
	}
}
