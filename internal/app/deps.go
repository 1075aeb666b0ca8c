package app

//go:generate mockgen -source=deps.go -destination=mock_deps_test.go -package=app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notifier fans a server event out to a room's live connections.
type Notifier interface {
	NotifyRoom(roomID uuid.UUID, v any)
}

// EventPublisher hands lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// RecordingFinalizer returns where a finished session recording can be fetched.
type RecordingFinalizer interface {
	Finalize(ctx context.Context, sessionID uuid.UUID) (string, error)
}

const (
	KeySessionStarted   = "session.started"
	KeySessionScheduled = "session.scheduled"
	KeySessionEnded     = "session.ended"
	KeySessionCancelled = "session.cancelled"
	KeyRecordingMerge   = "recording.merge"
)

type SessionEventMessage struct {
	SessionID uuid.UUID `json:"session_id"`
	RoomID    uuid.UUID `json:"room_id"`
	Status    string    `json:"status"`
	ActorID   uuid.UUID `json:"actor_id"`
	At        time.Time `json:"at"`
}

// RecordingMergeMessage asks the transcode worker to stitch recorded chunks.
type RecordingMergeMessage struct {
	JobID         uuid.UUID `json:"jobId"`
	LiveSessionID uuid.UUID `json:"liveSessionId"`
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// StaticRecordings derives artifact URLs from a fixed base.
type StaticRecordings struct {
	BaseURL string
}

func (s StaticRecordings) Finalize(_ context.Context, sessionID uuid.UUID) (string, error) {
	return fmt.Sprintf("%s/%s.mp4", strings.TrimRight(s.BaseURL, "/"), sessionID), nil
}
