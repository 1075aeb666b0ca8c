package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionLive      SessionStatus = "LIVE"
	SessionEnded     SessionStatus = "ENDED"
	SessionCancelled SessionStatus = "CANCELLED"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionEnded || s == SessionCancelled
}

type RecordingStatus string

const (
	RecordingActive    RecordingStatus = "RECORDING"
	RecordingAvailable RecordingStatus = "AVAILABLE"
)

// Session is one occurrence of a meeting in a room.
//
//	SCHEDULED -> CANCELLED
//	LIVE      -> ENDED
//
// Terminal states never change again.
type Session struct {
	ID                 uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	RoomID             uuid.UUID        `json:"room_id" gorm:"type:uuid;index;not null"`
	Status             SessionStatus    `json:"status" gorm:"type:varchar(16);index;not null"`
	ScheduledStartTime *time.Time       `json:"scheduled_start_time"`
	ActualStartTime    *time.Time       `json:"actual_start_time"`
	ActualEndTime      *time.Time       `json:"actual_end_time"`
	RecordingStatus    *RecordingStatus `json:"recording_status" gorm:"type:varchar(16)"`
	RecordingURL       *string          `json:"recording_url"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

func NewLiveSession(roomID uuid.UUID, now time.Time) *Session {
	start := now
	return &Session{
		ID:              uuid.New(),
		RoomID:          roomID,
		Status:          SessionLive,
		ActualStartTime: &start,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func NewScheduledSession(roomID uuid.UUID, at, now time.Time) (*Session, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: scheduled start time required", ErrInvalidInput)
	}
	start := at.UTC()
	return &Session{
		ID:                 uuid.New(),
		RoomID:             roomID,
		Status:             SessionScheduled,
		ScheduledStartTime: &start,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (s *Session) IsLive() bool { return s.Status == SessionLive }

func (s *Session) End(now time.Time) error {
	if s.Status != SessionLive {
		return fmt.Errorf("%w: cannot end a %s session", ErrInvalidTransition, s.Status)
	}
	end := now
	s.Status = SessionEnded
	s.ActualEndTime = &end
	s.UpdatedAt = now
	return nil
}

func (s *Session) Cancel(now time.Time) error {
	if s.Status != SessionScheduled {
		return fmt.Errorf("%w: cannot cancel a %s session", ErrInvalidTransition, s.Status)
	}
	s.Status = SessionCancelled
	s.UpdatedAt = now
	return nil
}

// StartRecording marks the session as recording. Repeating it is harmless.
func (s *Session) StartRecording(now time.Time) error {
	if s.Status != SessionLive {
		return ErrSessionNotLive
	}
	st := RecordingActive
	s.RecordingStatus = &st
	s.UpdatedAt = now
	return nil
}

func (s *Session) Recording() bool {
	return s.RecordingStatus != nil && *s.RecordingStatus == RecordingActive
}

// StopRecording publishes the artifact location whatever the prior
// recording status was.
func (s *Session) StopRecording(url string, now time.Time) {
	st := RecordingAvailable
	s.RecordingStatus = &st
	s.RecordingURL = &url
	s.UpdatedAt = now
}
