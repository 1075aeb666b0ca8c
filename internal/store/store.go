// Package store declares the persistence boundary. Implementations live in
// subpackages; the domain never sees them.
package store

import (
	"context"
	"errors"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("store: not found")

type Store interface {
	CreateRoom(ctx context.Context, r *domain.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*domain.Room, error)
	ListRoomsByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error

	// CreateSession stores s, and host as its first participant when non-nil,
	// in one transaction.
	CreateSession(ctx context.Context, s *domain.Session, host *domain.Participant) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	FindLiveSession(ctx context.Context, roomID uuid.UUID) (*domain.Session, error)
	ListSessionsByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Session, error)
	// ListScheduledHostedBy returns SCHEDULED sessions in rooms owned by user.
	ListScheduledHostedBy(ctx context.Context, user uuid.UUID) ([]domain.Session, error)

	ListActiveParticipants(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error)
	GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error)

	// WithSession runs fn with the session row locked against concurrent
	// WithSession calls on the same id. Changes staged through tx are
	// committed only if fn returns nil. ErrNotFound if the session is absent.
	WithSession(ctx context.Context, id uuid.UUID, fn func(tx SessionTx) error) error

	CreateChatMessage(ctx context.Context, m *domain.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID uuid.UUID) ([]domain.ChatMessage, error)

	Close() error
}

// SessionTx is the view of one locked session inside WithSession.
type SessionTx interface {
	Session() *domain.Session
	SaveSession(s *domain.Session) error
	// Participant returns ErrNotFound when the user never joined.
	Participant(userID uuid.UUID) (*domain.Participant, error)
	CountActive() (int, error)
	SaveParticipant(p *domain.Participant) error
	// ClearScreenShare drops the sharing flag of every participant.
	ClearScreenShare() error
}
