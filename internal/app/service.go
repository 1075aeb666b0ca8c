package app

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// base carries what every service needs. A nil Notifier drops events and a
// nil Now means the wall clock.
type base struct {
	Store    store.Store
	Notifier Notifier
	Now      func() time.Time
}

func (b *base) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b *base) notify(roomID uuid.UUID, v any) {
	if b.Notifier == nil {
		return
	}
	b.Notifier.NotifyRoom(roomID, v)
}

func (b *base) room(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	r, err := b.Store.GetRoom(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	return r, err
}

func (b *base) ownedRoom(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Room, error) {
	r, err := b.room(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.OwnedBy(who.UserID) {
		return nil, domain.ErrNotRoomOwner
	}
	return r, nil
}

func (b *base) session(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s, err := b.Store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	return s, err
}

// sessionErr maps a missing session row from WithSession.
func sessionErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrSessionNotFound
	}
	return err
}

// requireHost checks the caller holds the HOST role in the locked session.
// With active set the row must also not have left.
func requireHost(tx store.SessionTx, userID uuid.UUID, active bool) error {
	p, err := tx.Participant(userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrNotHost
	}
	if err != nil {
		return err
	}
	if p.Role != domain.RoleHost || (active && !p.Active()) {
		return domain.ErrNotHost
	}
	return nil
}

func publish(ctx context.Context, ev EventPublisher, key string, v any) {
	if ev == nil {
		return
	}
	if err := ev.Publish(ctx, key, v); err != nil {
		log.Warn().Str("module", "app.events").Str("key", key).Err(err).Msg("publish failed")
	}
}
