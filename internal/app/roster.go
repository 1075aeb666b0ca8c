package app

import (
	"context"
	"errors"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/protocol"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Roster manages who is in a session and what they are doing. All reads
// that feed a decision happen under the session lock, so host election and
// screen-share exclusivity hold under concurrent requests.
type Roster struct {
	base
}

func NewRoster(st store.Store, n Notifier) *Roster {
	return &Roster{base: base{Store: st, Notifier: n}}
}

// Join admits the caller to a LIVE session. The first active participant
// becomes host. Joining while already active changes nothing; a departed
// participant is reactivated on the same row.
func (r *Roster) Join(ctx context.Context, who domain.Identity, sessionID uuid.UUID) (*domain.Participant, error) {
	var (
		joined  *domain.Participant
		changed bool
		roomID  uuid.UUID
	)
	now := r.now()
	err := r.Store.WithSession(ctx, sessionID, func(tx store.SessionTx) error {
		cur := tx.Session()
		if !cur.IsLive() {
			return domain.ErrSessionNotLive
		}
		roomID = cur.RoomID

		p, err := tx.Participant(who.UserID)
		switch {
		case err == nil && p.Active():
			joined = p
			return nil
		case err == nil:
			n, err := tx.CountActive()
			if err != nil {
				return err
			}
			p.Rejoin(who, n, now)
		case errors.Is(err, store.ErrNotFound):
			n, err := tx.CountActive()
			if err != nil {
				return err
			}
			p = domain.NewParticipant(sessionID, who, domain.ElectRole(n), now)
		default:
			return err
		}
		if err := tx.SaveParticipant(p); err != nil {
			return err
		}
		joined, changed = p, true
		return nil
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	if changed {
		log.Info().Str("module", "app.roster").Str("session", sessionID.String()).Str("user", who.UserID.String()).Str("role", string(joined.Role)).Msg("participant joined")
		r.notify(roomID, participantEvent(protocol.TypeParticipantJoined, joined))
	}
	return joined, nil
}

// Leave stamps the leave time on the caller's active row. With no active
// row it returns nil and no error.
func (r *Roster) Leave(ctx context.Context, who domain.Identity, sessionID uuid.UUID) (*domain.Participant, error) {
	var (
		left       *domain.Participant
		wasSharing bool
		roomID     uuid.UUID
	)
	now := r.now()
	err := r.Store.WithSession(ctx, sessionID, func(tx store.SessionTx) error {
		roomID = tx.Session().RoomID
		p, err := tx.Participant(who.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		wasSharing = p.IsSharingScreen
		if !p.Leave(now) {
			return nil
		}
		left = p
		return tx.SaveParticipant(p)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	if left == nil {
		return nil, nil
	}
	log.Info().Str("module", "app.roster").Str("session", sessionID.String()).Str("user", who.UserID.String()).Msg("participant left")
	if wasSharing {
		r.notify(roomID, screenShareEvent(protocol.TypeScreenShareStopped, sessionID, roomID, left))
	}
	r.notify(roomID, participantEvent(protocol.TypeParticipantLeft, left))
	return left, nil
}

// Promote makes target a moderator. Only an active host may promote.
func (r *Roster) Promote(ctx context.Context, who domain.Identity, sessionID, target uuid.UUID) (*domain.Participant, error) {
	var (
		promoted *domain.Participant
		roomID   uuid.UUID
	)
	err := r.Store.WithSession(ctx, sessionID, func(tx store.SessionTx) error {
		roomID = tx.Session().RoomID
		if err := requireHost(tx, who.UserID, true); err != nil {
			return err
		}
		p, err := tx.Participant(target)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrParticipantNotFound
		}
		if err != nil {
			return err
		}
		p.Promote()
		promoted = p
		return tx.SaveParticipant(p)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	r.notify(roomID, participantEvent(protocol.TypeParticipantPromoted, promoted))
	return promoted, nil
}

// StartScreenShare makes the caller the only sharer in the session.
func (r *Roster) StartScreenShare(ctx context.Context, who domain.Identity, sessionID uuid.UUID) (*domain.Participant, error) {
	var (
		sharer *domain.Participant
		roomID uuid.UUID
	)
	err := r.Store.WithSession(ctx, sessionID, func(tx store.SessionTx) error {
		roomID = tx.Session().RoomID
		p, err := tx.Participant(who.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotActiveParticipant
		}
		if err != nil {
			return err
		}
		if !p.Active() {
			return domain.ErrNotActiveParticipant
		}
		if err := tx.ClearScreenShare(); err != nil {
			return err
		}
		p.IsSharingScreen = true
		sharer = p
		return tx.SaveParticipant(p)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	r.notify(roomID, screenShareEvent(protocol.TypeScreenShareStarted, sessionID, roomID, sharer))
	return sharer, nil
}

func (r *Roster) StopScreenShare(ctx context.Context, who domain.Identity, sessionID uuid.UUID) (*domain.Participant, error) {
	var (
		sharer *domain.Participant
		roomID uuid.UUID
	)
	err := r.Store.WithSession(ctx, sessionID, func(tx store.SessionTx) error {
		roomID = tx.Session().RoomID
		p, err := tx.Participant(who.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotSharing
		}
		if err != nil {
			return err
		}
		if !p.IsSharingScreen {
			return domain.ErrNotSharing
		}
		p.IsSharingScreen = false
		sharer = p
		return tx.SaveParticipant(p)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	r.notify(roomID, screenShareEvent(protocol.TypeScreenShareStopped, sessionID, roomID, sharer))
	return sharer, nil
}

func participantEvent(t protocol.Type, p *domain.Participant) protocol.ParticipantEvent {
	return protocol.ParticipantEvent{
		Type:      t,
		SessionID: p.SessionID.String(),
		UserID:    p.UserID.String(),
		FullName:  p.FullName,
		Role:      string(p.Role),
	}
}

func screenShareEvent(t protocol.Type, sessionID, roomID uuid.UUID, p *domain.Participant) protocol.ScreenShare {
	return protocol.ScreenShare{
		Type:      t,
		SessionID: sessionID.String(),
		RoomID:    roomID.String(),
		UserID:    p.UserID.String(),
		FullName:  p.FullName,
	}
}
