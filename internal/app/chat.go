package app

import (
	"context"
	"errors"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/protocol"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
)

// Chat persists session chat posted over REST and mirrors it to the room.
type Chat struct {
	base
}

func NewChat(st store.Store, n Notifier) *Chat {
	return &Chat{base: base{Store: st, Notifier: n}}
}

func (c *Chat) Send(ctx context.Context, who domain.Identity, sessionID uuid.UUID, content string) (*domain.ChatMessage, error) {
	sess, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := c.Store.GetParticipant(ctx, sessionID, who.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrNotActiveParticipant
	}
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, domain.ErrNotActiveParticipant
	}
	msg, err := domain.NewChatMessage(sessionID, who, content, c.now())
	if err != nil {
		return nil, err
	}
	if err := c.Store.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	c.notify(sess.RoomID, protocol.ChatOut{
		Type:     protocol.TypeChatMessage,
		SenderID: who.UserID.String(),
		FullName: who.FullName,
		Text:     msg.Content,
	})
	return msg, nil
}

// History is readable by anyone who ever joined the session.
func (c *Chat) History(ctx context.Context, who domain.Identity, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	if _, err := c.session(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := c.Store.GetParticipant(ctx, sessionID, who.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotParticipant
		}
		return nil, err
	}
	return c.Store.ListChatMessages(ctx, sessionID)
}
