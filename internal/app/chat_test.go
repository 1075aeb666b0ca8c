package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/google/uuid"
)

func TestChatSendAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host, guest, stranger := user("Host"), user("Guest"), user("Stranger")
	sess := f.liveSession(t, host)
	peer := f.listen(sess.RoomID, "peer")
	_, _ = f.roster.Join(ctx, guest, sess.ID)

	msg, err := f.chat.Send(ctx, host, sess.ID, "welcome")
	if err != nil || msg.UserFullName != "Host" {
		t.Fatalf("send: %+v, %v", msg, err)
	}
	msgs := peer.messages(t)
	last := msgs[len(msgs)-1]
	if last["type"] != "chat-message" || last["text"] != "welcome" || last["sender_id"] != host.UserID.String() {
		t.Fatalf("broadcast %v", last)
	}

	if _, err := f.chat.Send(ctx, stranger, sess.ID, "hi"); !errors.Is(err, domain.ErrNotActiveParticipant) {
		t.Fatalf("stranger send: %v", err)
	}
	if _, err := f.chat.Send(ctx, host, sess.ID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty send: %v", err)
	}
	if _, err := f.chat.Send(ctx, host, uuid.New(), "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("missing session: %v", err)
	}

	_, _ = f.roster.Leave(ctx, guest, sess.ID)
	if _, err := f.chat.Send(ctx, guest, sess.ID, "bye"); !errors.Is(err, domain.ErrNotActiveParticipant) {
		t.Fatalf("departed send: %v", err)
	}
	hist, err := f.chat.History(ctx, guest, sess.ID)
	if err != nil || len(hist) != 1 || hist[0].Content != "welcome" {
		t.Fatalf("history %+v, %v", hist, err)
	}
	if _, err := f.chat.History(ctx, stranger, sess.ID); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("stranger history: %v", err)
	}
}
