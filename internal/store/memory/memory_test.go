package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
)

var t0 = time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*Store, *domain.Room, *domain.Session, domain.Identity) {
	t.Helper()
	s := New()
	host := domain.Identity{UserID: uuid.New(), FullName: "Host"}
	room, err := domain.NewRoom(host.UserID, "Daily", false, t0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRoom(context.Background(), room); err != nil {
		t.Fatal(err)
	}
	sess := domain.NewLiveSession(room.ID, t0)
	if err := s.CreateSession(context.Background(), sess, domain.NewParticipant(sess.ID, host, domain.RoleHost, t0)); err != nil {
		t.Fatal(err)
	}
	return s, room, sess, host
}

func TestWithSessionRollsBackOnError(t *testing.T) {
	s, _, sess, host := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithSession(ctx, sess.ID, func(tx store.SessionTx) error {
		cur := tx.Session()
		if err := cur.End(t0); err != nil {
			return err
		}
		if err := tx.SaveSession(cur); err != nil {
			return err
		}
		p, err := tx.Participant(host.UserID)
		if err != nil {
			return err
		}
		p.Leave(t0)
		if err := tx.SaveParticipant(p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	got, _ := s.GetSession(ctx, sess.ID)
	if got.Status != domain.SessionLive {
		t.Fatalf("session change leaked: %s", got.Status)
	}
	p, _ := s.GetParticipant(ctx, sess.ID, host.UserID)
	if !p.Active() {
		t.Fatal("participant change leaked")
	}
}

func TestWithSessionCommits(t *testing.T) {
	s, _, sess, host := seed(t)
	ctx := context.Background()
	guest := domain.Identity{UserID: uuid.New(), FullName: "Guest"}

	err := s.WithSession(ctx, sess.ID, func(tx store.SessionTx) error {
		n, _ := tx.CountActive()
		if n != 1 {
			t.Fatalf("active = %d", n)
		}
		return tx.SaveParticipant(domain.NewParticipant(sess.ID, guest, domain.ElectRole(n), t0))
	})
	if err != nil {
		t.Fatal(err)
	}

	active, _ := s.ListActiveParticipants(ctx, sess.ID)
	if len(active) != 2 || active[0].UserID != host.UserID {
		t.Fatalf("active %+v", active)
	}
}

func TestWithSessionMissing(t *testing.T) {
	s := New()
	err := s.WithSession(context.Background(), uuid.New(), func(store.SessionTx) error {
		t.Fatal("callback must not run")
		return nil
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestWithSessionSerialisesCallers(t *testing.T) {
	s, _, sess, _ := seed(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			who := domain.Identity{UserID: uuid.New(), FullName: "x"}
			_ = s.WithSession(ctx, sess.ID, func(tx store.SessionTx) error {
				n, _ := tx.CountActive()
				return tx.SaveParticipant(domain.NewParticipant(sess.ID, who, domain.ElectRole(n), t0))
			})
		}()
	}
	wg.Wait()

	active, _ := s.ListActiveParticipants(ctx, sess.ID)
	if len(active) != 21 {
		t.Fatalf("lost updates: %d active", len(active))
	}
	hosts := 0
	for _, p := range active {
		if p.Role == domain.RoleHost {
			hosts++
		}
	}
	if hosts != 1 {
		t.Fatalf("%d hosts", hosts)
	}
}

func TestReadsDoNotAlias(t *testing.T) {
	s, room, sess, _ := seed(t)
	ctx := context.Background()

	got, _ := s.GetSession(ctx, sess.ID)
	_ = got.End(t0)
	again, _ := s.GetSession(ctx, sess.ID)
	if again.Status != domain.SessionLive {
		t.Fatal("mutating a read copy changed the store")
	}

	byCode, err := s.GetRoomByCode(ctx, room.UniqueCode)
	if err != nil || byCode.ID != room.ID {
		t.Fatalf("by code: %v %v", byCode, err)
	}
	live, err := s.FindLiveSession(ctx, room.ID)
	if err != nil || live.ID != sess.ID {
		t.Fatalf("live: %v %v", live, err)
	}
}

func TestScheduledHostedBy(t *testing.T) {
	s, room, _, host := seed(t)
	ctx := context.Background()
	later, _ := domain.NewScheduledSession(room.ID, t0.Add(48*time.Hour), t0)
	sooner, _ := domain.NewScheduledSession(room.ID, t0.Add(24*time.Hour), t0)
	_ = s.CreateSession(ctx, later, nil)
	_ = s.CreateSession(ctx, sooner, nil)

	got, _ := s.ListScheduledHostedBy(ctx, host.UserID)
	if len(got) != 2 || got[0].ID != sooner.ID {
		t.Fatalf("got %+v", got)
	}
	none, _ := s.ListScheduledHostedBy(ctx, uuid.New())
	if len(none) != 0 {
		t.Fatalf("stranger sees %d", len(none))
	}
}
