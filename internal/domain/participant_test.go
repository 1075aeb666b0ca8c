package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestElectRole(t *testing.T) {
	cases := []struct {
		active int
		want   Role
	}{
		{0, RoleHost},
		{1, RoleParticipant},
		{7, RoleParticipant},
	}
	for _, c := range cases {
		if got := ElectRole(c.active); got != c.want {
			t.Fatalf("ElectRole(%d) = %s, want %s", c.active, got, c.want)
		}
	}
}

func TestParticipantLeaveIsIdempotent(t *testing.T) {
	who := Identity{UserID: uuid.New(), FullName: "Ada"}
	p := NewParticipant(uuid.New(), who, RoleHost, t0)
	p.IsSharingScreen = true

	if !p.Leave(t0.Add(time.Minute)) {
		t.Fatal("first leave should change the row")
	}
	if p.IsSharingScreen {
		t.Fatal("leaving must stop screen share")
	}
	if p.Leave(t0.Add(time.Hour)) {
		t.Fatal("second leave should be a no-op")
	}
	if !p.LeaveTime.Equal(t0.Add(time.Minute)) {
		t.Fatalf("leave time moved to %v", p.LeaveTime)
	}
}

func TestParticipantRejoin(t *testing.T) {
	who := Identity{UserID: uuid.New(), FullName: "Ada"}

	t.Run("keeps role when others are present", func(t *testing.T) {
		p := NewParticipant(uuid.New(), who, RoleModerator, t0)
		p.Leave(t0)
		p.Rejoin(who, 2, t0.Add(time.Minute))
		if !p.Active() || p.Role != RoleModerator || !p.JoinTime.Equal(t0.Add(time.Minute)) {
			t.Fatalf("unexpected row %+v", p)
		}
	})

	t.Run("former host returns as participant", func(t *testing.T) {
		p := NewParticipant(uuid.New(), who, RoleHost, t0)
		p.Leave(t0)
		p.Rejoin(who, 1, t0.Add(time.Minute))
		if p.Role != RoleParticipant {
			t.Fatalf("got %s, want %s", p.Role, RoleParticipant)
		}
	})

	t.Run("becomes host in an empty session", func(t *testing.T) {
		p := NewParticipant(uuid.New(), who, RoleParticipant, t0)
		p.Leave(t0)
		p.Rejoin(who, 0, t0)
		if p.Role != RoleHost {
			t.Fatalf("got %s", p.Role)
		}
	})
}

func TestParticipantPromote(t *testing.T) {
	p := &Participant{Role: RoleParticipant}
	p.Promote()
	if p.Role != RoleModerator {
		t.Fatalf("got %s", p.Role)
	}
	h := &Participant{Role: RoleHost}
	h.Promote()
	if h.Role != RoleHost {
		t.Fatalf("host demoted to %s", h.Role)
	}
}
