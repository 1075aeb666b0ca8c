package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store/memory"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func TestScenarioLiveSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := user("A"), user("B"), user("C")

	sess := f.liveSession(t, a)
	peer := f.listen(sess.RoomID, "observer")

	pa, _ := f.store.GetParticipant(ctx, sess.ID, a.UserID)
	if pa.Role != domain.RoleHost {
		t.Fatalf("A is %s", pa.Role)
	}
	pb, err := f.roster.Join(ctx, b, sess.ID)
	if err != nil || pb.Role != domain.RoleParticipant {
		t.Fatalf("B join: %+v, %v", pb, err)
	}
	if _, err := f.roster.StartScreenShare(ctx, b, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.roster.Join(ctx, c, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.roster.StartScreenShare(ctx, c, sess.ID); err != nil {
		t.Fatal(err)
	}
	pb, _ = f.store.GetParticipant(ctx, sess.ID, b.UserID)
	pc, _ := f.store.GetParticipant(ctx, sess.ID, c.UserID)
	if pb.IsSharingScreen || !pc.IsSharingScreen {
		t.Fatalf("B sharing=%v C sharing=%v", pb.IsSharingScreen, pc.IsSharingScreen)
	}

	f.advance(30 * time.Minute)
	ended, err := f.sessions.End(ctx, a, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ended.Status != domain.SessionEnded || ended.ActualEndTime == nil || !ended.ActualEndTime.Equal(t0.Add(30*time.Minute)) {
		t.Fatalf("ended %+v", ended)
	}

	if _, err := f.roster.Join(ctx, b, sess.ID); !errors.Is(err, domain.ErrSessionNotLive) {
		t.Fatalf("join after end: %v", err)
	}

	types := peer.types(t)
	if types[len(types)-1] != "session-ended" {
		t.Fatalf("peer saw %v", types)
	}
}

func TestScenarioScheduledSessionCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := user("A")
	room := f.room(t, a)

	sess, err := f.sessions.Schedule(ctx, a, room.ID, t0.Add(72*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != domain.SessionScheduled || !sess.ScheduledStartTime.Equal(t0.Add(72*time.Hour)) {
		t.Fatalf("scheduled %+v", sess)
	}
	cancelled, err := f.sessions.Cancel(ctx, a, sess.ID)
	if err != nil || cancelled.Status != domain.SessionCancelled {
		t.Fatalf("cancel: %+v, %v", cancelled, err)
	}

	if _, err := f.sessions.End(ctx, a, sess.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("end after cancel: %v", err)
	}
	if _, err := f.sessions.Cancel(ctx, a, sess.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("cancel after cancel: %v", err)
	}
	stored, _ := f.store.GetSession(ctx, sess.ID)
	if stored.Status != domain.SessionCancelled {
		t.Fatalf("status %s", stored.Status)
	}
}

func TestStartRequiresRoomOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := user("Owner"), user("Other")
	room := f.room(t, owner)

	if _, err := f.sessions.StartNow(ctx, other, room.ID); !errors.Is(err, domain.ErrNotRoomOwner) {
		t.Fatalf("got %v", err)
	}
	if _, err := f.sessions.Schedule(ctx, other, room.ID, t0.Add(time.Hour)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v", err)
	}
	if _, err := f.sessions.StartNow(ctx, owner, uuid.New()); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := f.sessions.Schedule(ctx, owner, room.ID, time.Time{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v", err)
	}
}

func TestEndAndCancelRequireHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host, guest := user("Host"), user("Guest")
	sess := f.liveSession(t, host)
	_, _ = f.roster.Join(ctx, guest, sess.ID)

	if _, err := f.sessions.End(ctx, guest, sess.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("guest end: %v", err)
	}
	if _, err := f.sessions.End(ctx, user("Stranger"), sess.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("stranger end: %v", err)
	}
	if _, err := f.sessions.Cancel(ctx, host, sess.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel live: %v", err)
	}
	if _, err := f.sessions.End(ctx, host, uuid.New()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("missing: %v", err)
	}
	stored, _ := f.store.GetSession(ctx, sess.ID)
	if stored.Status != domain.SessionLive {
		t.Fatalf("rejected calls mutated status to %s", stored.Status)
	}
}

func TestStartInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := user("Grace")

	room, sess, err := f.sessions.StartInstant(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if room.Name != "Grace's Instant Meeting" || !room.IsPrivate || sess.RoomID != room.ID || !sess.IsLive() {
		t.Fatalf("room %+v session %+v", room, sess)
	}
	detail, err := f.sessions.Detail(ctx, sess.ID)
	if err != nil || len(detail.Participants) != 1 || detail.Participants[0].Role != domain.RoleHost {
		t.Fatalf("detail %+v, %v", detail, err)
	}
}

// sessionlessStore refuses to create sessions.
type sessionlessStore struct {
	*memory.Store
}

func (sessionlessStore) CreateSession(context.Context, *domain.Session, *domain.Participant) error {
	return errors.New("disk full")
}

func TestStartInstantRemovesRoomWhenSessionFails(t *testing.T) {
	st := sessionlessStore{memory.New()}
	svc := NewSessions(st, nil, nil, nil, nil)
	ctx := context.Background()
	a := user("Grace")

	if _, _, err := svc.StartInstant(ctx, a); err == nil {
		t.Fatal("expected StartInstant to fail")
	}
	rooms, err := st.ListRoomsByOwner(ctx, a.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 0 {
		t.Fatalf("orphan rooms left behind: %+v", rooms)
	}
}

func TestRecordingUsesFinalizerAndPublishesMerge(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := NewMockRecordingFinalizer(ctrl)
	events := NewMockEventPublisher(ctrl)

	f := newFixture(t)
	ctx := context.Background()
	host, guest := user("Host"), user("Guest")

	events.EXPECT().Publish(gomock.Any(), KeySessionStarted, gomock.Any()).Return(nil)
	f.sessions.Events = events
	f.sessions.Recordings = finalizer
	sess := f.liveSession(t, host)
	_, _ = f.roster.Join(ctx, guest, sess.ID)

	if _, err := f.sessions.StartRecording(ctx, guest, sess.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("guest record: %v", err)
	}
	rec, err := f.sessions.StartRecording(ctx, host, sess.ID)
	if err != nil || !rec.Recording() {
		t.Fatalf("start recording: %+v, %v", rec, err)
	}

	if _, err := f.sessions.StopRecording(ctx, guest, sess.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("guest stop: %v", err)
	}

	url := "https://minio.test/recordings/" + sess.ID.String() + ".mp4"
	finalizer.EXPECT().Finalize(gomock.Any(), sess.ID).Return(url, nil)
	events.EXPECT().Publish(gomock.Any(), KeyRecordingMerge, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, v any) error {
			msg, ok := v.(RecordingMergeMessage)
			if !ok || msg.LiveSessionID != sess.ID || msg.JobID == uuid.Nil {
				t.Errorf("unexpected merge message %#v", v)
			}
			return errors.New("broker down")
		})

	stopped, err := f.sessions.StopRecording(ctx, host, sess.ID)
	if err != nil {
		t.Fatalf("publish failures must not fail the request: %v", err)
	}
	if *stopped.RecordingStatus != domain.RecordingAvailable || *stopped.RecordingURL != url {
		t.Fatalf("stopped %+v", stopped)
	}
}

func TestStopRecordingFinalizerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := NewMockRecordingFinalizer(ctrl)

	f := newFixture(t)
	ctx := context.Background()
	host := user("Host")
	sess := f.liveSession(t, host)
	f.sessions.Recordings = finalizer

	finalizer.EXPECT().Finalize(gomock.Any(), sess.ID).Return("", errors.New("no bucket"))
	if _, err := f.sessions.StopRecording(ctx, host, sess.ID); err == nil {
		t.Fatal("expected error")
	}
	stored, _ := f.store.GetSession(ctx, sess.ID)
	if stored.RecordingURL != nil {
		t.Fatal("url stored despite failure")
	}
}

func TestDefaultRecordingURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := user("Host")
	sess := f.liveSession(t, host)

	stopped, err := f.sessions.StopRecording(ctx, host, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://recordings.example.com/" + sess.ID.String() + ".mp4"
	if *stopped.RecordingURL != want {
		t.Fatalf("got %s", *stopped.RecordingURL)
	}
}

func TestHistoryAndScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := user("Owner"), user("Other")
	room := f.room(t, owner)

	_, _ = f.sessions.StartNow(ctx, owner, room.ID)
	f.advance(time.Minute)
	sched, _ := f.sessions.Schedule(ctx, owner, room.ID, t0.Add(24*time.Hour))

	hist, err := f.sessions.History(ctx, owner, room.ID)
	if err != nil || len(hist) != 2 || hist[0].ID != sched.ID {
		t.Fatalf("history %+v, %v", hist, err)
	}
	if _, err := f.sessions.History(ctx, other, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("foreign history: %v", err)
	}

	upcoming, _ := f.sessions.ScheduledFor(ctx, owner)
	if len(upcoming) != 1 || upcoming[0].ID != sched.ID {
		t.Fatalf("upcoming %+v", upcoming)
	}
}
