package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
)

type historyFunc func(ctx context.Context, userID string) ([]chat.HistoryEntry, error)

func (f historyFunc) History(ctx context.Context, userID string) ([]chat.HistoryEntry, error) {
	return f(ctx, userID)
}

func TestServiceGetSession(t *testing.T) {
	svc := chatservice.NewService(newStubDispatcher(), nil, chatservice.Options{})
	defer svc.Shutdown()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "alice", &chat.Location{Latitude: 40.7, Longitude: -74})
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID() != session.ID() {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID(), session.ID())
	}
	if got.Info().UserID != "alice" {
		t.Fatalf("unexpected user ID: got %s", got.Info().UserID)
	}
	if got.Info().Location == nil || got.Info().Location.Latitude != 40.7 {
		t.Fatalf("location not kept: %+v", got.Info().Location)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chatservice.NewService(newStubDispatcher(), nil, chatservice.Options{})
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Submit(ctx, "missing", "hi"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound from Submit, got %v", err)
	}
	if err := svc.EndSession(ctx, "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound from EndSession, got %v", err)
	}
}

func TestServiceRestoresHistory(t *testing.T) {
	score := 45
	history := historyFunc(func(_ context.Context, userID string) ([]chat.HistoryEntry, error) {
		if userID != "bob" {
			t.Fatalf("unexpected history lookup for %q", userID)
		}
		return []chat.HistoryEntry{{ID: "h1", Message: "fever", Response: "rest", SeverityScore: &score}}, nil
	})
	svc := chatservice.NewService(newStubDispatcher(), history, chatservice.Options{})
	defer svc.Shutdown()

	session, err := svc.CreateSession(context.Background(), " bob ", nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	msgs, err := svc.LoadTranscript(context.Background(), session.ID())
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "fever" || msgs[1].ID != "h1" {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}
}

func TestServiceSkipsHistoryForAnonymousAndOnError(t *testing.T) {
	calls := 0
	history := historyFunc(func(context.Context, string) ([]chat.HistoryEntry, error) {
		calls++
		return nil, errors.New("backend down")
	})
	svc := chatservice.NewService(newStubDispatcher(), history, chatservice.Options{})
	defer svc.Shutdown()
	ctx := context.Background()

	anon, err := svc.CreateSession(ctx, "", nil)
	if err != nil {
		t.Fatalf("anonymous CreateSession err: %v", err)
	}
	if calls != 0 {
		t.Fatalf("anonymous session should not load history, got %d calls", calls)
	}

	named, err := svc.CreateSession(ctx, "carol", nil)
	if err != nil {
		t.Fatalf("CreateSession should survive history errors: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one history call, got %d", calls)
	}
	if len(anon.Messages()) != 0 || len(named.Messages()) != 0 {
		t.Fatal("sessions should start empty")
	}
	if svc.Len() != 2 {
		t.Fatalf("expected 2 live sessions, got %d", svc.Len())
	}
}

func TestServiceSubmitAndEndSession(t *testing.T) {
	d := newStubDispatcher()
	svc := chatservice.NewService(d, nil, chatservice.Options{Timeout: time.Minute})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "dave", nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	accepted, err := svc.Submit(ctx, session.ID(), "headache")
	if err != nil || !accepted {
		t.Fatalf("Submit: accepted=%v err=%v", accepted, err)
	}
	if accepted, _ := svc.Submit(ctx, session.ID(), "again"); accepted {
		t.Fatal("second submit while pending should be ignored")
	}
	<-d.requests

	if err := svc.EndSession(ctx, session.ID()); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if !session.Closed() {
		t.Fatal("session should be closed")
	}
	if svc.Len() != 0 {
		t.Fatalf("expected no live sessions, got %d", svc.Len())
	}
	if _, err := svc.GetSession(ctx, session.ID()); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("ended session should be gone, got %v", err)
	}
}

func TestServiceShutdownClosesAll(t *testing.T) {
	svc := chatservice.NewService(newStubDispatcher(), nil, chatservice.Options{})
	ctx := context.Background()

	var sessions []*chatservice.Session
	for _, user := range []string{"a", "b", "c"} {
		s, err := svc.CreateSession(ctx, user, nil)
		if err != nil {
			t.Fatalf("CreateSession err: %v", err)
		}
		sessions = append(sessions, s)
	}

	svc.Shutdown()

	for _, s := range sessions {
		if !s.Closed() {
			t.Fatalf("session %s still open", s.ID())
		}
	}
	if svc.Len() != 0 {
		t.Fatalf("expected no live sessions, got %d", svc.Len())
	}
}
