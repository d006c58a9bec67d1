package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
	"github.com/zhouzirui/medicare/backend/internal/service/triage"
)

func setup(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	demo := triage.NewService(nil, hospital.NewMemoryStore(hospital.Seed()), nil)
	sessions := chatservice.NewService(demo, nil, chatservice.Options{Timeout: time.Second})

	r := chi.NewRouter()
	New(sessions).RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(func() {
		sessions.Shutdown()
		server.Close()
	})
	return server, sessions
}

func TestEventsUnknownSession(t *testing.T) {
	server, _ := setup(t)

	resp, err := http.Get(server.URL + "/sessions/missing/events")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestEventsStreamTurn(t *testing.T) {
	server, sessions := setup(t)
	session, err := sessions.CreateSession(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sessions/"+session.ID()+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() (string, string) {
		t.Helper()
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && event != "":
				return event, data
			}
		}
	}

	if event, _ := nextEvent(); event != "snapshot" {
		t.Fatalf("expected snapshot first, got %s", event)
	}

	if !session.Submit("my back hurts, back pain") {
		t.Fatal("submit rejected")
	}

	var types []string
	for len(types) < 4 {
		event, data := nextEvent()
		types = append(types, event)
		if event == "message" && strings.Contains(data, `"author":"bot"`) {
			if !strings.Contains(data, `"severityClass":"severity-low"`) {
				t.Fatalf("expected low severity reply, got %s", data)
			}
		}
	}

	want := []string{"message", "pending", "message", "pending"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event order: %v", types)
	}
}
