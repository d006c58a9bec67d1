package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/medicare/backend/internal/config"
	hospitalModel "github.com/zhouzirui/medicare/backend/internal/model/hospital"
	chatService "github.com/zhouzirui/medicare/backend/internal/service/chat"
	triageService "github.com/zhouzirui/medicare/backend/internal/service/triage"
)

func newTestRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	hospitals := hospitalModel.NewMemoryStore(hospitalModel.Seed())
	triage := triageService.NewService(nil, hospitals, nil)
	sessions := chatService.NewService(triage, triage, chatService.Options{Timeout: time.Second})
	t.Cleanup(sessions.Shutdown)

	return NewRouter(Deps{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimitRPS:   0.001,
			RateLimitBurst: burst,
		},
		Triage:    triage,
		Hospitals: hospitals,
		Sessions:  sessions,
	})
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestMetricsExposed(t *testing.T) {
	r := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "medicare_chat_active_sessions") {
		t.Fatalf("session gauge missing from /metrics")
	}
}

func TestChatSendIsRateLimited(t *testing.T) {
	r := newTestRouter(t, 1)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/send", strings.NewReader(`{"message":"headache"}`))
		req.RemoteAddr = "192.0.2.1:5000"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestCORSHeadersOnAPI(t *testing.T) {
	r := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/hospitals", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected CORS header: %q", got)
	}
}
