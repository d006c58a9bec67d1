package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sessionview "github.com/zhouzirui/medicare/backend/internal/handler/session"
	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
	"github.com/zhouzirui/medicare/backend/pkg/log"
	"github.com/zhouzirui/medicare/backend/pkg/utils"
)

// DefaultHeartbeat is how often an idle stream sends a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// Handler streams session events via Server-Sent Events
type Handler struct {
	sessions  *chatservice.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(sessions *chatservice.Service) *Handler {
	return &Handler{sessions: sessions, heartbeat: DefaultHeartbeat}
}

// RegisterRoutes mounts the event stream under the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents sends a snapshot, then every session event until the client
// disconnects or the session closes.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	// Subscribe first so nothing between subscription and snapshot is lost.
	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	logger := log.Named("sse").With(zap.String("session", sessionID))
	logger.Info("opening event stream")

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	snap := session.Snapshot()
	replay := sessionview.NewReplayFilter(snap)
	if err := utils.SendSSEEvent(w, flusher, "snapshot", sessionview.RenderSnapshot(snap)); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Info("closing event stream")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if replay.Skip(ev) {
				continue
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), sessionview.RenderEvent(ev)); err != nil {
				logger.Debug("write failed", zap.Error(err))
				return
			}
			if ev.Type == chatservice.EventClosed {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
