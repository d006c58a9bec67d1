package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	"github.com/zhouzirui/medicare/backend/internal/service/triage"
	"github.com/zhouzirui/medicare/backend/pkg/log"
	"github.com/zhouzirui/medicare/backend/pkg/utils"
)

// Handler 聊天后端接口的HTTP处理器
type Handler struct {
	triageSvc *triage.Service
}

// New 创建聊天处理器
func New(triageSvc *triage.Service) *Handler {
	return &Handler{triageSvc: triageSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/chat", func(cr chi.Router) {
		cr.With(middlewares...).Post("/send", h.handleSend)
		cr.Get("/history/{userID}", h.handleHistory)
	})
}

// handleSend 对单条消息进行分诊
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload chat.SendRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.triageSvc.Send(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, triage.ErrEmptyMessage):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Errorw("chat send failed", "user", payload.UserID, "error", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleHistory 返回用户的历史问答
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userID is required")
		return
	}

	history, err := h.triageSvc.History(r.Context(), userID)
	if err != nil {
		log.Errorw("chat history failed", "user", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []chat.HistoryEntry{}
	}

	utils.RespondJSON(w, http.StatusOK, chat.HistoryResponse{History: history})
}
