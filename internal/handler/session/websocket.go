package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
	"github.com/zhouzirui/medicare/backend/pkg/log"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubmitMessage 提交文本
type SubmitMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 推送会话事件，并接收 submit 消息
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("websocket upgrade failed", "session", session.ID(), "error", err)
		return
	}
	defer conn.Close()

	logger := log.Named("websocket").With(zap.String("session", session.ID()))
	logger.Info("connection opened")

	// 先订阅再取快照，避免漏掉两者之间的事件；重复的消息由 ReplayFilter 丢弃。
	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snap := session.Snapshot()
	replay := NewReplayFilter(snap)
	out := make(chan outgoingMessage, 8)
	out <- outgoingMessage{Type: "snapshot", SessionID: session.ID(), Data: RenderSnapshot(snap), Timestamp: time.Now().Unix()}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, session.ID(), events, replay, out, logger)
		// 写端退出后关闭连接以唤醒读循环。
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("read error", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		reply := h.handleMessage(session, &msg)
		select {
		case out <- reply:
		case <-writerDone:
		}
	}

	cancel()
	<-writerDone
	logger.Info("connection closed")
}

func (h *Handler) handleMessage(session *chatservice.Session, msg *inboundMessage) outgoingMessage {
	now := time.Now().Unix()
	switch msg.Type {
	case "submit":
		var payload SubmitMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errorMessage("invalid submit payload")
		}
		accepted := session.Submit(payload.Text)
		return outgoingMessage{
			Type:      "submitted",
			SessionID: session.ID(),
			Data:      map[string]bool{"accepted": accepted},
			Timestamp: now,
		}
	case "snapshot":
		return outgoingMessage{Type: "snapshot", SessionID: session.ID(), Data: RenderSnapshot(session.Snapshot()), Timestamp: now}
	default:
		return errorMessage("unsupported message type")
	}
}

// writeLoop 是连接上唯一的写入者：转发会话事件、应答与心跳。
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sessionID string, events <-chan chatservice.Event, replay *ReplayFilter, out <-chan outgoingMessage, logger *zap.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			if !write(msg) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeTimeout))
				return
			}
			if replay.Skip(ev) {
				continue
			}
			if !write(outgoingMessage{Type: "event", SessionID: sessionID, Data: RenderEvent(ev), Timestamp: time.Now().Unix()}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func errorMessage(message string) outgoingMessage {
	return outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
}
