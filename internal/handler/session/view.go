package session

import (
	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
)

// MessageView is a transcript entry as rendered to clients. The severity
// indicator is derived from the score at render time.
type MessageView struct {
	chat.Message
	Severity      *severity.Assessment `json:"severity,omitempty"`
	SeverityText  string               `json:"severityText,omitempty"`
	SeverityClass string               `json:"severityClass,omitempty"`
}

// SnapshotView is the full session state as rendered to clients.
type SnapshotView struct {
	Session  chat.Session  `json:"session"`
	Messages []MessageView `json:"messages"`
	Pending  bool          `json:"pending"`
	Typing   bool          `json:"typing"`
	Error    bool          `json:"error"`
}

// EventView is a session event as rendered to clients.
type EventView struct {
	Type      chatservice.EventType `json:"type"`
	SessionID string                `json:"sessionId"`
	Message   *MessageView          `json:"message,omitempty"`
	Pending   bool                  `json:"pending"`
}

// RenderMessage attaches the severity indicator to bot replies that carry a score.
func RenderMessage(msg chat.Message) MessageView {
	view := MessageView{Message: msg}
	if msg.Author != chat.AuthorBot || msg.SeverityScore == nil {
		return view
	}

	assessment := severity.Classify(*msg.SeverityScore)
	view.Severity = &assessment
	view.SeverityText = assessment.Display()
	view.SeverityClass = assessment.Class()
	return view
}

// RenderSnapshot renders every message of snap.
func RenderSnapshot(snap chatservice.Snapshot) SnapshotView {
	messages := make([]MessageView, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		messages = append(messages, RenderMessage(msg))
	}
	return SnapshotView{
		Session:  snap.Session,
		Messages: messages,
		Pending:  snap.Pending,
		Typing:   snap.Typing,
		Error:    snap.Error,
	}
}

// RenderEvent renders ev for the wire.
func RenderEvent(ev chatservice.Event) EventView {
	view := EventView{Type: ev.Type, SessionID: ev.SessionID, Pending: ev.Pending}
	if ev.Message != nil {
		msg := RenderMessage(*ev.Message)
		view.Message = &msg
	}
	return view
}

// ReplayFilter drops message events for entries a client already received in
// its opening snapshot. Streams subscribe before taking the snapshot, so an
// entry appended between the two shows up in both.
type ReplayFilter struct {
	seen map[string]struct{}
}

// NewReplayFilter remembers the message ids of snap.
func NewReplayFilter(snap chatservice.Snapshot) *ReplayFilter {
	seen := make(map[string]struct{}, len(snap.Messages))
	for _, msg := range snap.Messages {
		seen[msg.ID] = struct{}{}
	}
	return &ReplayFilter{seen: seen}
}

// Skip reports whether ev repeats a snapshot entry. Each id is skipped once.
func (f *ReplayFilter) Skip(ev chatservice.Event) bool {
	if ev.Type != chatservice.EventMessage || ev.Message == nil {
		return false
	}
	if _, ok := f.seen[ev.Message.ID]; !ok {
		return false
	}
	delete(f.seen, ev.Message.ID)
	return true
}
