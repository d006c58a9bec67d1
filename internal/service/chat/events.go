package chat

import "github.com/zhouzirui/medicare/backend/internal/model/chat"

// EventType enumerates session notifications.
type EventType string

const (
	EventMessage EventType = "message"
	EventPending EventType = "pending"
	EventClosed  EventType = "closed"
)

// Event is pushed to subscribers whenever the transcript or pending flag changes.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	Message   *chat.Message `json:"message,omitempty"`
	Pending   bool          `json:"pending"`
}

const subscriberBuffer = 32

type subscriber struct {
	ch chan Event
}

// deliver never blocks; a full subscriber misses the event.
func (s *subscriber) deliver(ev Event) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}
