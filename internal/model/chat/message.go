package chat

import (
	"time"

	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
)

// Author identifies who wrote a transcript entry.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Message is one entry of a session transcript. Text may contain newlines.
type Message struct {
	ID            string              `json:"id"`
	Author        Author              `json:"author"`
	Text          string              `json:"text"`
	CreatedAt     time.Time           `json:"createdAt"`
	SeverityScore *int                `json:"severityScore,omitempty"`
	Hospitals     []hospital.Hospital `json:"hospitals,omitempty"`
	// Failed marks the generic apology appended when a turn could not be answered.
	Failed bool `json:"failed,omitempty"`
}
