package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
)

// ErrMalformedReply reports a backend reply that cannot be shown to the user.
var ErrMalformedReply = errors.New("malformed chat reply")

// Location is the optional coordinate pair sent along with a message.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SendRequest is the body of POST /api/chat/send.
type SendRequest struct {
	Message      string    `json:"message"`
	UserID       string    `json:"user_id,omitempty"`
	UserLocation *Location `json:"user_location,omitempty"`
}

// SendResponse is the success body of POST /api/chat/send.
type SendResponse struct {
	ID            string              `json:"id"`
	Response      string              `json:"response"`
	SeverityScore *int                `json:"severity_score,omitempty"`
	Timestamp     string              `json:"timestamp"`
	Hospitals     []hospital.Hospital `json:"hospitals,omitempty"`
}

// Validate rejects replies without text or with a score outside 0..100.
func (r SendResponse) Validate() error {
	if strings.TrimSpace(r.Response) == "" {
		return fmt.Errorf("%w: empty response text", ErrMalformedReply)
	}
	if r.SeverityScore != nil && (*r.SeverityScore < 0 || *r.SeverityScore > 100) {
		return fmt.Errorf("%w: severity_score %d out of range", ErrMalformedReply, *r.SeverityScore)
	}
	return nil
}

// HistoryEntry is one settled turn as returned by GET /api/chat/history/{userID}.
type HistoryEntry struct {
	ID            string              `json:"id"`
	Message       string              `json:"message"`
	Response      string              `json:"response"`
	SeverityScore *int                `json:"severity_score,omitempty"`
	Timestamp     string              `json:"timestamp"`
	Hospitals     []hospital.Hospital `json:"hospitals,omitempty"`
}

// HistoryResponse wraps the history list the way the backend returns it.
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO format some backends emit.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a server clock value for the wire.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}
