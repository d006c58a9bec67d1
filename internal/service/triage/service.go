package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
	keywords "github.com/zhouzirui/medicare/backend/internal/analysis/triage"
	"github.com/zhouzirui/medicare/backend/internal/metrics"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
)

// ErrEmptyMessage is returned for blank messages.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Responder sources.
const (
	SourceKeywords = "keywords"
	SourceModel    = "model"
)

// maxHistoryPerUser caps the in-memory history kept for one user.
const maxHistoryPerUser = 200

// Assessment is a responder's answer to one message.
type Assessment struct {
	Text     string
	Score    int
	Source   string
	Category string
}

// Responder assesses a message with the user's previous turns as context.
type Responder interface {
	Assess(ctx context.Context, history []chat.HistoryEntry, message string) (Assessment, error)
}

// Service answers the chat endpoint. A configured model responder is tried
// first; the keyword rules answer when it is absent or fails.
type Service struct {
	model     Responder
	hospitals hospital.Store
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	history map[string][]chat.HistoryEntry
}

// NewService creates the triage service. model and hospitals may be nil.
func NewService(model Responder, hospitals hospital.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		model:     model,
		hospitals: hospitals,
		logger:    logger.With(zap.String("component", "triage")),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		history:   make(map[string][]chat.HistoryEntry),
	}
}

// Send triages one message and records the turn in the user's history.
func (s *Service) Send(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	assessment := s.assess(ctx, req.UserID, message)
	score := severity.Clamp(assessment.Score)

	resp := &chat.SendResponse{
		ID:            s.newID(),
		Response:      assessment.Text,
		SeverityScore: &score,
		Timestamp:     chat.FormatTimestamp(s.now()),
	}
	if s.hospitals != nil {
		resp.Hospitals = s.hospitals.Suggest(score)
	}

	s.record(req.UserID, message, resp)
	metrics.ObserveTriage(string(severity.Classify(score).Tier), assessment.Source)
	s.logger.Debug("message triaged",
		zap.String("user", req.UserID),
		zap.String("source", assessment.Source),
		zap.String("category", assessment.Category),
		zap.Int("score", score),
	)
	return resp, nil
}

// Dispatch lets sessions use the service in-process.
func (s *Service) Dispatch(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error) {
	return s.Send(ctx, req)
}

// History returns the recorded turns of userID, oldest first.
func (s *Service) History(_ context.Context, userID string) ([]chat.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.HistoryEntry(nil), s.history[userID]...), nil
}

func (s *Service) assess(ctx context.Context, userID, message string) Assessment {
	if s.model != nil {
		history, _ := s.History(ctx, userID)
		assessment, err := s.model.Assess(ctx, history, message)
		if err == nil {
			return assessment
		}
		s.logger.Warn("model triage failed, using keyword fallback", zap.Error(err))
	}

	reply := keywords.Match(message)
	return Assessment{
		Text:     reply.Text,
		Score:    reply.Score,
		Source:   SourceKeywords,
		Category: string(reply.Category),
	}
}

func (s *Service) record(userID, message string, resp *chat.SendResponse) {
	entry := chat.HistoryEntry{
		ID:            resp.ID,
		Message:       message,
		Response:      resp.Response,
		SeverityScore: resp.SeverityScore,
		Timestamp:     resp.Timestamp,
		Hospitals:     resp.Hospitals,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.history[userID], entry)
	if len(entries) > maxHistoryPerUser {
		entries = append([]chat.HistoryEntry(nil), entries[len(entries)-maxHistoryPerUser:]...)
	}
	s.history[userID] = entries
}
