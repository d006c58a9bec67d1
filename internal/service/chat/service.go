package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/metrics"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Service owns the live sessions: one is created when a user logs in (or a
// demo page loads) and torn down when they log out.
type Service struct {
	dispatcher Dispatcher
	history    HistorySource
	opts       Options
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService bootstraps the session manager. history may be nil.
func NewService(dispatcher Dispatcher, history HistorySource, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		dispatcher: dispatcher,
		history:    history,
		opts:       opts,
		logger:     opts.Logger.With(zap.String("component", "sessions")),
		sessions:   make(map[string]*Session),
	}
}

// CreateSession provisions an empty session. A blank userID creates an
// anonymous demo session; otherwise prior turns are restored from history
// when a source is configured. History failures leave the session empty.
func (s *Service) CreateSession(ctx context.Context, userID string, location *chat.Location) (*Session, error) {
	userID = strings.TrimSpace(userID)
	session := NewSession(chat.Session{
		UserID:   userID,
		Location: location,
	}, s.dispatcher, s.opts)

	if userID != "" && s.history != nil {
		entries, err := s.history.History(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to load chat history", zap.String("user", userID), zap.Error(err))
		} else if err := session.Restore(entries); err != nil {
			s.logger.Warn("failed to restore chat history", zap.String("user", userID), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	metrics.SessionOpened()
	s.logger.Info("session created", zap.String("session", session.ID()), zap.String("user", userID))
	return session, nil
}

// GetSession retrieves a live session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Submit forwards text to the session; see Session.Submit.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Submit(text), nil
}

// LoadTranscript returns the messages of a live session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages(), nil
}

// EndSession closes and forgets a session; an in-flight reply is discarded.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	metrics.SessionClosed()
	s.logger.Info("session ended", zap.String("session", sessionID))
	return nil
}

// Len reports how many sessions are live.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown ends every live session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
		metrics.SessionClosed()
	}
}
