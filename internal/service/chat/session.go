package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/metrics"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
)

// ApologyText is the only thing a user sees when a turn fails.
const ApologyText = "Sorry, I encountered an error. Please try again."

// DefaultTimeout bounds a turn when Options.Timeout is not set.
const DefaultTimeout = 30 * time.Second

var (
	ErrSessionBusy   = errors.New("session already has messages or a turn in flight")
	ErrSessionClosed = errors.New("session closed")
)

// Options tunes a Session. The zero value is usable.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Session is the chat state machine of one user: idle, or awaiting the reply
// to exactly one turn. Submissions made while a turn is in flight are ignored,
// so the transcript always alternates user and bot entries.
type Session struct {
	info       chat.Session
	dispatcher Dispatcher
	opts       Options
	logger     *zap.Logger

	mu       sync.Mutex
	messages []chat.Message
	ids      map[string]struct{}
	pending  bool
	turn     uint64
	started  time.Time
	cancel   context.CancelFunc
	idle     chan struct{}
	closed   bool
	subs     map[*subscriber]struct{}

	inflight sync.WaitGroup
}

// NewSession creates an empty idle session answered by dispatcher.
func NewSession(info chat.Session, dispatcher Dispatcher, opts Options) *Session {
	opts = opts.withDefaults()
	if info.ID == "" {
		info.ID = opts.NewID()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = opts.Now()
	}

	idle := make(chan struct{})
	close(idle)

	return &Session{
		info:       info,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     opts.Logger.With(zap.String("session", info.ID)),
		messages:   make([]chat.Message, 0, 16),
		ids:        make(map[string]struct{}),
		idle:       idle,
		subs:       make(map[*subscriber]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.info.ID
}

// Info returns the session metadata.
func (s *Session) Info() chat.Session {
	return s.info
}

// Submit appends text as a user message and dispatches it in the background.
// Blank text, a turn already in flight, or a closed session make it a no-op
// that returns false.
func (s *Session) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ObserveSubmit(false)
		return false
	}

	s.mu.Lock()
	if s.closed || s.pending {
		pending := s.pending
		s.mu.Unlock()
		metrics.ObserveSubmit(false)
		s.logger.Debug("submission ignored", zap.Bool("pending", pending))
		return false
	}

	s.pending = true
	s.turn++
	turn := s.turn
	s.started = time.Now()
	s.idle = make(chan struct{})
	s.appendLocked(chat.Message{
		ID:        s.uniqueIDLocked(""),
		Author:    chat.AuthorUser,
		Text:      text,
		CreatedAt: s.opts.Now(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	s.cancel = cancel
	req := chat.SendRequest{Message: text, UserID: s.info.UserID, UserLocation: s.info.Location}

	s.inflight.Add(1)
	s.publishLocked(Event{Type: EventPending, Pending: true})
	s.mu.Unlock()

	metrics.ObserveSubmit(true)
	go s.dispatch(ctx, cancel, turn, req)
	return true
}

type dispatchResult struct {
	reply *chat.SendResponse
	err   error
}

func (s *Session) dispatch(ctx context.Context, cancel context.CancelFunc, turn uint64, req chat.SendRequest) {
	defer s.inflight.Done()
	defer cancel()

	// The dispatcher runs on its own goroutine so the timeout holds even if it
	// ignores ctx.
	done := make(chan dispatchResult, 1)
	go func() {
		reply, err := s.dispatcher.Dispatch(ctx, req)
		done <- dispatchResult{reply: reply, err: err}
	}()

	var res dispatchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err == nil && res.reply == nil {
		res.err = fmt.Errorf("%w: no reply body", chat.ErrMalformedReply)
	}
	if res.err == nil {
		res.err = res.reply.Validate()
	}
	if res.err != nil {
		s.fail(turn, res.err)
		return
	}
	s.receive(turn, *res.reply)
}

// OnReplyReceived settles the outstanding turn with reply. Malformed replies
// settle it as a failure. It reports false when no turn is outstanding.
func (s *Session) OnReplyReceived(reply chat.SendResponse) bool {
	turn := s.currentTurn()
	if err := reply.Validate(); err != nil {
		return s.fail(turn, err)
	}
	return s.receive(turn, reply)
}

// OnReplyFailed settles the outstanding turn with the generic apology.
// reason is only logged. It reports false when no turn is outstanding.
func (s *Session) OnReplyFailed(reason error) bool {
	return s.fail(s.currentTurn(), reason)
}

func (s *Session) currentTurn() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) receive(turn uint64, reply chat.SendResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settleableLocked(turn) {
		s.logger.Debug("stale reply dropped", zap.Uint64("turn", turn))
		return false
	}

	createdAt, ok := chat.ParseTimestamp(reply.Timestamp)
	if !ok {
		createdAt = s.opts.Now()
	}

	s.pending = false
	s.appendLocked(chat.Message{
		ID:            s.uniqueIDLocked(reply.ID),
		Author:        chat.AuthorBot,
		Text:          reply.Response,
		CreatedAt:     createdAt,
		SeverityScore: copyScore(reply.SeverityScore),
		Hospitals:     append([]hospital.Hospital(nil), reply.Hospitals...),
	})
	s.settleLocked(metrics.OutcomeReply)
	return true
}

func (s *Session) fail(turn uint64, reason error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settleableLocked(turn) {
		s.logger.Debug("stale failure dropped", zap.Uint64("turn", turn), zap.Error(reason))
		return false
	}

	s.logger.Warn("chat turn failed", zap.Uint64("turn", turn), zap.Error(reason))
	s.pending = false
	s.appendLocked(chat.Message{
		ID:        s.uniqueIDLocked(""),
		Author:    chat.AuthorBot,
		Text:      ApologyText,
		CreatedAt: s.opts.Now(),
		Failed:    true,
	})
	s.settleLocked(metrics.OutcomeFailed)
	return true
}

func (s *Session) settleableLocked(turn uint64) bool {
	return !s.closed && s.pending && turn == s.turn
}

func (s *Session) settleLocked(outcome string) {
	s.pending = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	close(s.idle)
	metrics.ObserveTurn(outcome, time.Since(s.started))
	s.publishLocked(Event{Type: EventPending, Pending: false})
}

// Restore seeds an empty idle session with settled turns loaded from history.
// Entries without question or answer, or with an invalid score, are skipped.
func (s *Session) Restore(entries []chat.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.pending || len(s.messages) > 0 {
		return ErrSessionBusy
	}

	for _, entry := range entries {
		question := strings.TrimSpace(entry.Message)
		reply := chat.SendResponse{Response: entry.Response, SeverityScore: entry.SeverityScore}
		if question == "" || reply.Validate() != nil {
			s.logger.Debug("history entry skipped", zap.String("entry", entry.ID))
			continue
		}

		ts, ok := chat.ParseTimestamp(entry.Timestamp)
		if !ok {
			ts = s.opts.Now()
		}

		s.appendLocked(chat.Message{
			ID:        s.uniqueIDLocked(""),
			Author:    chat.AuthorUser,
			Text:      question,
			CreatedAt: ts,
		})
		s.appendLocked(chat.Message{
			ID:            s.uniqueIDLocked(entry.ID),
			Author:        chat.AuthorBot,
			Text:          entry.Response,
			CreatedAt:     ts,
			SeverityScore: copyScore(entry.SeverityScore),
			Hospitals:     append([]hospital.Hospital(nil), entry.Hospitals...),
		})
	}
	return nil
}

// Messages returns a copy of the transcript in insertion order.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.messages...)
}

// Pending reports whether a turn is awaiting its reply.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Typing is the typing-indicator flag; it mirrors Pending.
func (s *Session) Typing() bool {
	return s.Pending()
}

// HasError reports whether the last turn ended with the apology.
func (s *Session) HasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasErrorLocked()
}

func (s *Session) hasErrorLocked() bool {
	n := len(s.messages)
	return n > 0 && s.messages[n-1].Failed
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	Session  chat.Session   `json:"session"`
	Messages []chat.Message `json:"messages"`
	Pending  bool           `json:"pending"`
	Typing   bool           `json:"typing"`
	Error    bool           `json:"error"`
}

// Snapshot copies transcript and flags under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Session:  s.info,
		Messages: append([]chat.Message(nil), s.messages...),
		Pending:  s.pending,
		Typing:   s.pending,
		Error:    s.hasErrorLocked(),
	}
}

// Wait blocks until the session is idle or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a stream of session events and a function that cancels it.
// The stream is closed when the session closes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.subs[sub] = struct{}{}

	return sub.ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[sub]; ok {
			delete(s.subs, sub)
			close(sub.ch)
		}
	}
}

// Close discards the session. An in-flight request is cancelled and its
// result dropped; later submissions are ignored. Close waits for the
// dispatch goroutine to exit.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.pending {
		s.pending = false
		close(s.idle)
		metrics.ObserveTurn(metrics.OutcomeDiscarded, time.Since(s.started))
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.publishLocked(Event{Type: EventClosed})
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
	s.mu.Unlock()

	s.inflight.Wait()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// appendLocked publishes msg with the pending state it leaves the session in:
// true for the entry that opens a turn, false for the one that settles it.
func (s *Session) appendLocked(msg chat.Message) {
	s.messages = append(s.messages, msg)
	s.ids[msg.ID] = struct{}{}
	s.publishLocked(Event{Type: EventMessage, Message: &msg, Pending: s.pending})
}

// uniqueIDLocked keeps preferred unless it is blank or already used.
func (s *Session) uniqueIDLocked(preferred string) string {
	id := strings.TrimSpace(preferred)
	for id == "" || s.hasIDLocked(id) {
		id = s.opts.NewID()
	}
	return id
}

func (s *Session) hasIDLocked(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Session) publishLocked(ev Event) {
	ev.SessionID = s.info.ID
	for sub := range s.subs {
		if !sub.deliver(ev) {
			s.logger.Debug("subscriber lagging, event dropped", zap.String("event", string(ev.Type)))
		}
	}
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}
