package chat

import (
	"context"

	"github.com/zhouzirui/medicare/backend/internal/model/chat"
)

// Dispatcher answers one chat turn. Implementations must return once ctx is done.
type Dispatcher interface {
	Dispatch(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error) {
	return f(ctx, req)
}

// HistorySource loads settled turns for a user when a session is created.
type HistorySource interface {
	History(ctx context.Context, userID string) ([]chat.HistoryEntry, error)
}
