// Package remote talks to an external chat backend over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/model/chat"
)

// ErrUnexpectedStatus is wrapped for every non-2xx backend response.
var ErrUnexpectedStatus = errors.New("chat backend returned unexpected status")

const maxErrorBody = 4 << 10

// Client implements the session dispatcher and history source against
// POST /api/chat/send and GET /api/chat/history/{userID}.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. timeout bounds every HTTP call; the
// session additionally bounds each turn through its context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "remote"), zap.String("backend", baseURL)),
	}
}

// Dispatch posts one message and returns the validated reply.
func (c *Client) Dispatch(ctx context.Context, req chat.SendRequest) (*chat.SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	var reply chat.SendResponse
	if err := c.do(httpReq, &reply); err != nil {
		return nil, err
	}
	if err := reply.Validate(); err != nil {
		return nil, err
	}
	return &reply, nil
}

// History fetches the stored turns of userID.
func (c *Client) History(ctx context.Context, userID string) ([]chat.HistoryEntry, error) {
	endpoint := c.baseURL + "/api/chat/history/" + url.PathEscape(userID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create history request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	var resp chat.HistoryResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call chat backend: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s, body: %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrMalformedReply, err)
	}
	return nil
}
