package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/medicare/backend/internal/model/chat"
)

func TestDispatchPostsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chat.SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fever", req.Message)
		assert.Equal(t, "u1", req.UserID)
		require.NotNil(t, req.UserLocation)
		assert.Equal(t, 40.7, req.UserLocation.Latitude)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"r1","response":"drink water","severity_score":45,"timestamp":"2024-05-01T10:00:00"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second, nil)
	reply, err := client.Dispatch(context.Background(), chat.SendRequest{
		Message:      "fever",
		UserID:       "u1",
		UserLocation: &chat.Location{Latitude: 40.7, Longitude: -74},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", reply.ID)
	assert.Equal(t, "drink water", reply.Response)
	require.NotNil(t, reply.SeverityScore)
	assert.Equal(t, 45, *reply.SeverityScore)
}

func TestDispatchRejectsBadResponses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`, want: ErrUnexpectedStatus},
		{name: "not json", status: http.StatusOK, body: `<html>`, want: chat.ErrMalformedReply},
		{name: "empty text", status: http.StatusOK, body: `{"response":""}`, want: chat.ErrMalformedReply},
		{name: "score out of range", status: http.StatusOK, body: `{"response":"x","severity_score":101}`, want: chat.ErrMalformedReply},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second, nil).Dispatch(context.Background(), chat.SendRequest{Message: "hi"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestDispatchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, time.Minute, nil).Dispatch(ctx, chat.SendRequest{Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chat/history/user 1", r.URL.Path)
		_, _ = w.Write([]byte(`{"history":[{"id":"h1","message":"cold","response":"rest","severity_score":20,"timestamp":"2024-05-01 09:00:00"}]}`))
	}))
	defer server.Close()

	entries, err := NewClient(server.URL, time.Second, nil).History(context.Background(), "user 1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cold", entries[0].Message)
	assert.Equal(t, 20, *entries[0].SeverityScore)
}
