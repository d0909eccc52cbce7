package http

import (
	"context"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/lorrc/conversation-service/internal/adapters/primary/websocket"
	"github.com/lorrc/conversation-service/internal/auth"
	"github.com/lorrc/conversation-service/internal/config"
	"github.com/lorrc/conversation-service/internal/core/domain"
)

func newWebSocketServer(t *testing.T) (*httptest.Server, *wsAdapter.Hub, *auth.TokenManager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := wsAdapter.NewHub(wsAdapter.HubConfig{}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	tm := auth.NewTokenManager("test-secret", time.Hour)
	cfg := &config.Config{
		App: config.AppConfig{Environment: "development"},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    time.Second,
			PongWait:        2 * time.Second,
		},
	}

	srv := httptest.NewServer(NewWebSocketHandler(hub, tm, cfg, logger))
	t.Cleanup(srv.Close)
	return srv, hub, tm
}

func TestWebSocketHandler_RejectsMissingOrBadToken(t *testing.T) {
	srv, _, _ := newWebSocketServer(t)

	for _, query := range []string{"", "?token=not-a-jwt"} {
		resp, err := stdhttp.Get(srv.URL + query)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode, "query %q", query)
	}
}

func TestWebSocketHandler_SubscribeAndReceive(t *testing.T) {
	srv, hub, tm := newWebSocketServer(t)

	vendorID := uuid.New()
	token, err := tm.GenerateToken(domain.NewVendor(vendorID))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	feed := domain.NotificationsTopic(vendorID)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    wsAdapter.CommandSubscribe,
		"payload": wsAdapter.SubscribePayload{Topic: feed.String()},
	}))
	require.Eventually(t, func() bool { return hub.SubscriberCount(feed) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(feed))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var sig domain.Signal
	require.NoError(t, conn.ReadJSON(&sig))
	assert.Equal(t, domain.SignalChanged, sig.Type)
	assert.Equal(t, feed.String(), sig.Topic)
}
