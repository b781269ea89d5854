package httpapi

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-lab/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T) (*httptest.Server, *presence.Registry) {
	t.Helper()
	registry := presence.NewRegistry()
	handler := NewWSHandler(slog.Default(), registry, 32)

	router := gin.New()
	router.GET("/ws", handler.Connect)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, registry
}

func dialWS(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) presence.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt presence.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestWSHandler_RequiresIdentity(t *testing.T) {
	server, _ := newWSServer(t)

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWSHandler_OnlineSetBroadcast(t *testing.T) {
	req := require.New(t)
	server, _ := newWSServer(t)

	alice := dialWS(t, server, "alice")

	evt := readEvent(t, alice)
	req.Equal(presence.EventOnlineUsers, evt.Type)
	req.Equal([]any{"alice"}, evt.Data)

	bob := dialWS(t, server, "bob")

	// Both parties see the grown set.
	evt = readEvent(t, alice)
	req.Equal([]any{"alice", "bob"}, evt.Data)
	evt = readEvent(t, bob)
	req.Equal([]any{"alice", "bob"}, evt.Data)

	// Closing bob shrinks the set for alice.
	req.NoError(bob.Close())
	evt = readEvent(t, alice)
	req.Equal(presence.EventOnlineUsers, evt.Type)
	req.Equal([]any{"alice"}, evt.Data)
}

func TestWSHandler_DeliverReachesClient(t *testing.T) {
	req := require.New(t)
	server, registry := newWSServer(t)

	alice := dialWS(t, server, "alice")
	readEvent(t, alice) // initial online set

	sink, online := registry.Resolve("alice")
	req.True(online)

	req.NoError(sink.Deliver(presence.Event{
		Type: presence.EventNewMessage,
		Data: map[string]string{"message": "ping"},
	}))

	evt := readEvent(t, alice)
	req.Equal(presence.EventNewMessage, evt.Type)
	data, ok := evt.Data.(map[string]any)
	req.True(ok)
	req.Equal("ping", data["message"])
}

func TestWSSink_BackpressureDropsInsteadOfBlocking(t *testing.T) {
	req := require.New(t)

	// No writer goroutine: the buffer fills and stays full.
	sink := newWSSink(slog.Default(), nil, 2)

	for i := 0; i < 5; i++ {
		req.NoError(sink.Deliver(presence.Event{Type: presence.EventNewMessage}))
	}

	// With the buffer still full, Close makes delivery fail instead of drop.
	sink.Close()
	req.Error(sink.Deliver(presence.Event{Type: presence.EventNewMessage}))

	// Close is idempotent.
	sink.Close()
}
