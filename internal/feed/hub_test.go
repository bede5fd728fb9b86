package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channel=" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHubPublishReachesChannelSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dial(t, srv, "c1")
	second := dial(t, srv, "c2")
	require.Eventually(t, func() bool {
		return hub.Subscribers("c1") == 1 && hub.Subscribers("c2") == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 2, hub.Connections())

	require.Equal(t, 1, hub.Publish("c1", map[string]string{"handle": "abc"}))
	require.Equal(t, 0, hub.Publish("unknown", "ignored"))

	msg := readMessage(t, first)
	require.Equal(t, TypeRelease, msg.Type)
	require.Equal(t, "c1", msg.ChannelID)
	require.Equal(t, map[string]any{"handle": "abc"}, msg.Data)

	require.NoError(t, second.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := second.ReadMessage()
	require.Error(t, err)
}

func TestHubAnswersPing(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "c1")
	require.NoError(t, conn.WriteJSON(clientMessage{Type: TypePing}))
	require.Equal(t, TypePong, readMessage(t, conn).Type)
}

func TestHubRequiresChannel(t *testing.T) {
	hub := NewHub(nil)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "c1")
	require.Eventually(t, func() bool { return hub.Subscribers("c1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "c1")
	require.Eventually(t, func() bool { return hub.Subscribers("c1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	require.Equal(t, 0, hub.Connections())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
