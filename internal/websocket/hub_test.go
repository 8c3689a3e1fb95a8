package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	return hub, cancel, done
}

func TestHub_SendNotificationToUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)

	phone := NewClient(hub, nil, 7)
	laptop := NewClient(hub, nil, 7)
	other := NewClient(hub, nil, 8)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[7]) == 2 && len(hub.clients[8]) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.SendNotificationToUser(7, map[string]interface{}{
		"type":         "new_notification",
		"unread_count": 1,
	}))

	for _, c := range []*Client{phone, laptop} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"new_notification","unread_count":1}`, string(msg))
		case <-time.After(time.Second):
			t.Fatal("session did not receive the notification")
		}
	}
	assert.Empty(t, other.Send)

	hub.Unregister(phone)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[7]) == 1
	}, time.Second, 5*time.Millisecond)
	_, open := <-phone.Send
	assert.False(t, open)
	assert.True(t, hub.IsUserOnline(7))

	cancel()
	<-done

	_, open = <-laptop.Send
	assert.False(t, open)
	assert.False(t, hub.IsUserOnline(8))
}

func TestHub_OfflineUserIsSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	assert.False(t, hub.IsUserOnline(1))
	assert.NoError(t, hub.SendNotificationToUser(1, map[string]string{"type": "new_notification"}))

	cancel()
	<-done
}

func TestHub_RegisterAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	cancel()
	<-done

	late := NewClient(hub, nil, 9)
	registered := make(chan struct{})
	go func() {
		hub.Register(late)
		hub.Unregister(late)
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
	_, open := <-late.Send
	assert.False(t, open)
	assert.False(t, hub.IsUserOnline(9))
}

func TestServe_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	upgrader := NewUpgrader([]string{"http://localhost:3000"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := Serve(hub, upgrader, w, r, 42)
		assert.NoError(t, err)
	}))

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.IsUserOnline(42) }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.SendNotificationToUser(42, map[string]string{"type": "new_notification"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_notification"}`, string(data))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	var pong map[string]string
	require.NoError(t, json.Unmarshal(data, &pong))
	assert.Equal(t, "pong", pong["type"])

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsUserOnline(42) }, 2*time.Second, 10*time.Millisecond)

	server.Close()
	cancel()
	<-done
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"https://bizdir.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://bizdir.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, upgrader.CheckOrigin(r), tt.origin)
	}

	open := NewUpgrader([]string{"*"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anything.example")
	assert.True(t, open.CheckOrigin(r))
}
