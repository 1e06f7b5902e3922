package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initial := &Message{Type: "state", Data: "hello"}
		_ = hub.Serve(w, r, r.URL.Query().Get("topic"), initial)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, topic string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForCount(t *testing.T, hub *Hub, topic string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count(topic) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients on %s, got %d", want, topic, hub.Count(topic))
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHubDeliversToTopicOnly(t *testing.T) {
	hub := NewHub(context.Background(), func(*http.Request) bool { return true })
	t.Cleanup(hub.Stop)
	srv := newTestServer(t, hub)

	a := dial(t, srv, "view-a")
	b := dial(t, srv, "view-b")
	waitForCount(t, hub, "view-a", 1)
	waitForCount(t, hub, "view-b", 1)

	if msg := readMessage(t, a); msg.Type != "state" {
		t.Fatalf("expected initial state, got %+v", msg)
	}
	if msg := readMessage(t, b); msg.Type != "state" {
		t.Fatalf("expected initial state, got %+v", msg)
	}

	hub.Publish("view-a", "progress", map[string]int{"percent": 50})
	msg := readMessage(t, a)
	if msg.Type != "progress" {
		t.Fatalf("expected progress, got %+v", msg)
	}
	data, ok := msg.Data.(map[string]any)
	if !ok || data["percent"] != float64(50) {
		t.Fatalf("unexpected data %#v", msg.Data)
	}

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var stray Message
	if err := b.ReadJSON(&stray); err == nil {
		t.Fatalf("expected no message on other topic, got %+v", stray)
	}
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := NewHub(context.Background(), func(*http.Request) bool { return true })
	t.Cleanup(hub.Stop)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "view")
	waitForCount(t, hub, "view", 1)
	conn.Close()
	waitForCount(t, hub, "view", 0)
}
