package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"coscribe/api/internal/presence"
)

func dialGateway(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var payload map[string]any
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read: %v", err)
	}
	return payload
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var payload map[string]any
	if err := conn.ReadJSON(&payload); err == nil {
		t.Fatalf("expected no event, got %v", payload)
	}
}

func TestJoinBroadcastsActiveUsers(t *testing.T) {
	server := httptest.NewServer(NewGateway(presence.NewRegistry()))
	defer server.Close()

	connA := dialGateway(t, server)
	sendEvent(t, connA, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u1", "name": "Ada"},
	})
	got := readEvent(t, connA)
	if got["event"] != "active-users-update" {
		t.Fatalf("event = %v, want active-users-update", got["event"])
	}
	if users := got["users"].([]any); len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}

	connB := dialGateway(t, server)
	sendEvent(t, connB, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u2", "name": "Grace"},
	})

	// Both room members, the joiner included, see the updated list.
	for _, conn := range []*websocket.Conn{connA, connB} {
		got = readEvent(t, conn)
		if got["event"] != "active-users-update" {
			t.Fatalf("event = %v, want active-users-update", got["event"])
		}
		if users := got["users"].([]any); len(users) != 2 {
			t.Fatalf("users = %d, want 2", len(users))
		}
	}
}

func TestCursorMoveExcludesSender(t *testing.T) {
	server := httptest.NewServer(NewGateway(presence.NewRegistry()))
	defer server.Close()

	connA := dialGateway(t, server)
	sendEvent(t, connA, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u1", "name": "Ada"},
	})
	readEvent(t, connA)

	connB := dialGateway(t, server)
	sendEvent(t, connB, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u2", "name": "Grace"},
	})
	readEvent(t, connA)
	readEvent(t, connB)

	sendEvent(t, connB, map[string]any{
		"event":      "cursor-move",
		"documentId": "doc_1",
		"userId":     "u2",
		"cursor":     json.RawMessage(`{"index":7}`),
	})

	got := readEvent(t, connA)
	if got["event"] != "cursor-update" {
		t.Fatalf("event = %v, want cursor-update", got["event"])
	}
	if got["userId"] != "u2" || got["name"] != "Grace" {
		t.Fatalf("cursor update not enriched: %v", got)
	}
	expectSilence(t, connB)
}

func TestCursorMoveFromStrangerEmitsNothing(t *testing.T) {
	server := httptest.NewServer(NewGateway(presence.NewRegistry()))
	defer server.Close()

	connA := dialGateway(t, server)
	sendEvent(t, connA, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u1", "name": "Ada"},
	})
	readEvent(t, connA)

	connB := dialGateway(t, server)
	sendEvent(t, connB, map[string]any{
		"event":      "cursor-move",
		"documentId": "doc_1",
		"userId":     "ghost",
		"cursor":     json.RawMessage(`{"index":0}`),
	})
	expectSilence(t, connA)
}

func TestDisconnectBroadcastsSingleUserLeft(t *testing.T) {
	server := httptest.NewServer(NewGateway(presence.NewRegistry()))
	defer server.Close()

	connA := dialGateway(t, server)
	sendEvent(t, connA, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u1", "name": "Ada"},
	})
	readEvent(t, connA)

	connB := dialGateway(t, server)
	sendEvent(t, connB, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u2", "name": "Grace"},
	})
	readEvent(t, connA)
	readEvent(t, connB)

	_ = connB.Close()

	got := readEvent(t, connA)
	if got["event"] != "user-left" {
		t.Fatalf("event = %v, want user-left", got["event"])
	}
	if got["userId"] != "u2" {
		t.Fatalf("userId = %v, want u2", got["userId"])
	}
	expectSilence(t, connA)
}

func TestShareUpdateIsProcessWide(t *testing.T) {
	gateway := NewGateway(presence.NewRegistry())
	server := httptest.NewServer(gateway)
	defer server.Close()

	connA := dialGateway(t, server)
	sendEvent(t, connA, map[string]any{
		"event":      "join-document",
		"documentId": "doc_1",
		"user":       map[string]string{"id": "u1", "name": "Ada"},
	})
	readEvent(t, connA)

	// Bystander never joins any room but still receives the share event.
	bystander := dialGateway(t, server)
	// Give the gateway a beat to register the bystander's connection.
	time.Sleep(50 * time.Millisecond)

	gateway.BroadcastShare("doc_1", "reader@x.com", "reader")

	for _, conn := range []*websocket.Conn{connA, bystander} {
		got := readEvent(t, conn)
		if got["event"] != "share-update" {
			t.Fatalf("event = %v, want share-update", got["event"])
		}
		if got["email"] != "reader@x.com" || got["accessLevel"] != "reader" {
			t.Fatalf("unexpected share payload: %v", got)
		}
	}
}
