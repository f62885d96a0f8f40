// Package realtime is the WebSocket boundary for presence and
// collaboration events. Connections are grouped into rooms keyed by the
// external document id; the gateway mutates the presence registry and
// re-broadcasts derived state to room members.
//
// The transport performs no authentication: any connection may claim any
// user identity in its join payload (known trust gap).
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"coscribe/api/internal/presence"
)

const (
	// client -> server
	eventJoinDocument   = "join-document"
	eventCursorMove     = "cursor-move"
	eventDocumentShared = "document-shared"
	// server -> client
	eventActiveUsers  = "active-users-update"
	eventCursorUpdate = "cursor-update"
	eventShareUpdate  = "share-update"
	eventUserLeft     = "user-left"
)

type inboundEvent struct {
	Event       string          `json:"event"`
	DocumentID  string          `json:"documentId"`
	User        presence.User   `json:"user"`
	UserID      string          `json:"userId"`
	Cursor      json.RawMessage `json:"cursor"`
	Email       string          `json:"email"`
	AccessLevel string          `json:"accessLevel"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes; reads stay on the connection's own goroutine
}

func (c *client) send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

// Gateway multiplexes all realtime events over persistent per-client
// connections. The presence registry is handed in at startup; the
// gateway owns room membership only.
type Gateway struct {
	registry *presence.Registry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
}

func NewGateway(registry *presence.Registry) *Gateway {
	return &Gateway{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn}

	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()

	defer g.disconnect(c)
	for {
		var event inboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		g.handle(c, event)
	}
}

func (g *Gateway) handle(c *client, event inboundEvent) {
	switch event.Event {
	case eventJoinDocument:
		if event.DocumentID == "" || event.User.ID == "" {
			return
		}
		g.joinRoom(event.DocumentID, c)
		entries := g.registry.Join(event.DocumentID, event.User, c)
		g.broadcastRoom(event.DocumentID, nil, map[string]any{
			"event":      eventActiveUsers,
			"documentId": event.DocumentID,
			"users":      entries,
		})

	case eventCursorMove:
		update, ok := g.registry.UpdateCursor(event.DocumentID, event.UserID, event.Cursor)
		if !ok {
			return
		}
		g.broadcastRoom(event.DocumentID, c, map[string]any{
			"event":      eventCursorUpdate,
			"documentId": event.DocumentID,
			"userId":     update.UserID,
			"name":       update.Name,
			"color":      update.Color,
			"cursor":     update.Cursor,
		})

	case eventDocumentShared:
		g.BroadcastShare(event.DocumentID, event.Email, event.AccessLevel)

	default:
		log.Printf("realtime: ignoring unknown event %q", event.Event)
	}
}

// BroadcastShare notifies every connected client that a document was
// shared. Deliberately process-wide rather than room-scoped: the
// recipient may not have joined any room for that document yet.
func (g *Gateway) BroadcastShare(documentID, email, accessLevel string) {
	g.mu.Lock()
	targets := make([]*client, 0, len(g.clients))
	for c := range g.clients {
		targets = append(targets, c)
	}
	g.mu.Unlock()

	payload := map[string]any{
		"event":       eventShareUpdate,
		"documentId":  documentID,
		"email":       email,
		"accessLevel": accessLevel,
	}
	for _, c := range targets {
		if err := c.send(payload); err != nil {
			log.Printf("realtime: share broadcast write failed: %v", err)
		}
	}
}

func (g *Gateway) disconnect(c *client) {
	g.mu.Lock()
	delete(g.clients, c)
	for documentID, members := range g.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(g.rooms, documentID)
		}
	}
	g.mu.Unlock()

	for _, departure := range g.registry.Leave(c) {
		g.broadcastRoom(departure.DocumentID, nil, map[string]any{
			"event":      eventUserLeft,
			"documentId": departure.DocumentID,
			"userId":     departure.UserID,
		})
	}
	_ = c.conn.Close()
}

func (g *Gateway) joinRoom(documentID string, c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members := g.rooms[documentID]
	if members == nil {
		members = make(map[*client]struct{})
		g.rooms[documentID] = members
	}
	members[c] = struct{}{}
}

// broadcastRoom delivers payload to every current member of the
// document's room, skipping exclude when set (sender-excluded events).
func (g *Gateway) broadcastRoom(documentID string, exclude *client, payload any) {
	g.mu.Lock()
	targets := make([]*client, 0, len(g.rooms[documentID]))
	for c := range g.rooms[documentID] {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	g.mu.Unlock()

	for _, c := range targets {
		if err := c.send(payload); err != nil {
			log.Printf("realtime: room broadcast write failed: %v", err)
		}
	}
}
