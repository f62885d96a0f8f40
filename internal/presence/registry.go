// Package presence tracks which users currently hold an open connection
// to each document. State is process-local and rebuilt from scratch on
// restart; if several API processes are deployed they will disagree
// about presence (known limitation, single presence process assumed).
package presence

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
)

// palette of display colors handed out on join. Selection is uniform
// random with no collision avoidance, so two users can share a color.
var palette = [10]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// User is the identity a client claims when joining a document.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is one connected user within a document.
type Entry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`

	conn any
}

// CursorUpdate is a cursor payload enriched with the sender's name and
// color, ready for broadcast to the rest of the room.
type CursorUpdate struct {
	UserID string          `json:"userId"`
	Name   string          `json:"name"`
	Color  string          `json:"color"`
	Cursor json.RawMessage `json:"cursor"`
}

// Departure records that a user left a document, one per document the
// disconnecting connection was joined to.
type Departure struct {
	DocumentID string
	UserID     string
}

// Registry is the process-wide presence state. Handlers run on many
// goroutines, so every read and write holds the single mutex.
type Registry struct {
	mu   sync.Mutex
	docs map[string]map[string]*Entry // documentID -> userID -> entry
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]map[string]*Entry)}
}

// Join registers the user under the document, creating the per-document
// set on first join, and returns the full updated entry list for the
// active-users broadcast. Rejoining replaces the previous entry.
func (r *Registry) Join(documentID string, user User, conn any) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.docs[documentID]
	if room == nil {
		room = make(map[string]*Entry)
		r.docs[documentID] = room
	}
	room[user.ID] = &Entry{
		UserID: user.ID,
		Name:   user.Name,
		Color:  palette[rand.IntN(len(palette))],
		conn:   conn,
	}
	return snapshot(room)
}

// UpdateCursor enriches a cursor payload with the sender's name and
// color. A cursor from a user who never joined is a stale event: the
// second return is false and nothing should be broadcast.
func (r *Registry) UpdateCursor(documentID, userID string, cursor json.RawMessage) (CursorUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.docs[documentID][userID]
	if !ok {
		return CursorUpdate{}, false
	}
	return CursorUpdate{
		UserID: entry.UserID,
		Name:   entry.Name,
		Color:  entry.Color,
		Cursor: cursor,
	}, true
}

// ActiveUsers returns the current entry list for a document.
func (r *Registry) ActiveUsers(documentID string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.docs[documentID])
}

// Leave removes every entry held by the given connection, scanning all
// documents, and garbage-collects documents whose presence set becomes
// empty. It returns one departure per affected document so the gateway
// can emit the user-left broadcasts.
func (r *Registry) Leave(conn any) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	var departed []Departure
	for documentID, room := range r.docs {
		for userID, entry := range room {
			if entry.conn == conn {
				delete(room, userID)
				departed = append(departed, Departure{DocumentID: documentID, UserID: userID})
			}
		}
		if len(room) == 0 {
			delete(r.docs, documentID)
		}
	}
	return departed
}

func snapshot(room map[string]*Entry) []Entry {
	entries := make([]Entry, 0, len(room))
	for _, entry := range room {
		entries = append(entries, *entry)
	}
	return entries
}
