package presence

import (
	"encoding/json"
	"testing"
)

type fakeConn struct{ name string }

func TestJoinReturnsFullRoom(t *testing.T) {
	reg := NewRegistry()
	connA, connB := &fakeConn{"a"}, &fakeConn{"b"}

	entries := reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, connA)
	if len(entries) != 1 {
		t.Fatalf("entries after first join = %d, want 1", len(entries))
	}
	if entries[0].UserID != "u1" || entries[0].Name != "Ada" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[0].Color == "" {
		t.Fatal("join assigned no color")
	}

	entries = reg.Join("doc_1", User{ID: "u2", Name: "Grace"}, connB)
	if len(entries) != 2 {
		t.Fatalf("entries after second join = %d, want 2", len(entries))
	}
}

func TestJoinAssignsPaletteColor(t *testing.T) {
	reg := NewRegistry()
	entries := reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, &fakeConn{})
	got := entries[0].Color
	for _, c := range palette {
		if c == got {
			return
		}
	}
	t.Fatalf("color %q not from the palette", got)
}

func TestUpdateCursorEnrichesPayload(t *testing.T) {
	reg := NewRegistry()
	reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, &fakeConn{})

	cursor := json.RawMessage(`{"index":4,"length":0}`)
	update, ok := reg.UpdateCursor("doc_1", "u1", cursor)
	if !ok {
		t.Fatal("UpdateCursor for joined user returned ok=false")
	}
	if update.Name != "Ada" || update.Color == "" {
		t.Fatalf("update not enriched: %+v", update)
	}
	if string(update.Cursor) != string(cursor) {
		t.Fatalf("cursor payload changed: %s", update.Cursor)
	}
}

func TestUpdateCursorFromStrangerIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, &fakeConn{})

	if _, ok := reg.UpdateCursor("doc_1", "ghost", nil); ok {
		t.Fatal("cursor from a user who never joined must not broadcast")
	}
	if _, ok := reg.UpdateCursor("doc_unknown", "u1", nil); ok {
		t.Fatal("cursor for an unknown document must not broadcast")
	}
}

func TestLeaveRemovesOnlyThatConnection(t *testing.T) {
	reg := NewRegistry()
	connA, connB := &fakeConn{"a"}, &fakeConn{"b"}
	reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, connA)
	reg.Join("doc_1", User{ID: "u2", Name: "Grace"}, connB)

	departed := reg.Leave(connA)
	if len(departed) != 1 {
		t.Fatalf("departures = %d, want 1", len(departed))
	}
	if departed[0].DocumentID != "doc_1" || departed[0].UserID != "u1" {
		t.Fatalf("unexpected departure %+v", departed[0])
	}

	remaining := reg.ActiveUsers("doc_1")
	if len(remaining) != 1 || remaining[0].UserID != "u2" {
		t.Fatalf("remaining = %+v, want only u2", remaining)
	}
}

func TestLeaveSpansDocumentsAndCollectsEmptyRooms(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{"a"}
	reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, conn)
	reg.Join("doc_2", User{ID: "u1", Name: "Ada"}, conn)

	departed := reg.Leave(conn)
	if len(departed) != 2 {
		t.Fatalf("departures = %d, want 2", len(departed))
	}
	if got := reg.ActiveUsers("doc_1"); len(got) != 0 {
		t.Fatalf("doc_1 still has entries: %+v", got)
	}
	// Empty rooms are dropped from the registry entirely.
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.docs) != 0 {
		t.Fatalf("registry kept %d empty rooms", len(reg.docs))
	}
}

func TestLeaveUnknownConnectionIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Join("doc_1", User{ID: "u1", Name: "Ada"}, &fakeConn{"a"})
	if departed := reg.Leave(&fakeConn{"other"}); len(departed) != 0 {
		t.Fatalf("departures for unknown conn = %d, want 0", len(departed))
	}
}
