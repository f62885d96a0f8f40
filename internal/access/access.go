// Package access decides what a user may do with a document given its
// author and access lists. It is pure logic with no storage dependency;
// callers resolve the document and its grants first and must treat a
// missing document as NotFound, never as access-denied.
package access

type Level string

const (
	LevelEditor   Level = "editor"
	LevelReviewer Level = "reviewer"
	LevelReader   Level = "reader"
)

// Grant is one entry of a document's access lists.
type Grant struct {
	UserID string
	Level  Level
}

// ParseLevel validates a share level from a request payload.
func ParseLevel(raw string) (Level, bool) {
	switch Level(raw) {
	case LevelEditor, LevelReviewer, LevelReader:
		return Level(raw), true
	default:
		return "", false
	}
}

// HasAccess reports whether userID is the author or appears in any
// access list. The author is implicit owner and never stored in a list.
func HasAccess(authorID string, grants []Grant, userID string) bool {
	if userID == "" {
		return false
	}
	if userID == authorID {
		return true
	}
	for _, g := range grants {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

// CanDelete reports whether userID may delete the document or revoke
// others' access. Only the author may.
func CanDelete(authorID, userID string) bool {
	return userID != "" && userID == authorID
}

// CanEdit reports whether userID may replace the document's content:
// the author or anyone holding editor access.
func CanEdit(authorID string, grants []Grant, userID string) bool {
	if CanDelete(authorID, userID) {
		return true
	}
	for _, g := range grants {
		if g.UserID == userID && g.Level == LevelEditor {
			return true
		}
	}
	return false
}

// RoleTag returns the display role for the GET /users listing. A user
// holding grants at several levels (the data model does not forbid it)
// is tagged with the most privileged one.
func RoleTag(authorID string, grants []Grant, userID string) string {
	if userID == authorID {
		return "Author"
	}
	best := ""
	for _, g := range grants {
		if g.UserID != userID {
			continue
		}
		switch g.Level {
		case LevelEditor:
			return "Editor"
		case LevelReviewer:
			best = "Reviewer"
		case LevelReader:
			if best == "" {
				best = "Reader"
			}
		}
	}
	return best
}
