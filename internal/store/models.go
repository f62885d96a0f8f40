package store

import "time"

type User struct {
	ID          string
	GoogleSub   string
	Email       string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
}

// Document carries both identifiers: ID is the internal storage key used
// in join tables, DocID the opaque string exposed to clients.
type Document struct {
	ID        int64
	DocID     string
	Title     string
	Content   string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccessGrant is one row of a document's access lists.
type AccessGrant struct {
	UserID    string
	Level     string
	GrantedAt time.Time
}

// AccessUser is a grantee joined with their user record, for the
// role-tagged document user listing.
type AccessUser struct {
	UserID      string
	DisplayName string
	Email       string
	Level       string
}

type Feedback struct {
	ID         int64
	DocumentID string // external doc id; survives document deletion
	Rating     int
	Suggestion string
	UserID     *string
	Username   string
	CreatedAt  time.Time
}

type Template struct {
	ID          string
	Name        string
	Description string
	Content     string
	CreatedBy   string
	CreatedAt   time.Time
}
