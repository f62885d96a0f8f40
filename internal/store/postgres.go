package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureUserByGoogle upserts the user record for a verified Google
// identity and returns it. Display name and avatar follow the identity
// provider on every login.
func (s *PostgresStore) EnsureUserByGoogle(ctx context.Context, user User) (User, error) {
	const upsert = `
		INSERT INTO users (id, google_sub, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (google_sub) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    avatar_url   = EXCLUDED.avatar_url
		RETURNING id, google_sub, email, display_name, avatar_url, created_at
	`
	var out User
	err := s.db.QueryRowContext(ctx, upsert,
		user.ID, user.GoogleSub, user.Email, user.DisplayName, user.AvatarURL,
	).Scan(&out.ID, &out.GoogleSub, &out.Email, &out.DisplayName, &out.AvatarURL, &out.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("upsert google user: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, coalesce(google_sub, ''), email, display_name, avatar_url, created_at
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.GoogleSub, &user.Email, &user.DisplayName, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, coalesce(google_sub, ''), email, display_name, avatar_url, created_at
		FROM users WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.GoogleSub, &user.Email, &user.DisplayName, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateDocument inserts the document and the owner's filesCreated index
// entry in one transaction.
func (s *PostgresStore) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var out Document
	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (doc_id, title, content, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, doc_id, title, content, author_id, created_at, updated_at
	`, doc.DocID, doc.Title, doc.Content, doc.AuthorID).Scan(
		&out.ID, &out.DocID, &out.Title, &out.Content, &out.AuthorID, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_files (user_id, document_id, relation)
		VALUES ($1, $2, 'created')
		ON CONFLICT DO NOTHING
	`, doc.AuthorID, out.ID); err != nil {
		return Document{}, fmt.Errorf("index created file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit create tx: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, docID string) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, doc_id, title, content, author_id, created_at, updated_at
		FROM documents WHERE doc_id=$1
	`, docID).Scan(&doc.ID, &doc.DocID, &doc.Title, &doc.Content, &doc.AuthorID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// UpdateDocument replaces title and content wholesale and bumps the
// last-modified timestamp. sql.ErrNoRows when the id does not resolve.
func (s *PostgresStore) UpdateDocument(ctx context.Context, docID, title, content string) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET title=$2, content=$3, updated_at=NOW()
		WHERE doc_id=$1
		RETURNING id, doc_id, title, content, author_id, created_at, updated_at
	`, docID, title, content).Scan(&doc.ID, &doc.DocID, &doc.Title, &doc.Content, &doc.AuthorID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) ListAccessGrants(ctx context.Context, documentID int64) ([]AccessGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, level, granted_at
		FROM document_access
		WHERE document_id=$1
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	defer rows.Close()

	grants := make([]AccessGrant, 0)
	for rows.Next() {
		var g AccessGrant
		if err := rows.Scan(&g.UserID, &g.Level, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan access grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access grants: %w", err)
	}
	return grants, nil
}

// ListDocumentUsers returns every grantee joined with their user record.
// The author is not included; callers tag them separately.
func (s *PostgresStore) ListDocumentUsers(ctx context.Context, documentID int64) ([]AccessUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT da.user_id, u.display_name, u.email, da.level
		FROM document_access da
		JOIN users u ON u.id = da.user_id
		WHERE da.document_id=$1
		ORDER BY da.granted_at
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document users: %w", err)
	}
	defer rows.Close()

	users := make([]AccessUser, 0)
	for rows.Next() {
		var u AccessUser
		if err := rows.Scan(&u.UserID, &u.DisplayName, &u.Email, &u.Level); err != nil {
			return nil, fmt.Errorf("scan document user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document users: %w", err)
	}
	return users, nil
}

// GrantAccess adds the user to exactly one access list (set-union,
// idempotent) and records the document in their filesShared index, in
// one transaction.
func (s *PostgresStore) GrantAccess(ctx context.Context, documentID int64, userID, level string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grant tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_access (document_id, user_id, level)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, documentID, userID, level); err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_files (user_id, document_id, relation)
		VALUES ($1, $2, 'shared')
		ON CONFLICT DO NOTHING
	`, userID, documentID); err != nil {
		return fmt.Errorf("index shared file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grant tx: %w", err)
	}
	return nil
}

// RevokeAccess strips the user from all three access lists at once and
// prunes the filesShared index entry.
func (s *PostgresStore) RevokeAccess(ctx context.Context, documentID int64, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM document_access WHERE document_id=$1 AND user_id=$2
	`, documentID, userID); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM user_files WHERE user_id=$2 AND document_id=$1 AND relation='shared'
	`, documentID, userID); err != nil {
		return fmt.Errorf("prune shared file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke tx: %w", err)
	}
	return nil
}

// DeleteDocumentCascade removes the document, all its access grants, and
// every user_files entry referencing it (the author's filesCreated row
// and each grantee's filesShared row) in one transaction. Either all of
// it applies or none of it does.
func (s *PostgresStore) DeleteDocumentCascade(ctx context.Context, documentID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_files WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("prune file indices: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_access WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("delete access grants: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

// RecentDocuments lists documents the user owns, newest-modified first.
func (s *PostgresStore) RecentDocuments(ctx context.Context, userID string, limit int) ([]Document, error) {
	return s.queryDocuments(ctx, `
		SELECT id, doc_id, title, content, author_id, created_at, updated_at
		FROM documents
		WHERE author_id=$1
		ORDER BY updated_at DESC
		LIMIT $2
	`, userID, limit)
}

// SharedDocuments lists documents shared with the user, newest-modified
// first, via the filesShared index.
func (s *PostgresStore) SharedDocuments(ctx context.Context, userID string, limit int) ([]Document, error) {
	return s.queryDocuments(ctx, `
		SELECT d.id, d.doc_id, d.title, d.content, d.author_id, d.created_at, d.updated_at
		FROM user_files uf
		JOIN documents d ON d.id = uf.document_id
		WHERE uf.user_id=$1 AND uf.relation='shared'
		ORDER BY d.updated_at DESC
		LIMIT $2
	`, userID, limit)
}

func (s *PostgresStore) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.DocID, &d.Title, &d.Content, &d.AuthorID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) InsertFeedback(ctx context.Context, fb Feedback) (Feedback, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback (document_id, rating, suggestion, user_id, username)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, fb.DocumentID, fb.Rating, fb.Suggestion, fb.UserID, fb.Username).Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		return Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}
	return fb, nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, docID string) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, rating, suggestion, user_id, username, created_at
		FROM feedback
		WHERE document_id=$1
		ORDER BY created_at DESC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	items := make([]Feedback, 0)
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(&fb.ID, &fb.DocumentID, &fb.Rating, &fb.Suggestion, &fb.UserID, &fb.Username, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertTemplate(ctx context.Context, tpl Template) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, description, content, created_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`, tpl.ID, tpl.Name, tpl.Description, tpl.Content, tpl.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, templateID string) (Template, error) {
	var tpl Template
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, content, coalesce(created_by, ''), created_at
		FROM templates
		WHERE id = $1
	`, templateID).Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.Content, &tpl.CreatedBy, &tpl.CreatedAt)
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, content, coalesce(created_by, ''), created_at
		FROM templates
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	items := make([]Template, 0)
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.Content, &tpl.CreatedBy, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		items = append(items, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return items, nil
}

// Refresh-session fallback used when Redis is not configured.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, coalesce(u.google_sub, ''), u.email, u.display_name, u.avatar_url, u.created_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&user.ID, &user.GoogleSub, &user.Email, &user.DisplayName, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
