package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
)

// TestDeleteDocumentCascadeIntegration verifies the cascade removes the
// document, its access grants, and both sides of the user_files index in
// one transaction, and that a failure mid-cascade leaves everything in
// place.
func TestDeleteDocumentCascadeIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := Open(ctx, integrationDatabaseURL(t))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewPostgresStore(db)

	author := seedUser(t, ctx, s, "itg-author")
	reader := seedUser(t, ctx, s, "itg-reader")
	t.Cleanup(func() { cleanupUsers(ctx, db, author.ID, reader.ID) })

	doc, err := s.CreateDocument(ctx, Document{
		DocID:    "doc_itg_cascade",
		Title:    "Cascade",
		Content:  "<p>body</p>",
		AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := s.GrantAccess(ctx, doc.ID, reader.ID, "reader"); err != nil {
		t.Fatalf("grant access: %v", err)
	}
	if got := countRows(t, ctx, db, `SELECT COUNT(*) FROM user_files WHERE document_id=$1`, doc.ID); got != 2 {
		t.Fatalf("user_files rows = %d, want 2 (created + shared)", got)
	}

	// Pin the document with a foreign key the cascade does not know
	// about, so the final DELETE fails and the transaction must roll
	// back without touching the earlier statements.
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS retention_hold (
			document_id BIGINT NOT NULL REFERENCES documents(id)
		)
	`); err != nil {
		t.Fatalf("create retention_hold: %v", err)
	}
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `DROP TABLE IF EXISTS retention_hold`) })
	if _, err := db.ExecContext(ctx, `INSERT INTO retention_hold(document_id) VALUES($1)`, doc.ID); err != nil {
		t.Fatalf("insert retention_hold: %v", err)
	}

	if err := s.DeleteDocumentCascade(ctx, doc.ID); err == nil {
		t.Fatal("expected cascade to fail while the document is referenced")
	}
	if got := countRows(t, ctx, db, `SELECT COUNT(*) FROM document_access WHERE document_id=$1`, doc.ID); got != 1 {
		t.Fatalf("document_access rows after rollback = %d, want 1", got)
	}
	if got := countRows(t, ctx, db, `SELECT COUNT(*) FROM user_files WHERE document_id=$1`, doc.ID); got != 2 {
		t.Fatalf("user_files rows after rollback = %d, want 2", got)
	}
	if _, err := s.GetDocument(ctx, doc.DocID); err != nil {
		t.Fatalf("document must survive the failed cascade: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM retention_hold WHERE document_id=$1`, doc.ID); err != nil {
		t.Fatalf("release retention_hold: %v", err)
	}

	if err := s.DeleteDocumentCascade(ctx, doc.ID); err != nil {
		t.Fatalf("cascade after release: %v", err)
	}
	if got := countRows(t, ctx, db, `SELECT COUNT(*) FROM document_access WHERE document_id=$1`, doc.ID); got != 0 {
		t.Fatalf("document_access rows after delete = %d, want 0", got)
	}
	if got := countRows(t, ctx, db, `SELECT COUNT(*) FROM user_files WHERE document_id=$1`, doc.ID); got != 0 {
		t.Fatalf("user_files rows after delete = %d, want 0", got)
	}
	if _, err := s.GetDocument(ctx, doc.DocID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetDocument after delete = %v, want sql.ErrNoRows", err)
	}

	if err := s.DeleteDocumentCascade(ctx, doc.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete = %v, want sql.ErrNoRows", err)
	}
}

func seedUser(t *testing.T, ctx context.Context, s *PostgresStore, tag string) User {
	t.Helper()
	user, err := s.EnsureUserByGoogle(ctx, User{
		ID:          "usr_" + tag,
		GoogleSub:   "sub-" + tag,
		Email:       tag + "@integration.test",
		DisplayName: tag,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", tag, err)
	}
	return user
}

func cleanupUsers(ctx context.Context, db *sql.DB, ids ...string) {
	for _, id := range ids {
		_, _ = db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	}
}

func countRows(t *testing.T, ctx context.Context, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func integrationDatabaseURL(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("set TEST_DATABASE_URL or POSTGRES_* to run store integration tests")
	}
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "coscribe")
	pass := envOr("POSTGRES_PASSWORD", "coscribe")
	name := envOr("POSTGRES_DB", "coscribe_test")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
