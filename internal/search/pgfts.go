package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over the documents table, restricted to
// documents the caller authored or holds a user_files row for.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "d.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.UserID != "" {
		where += ` AND (d.author_id = $2 OR EXISTS (
			SELECT 1 FROM user_files uf
			WHERE uf.document_id = d.id AND uf.user_id = $2
		))`
		args = append(args, q.UserID)
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM documents d WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT d.doc_id, d.title,
			ts_headline('english', coalesce(d.content, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			d.author_id
		FROM documents d
		WHERE %s
		ORDER BY ts_rank(d.fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.AuthorID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every document with its visibility list, for
// full reindexing into Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT d.doc_id, d.title, d.content, d.author_id,
			array_remove(array_agg(DISTINCT uf.user_id), NULL) AS visible_to
		FROM documents d
		LEFT JOIN user_files uf ON uf.document_id = d.id
		GROUP BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	documents := make([]DocumentRecord, 0)
	for rows.Next() {
		var d DocumentRecord
		var visible []byte
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.AuthorID, &visible); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.VisibleTo = parsePgTextArray(string(visible))
		if !contains(d.VisibleTo, d.AuthorID) {
			d.VisibleTo = append(d.VisibleTo, d.AuthorID)
		}
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

// parsePgTextArray decodes a simple text[] literal like {a,b,c}. User
// ids never contain commas, quotes, or braces, so no escape handling.
func parsePgTextArray(raw string) []string {
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
