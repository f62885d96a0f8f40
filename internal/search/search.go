package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	AuthorID string `json:"authorId"`
}

// Query describes a search request. UserID scopes results to documents
// the caller authored or was granted access to.
type Query struct {
	Text   string
	UserID string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push documents into a search index.
type Indexer interface {
	IndexDocument(doc DocumentRecord) error
	DeleteDocument(id string) error
}

// DocumentRecord is the data we index for a document. VisibleTo lists
// every user id allowed to see the document, author included, so the
// index can filter hits per caller.
type DocumentRecord struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	AuthorID  string   `json:"authorId"`
	VisibleTo []string `json:"visibleTo"`
}
