// Package export renders documents to PDF.
package export

import (
	"errors"
	"time"
)

// Document is the content handed to the exporter.
type Document struct {
	ID        string
	Title     string
	Content   string // stored editor HTML
	Author    string
	UpdatedAt time.Time
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
