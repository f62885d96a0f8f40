package export

import (
	"fmt"
	"html/template"
)

// Service renders documents into downloadable files.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ExportPDF renders a document's stored HTML into the print layout and
// prints it to PDF via headless Chrome.
func (s *Service) ExportPDF(doc Document) (*Result, error) {
	html, err := RenderDocumentHTML(TemplateData{
		Title:       doc.Title,
		ContentHTML: template.HTML(doc.Content),
		Author:      doc.Author,
		UpdatedAt:   doc.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("render document html: %w", err)
	}
	return exportPDF(html, doc.Title)
}
