package export

import (
	"bytes"
	"html/template"
	"time"
)

// SafeHTML marks a string as safe HTML for template rendering. Stored
// document content is author-controlled editor output, rendered as-is.
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"safeHTML": SafeHTML,
}).Parse(printTemplate))

// TemplateData holds data for print template rendering.
type TemplateData struct {
	Title       string
	ContentHTML template.HTML
	Author      string
	UpdatedAt   time.Time
}

// RenderDocumentHTML wraps document content in the print layout.
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const printTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, 'Times New Roman', serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    img { max-width: 100%; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #444; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Author}} | {{.UpdatedAt.Format "Jan 2, 2006"}}</div>
  <div>{{.ContentHTML | safeHTML}}</div>
</body>
</html>`
