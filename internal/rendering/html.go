package rendering

import (
	"bytes"
	"embed"
	"html/template"
	"sync"

	"github.com/jonathan/cv-builder/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const previewTemplateName = "preview.html.tmpl"

var previewTemplate = sync.OnceValues(func() (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+previewTemplateName)
	if err != nil {
		return nil, &TemplateError{Template: previewTemplateName, Message: "failed to parse", Cause: err}
	}
	return tmpl, nil
})

// RenderHTML renders the read-only preview of doc as a complete HTML page.
// Empty name and summary show placeholders; empty lists omit their section.
func RenderHTML(doc types.Document) ([]byte, error) {
	tmpl, err := previewTemplate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, NewView(doc)); err != nil {
		return nil, &TemplateError{Template: previewTemplateName, Message: "failed to execute", Cause: err}
	}
	return buf.Bytes(), nil
}
