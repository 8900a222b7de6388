// Package rendering turns a CV document into its HTML preview and LaTeX source.
package rendering

import (
	"strings"
	"sync"
	"text/template"

	"github.com/jonathan/cv-builder/internal/types"
)

const latexTemplateName = "cv.tex.tmpl"

var latexTemplate = sync.OnceValues(func() (*template.Template, error) {
	return parseLaTeXTemplate(latexTemplateName)
})

// RenderLaTeX renders doc as a standalone LaTeX article.
func RenderLaTeX(doc types.Document) (string, error) {
	tmpl, err := latexTemplate()
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, NewView(doc)); err != nil {
		return "", &TemplateError{Template: latexTemplateName, Message: "failed to execute", Cause: err}
	}
	return out.String(), nil
}

// parseLaTeXTemplate uses << >> delimiters so LaTeX braces never collide with actions.
func parseLaTeXTemplate(name string) (*template.Template, error) {
	content, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, &TemplateError{Template: name, Message: "not found", Cause: err}
	}

	tmpl, err := template.New(name).
		Delims("<<", ">>").
		Funcs(template.FuncMap{
			"escape": EscapeLaTeX,
			"lines":  EscapeLaTeXLines,
		}).
		Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Template: name, Message: "failed to parse", Cause: err}
	}
	return tmpl, nil
}
