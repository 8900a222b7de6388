// Package export produces downloadable files from a CV document.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// Format is an export file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatTeX  Format = "tex"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatTeX, FormatJSON, FormatText}

var contentTypes = map[Format]string{
	FormatPDF:  "application/pdf",
	FormatTeX:  "application/x-tex",
	FormatJSON: "application/json",
	FormatText: "text/plain; charset=utf-8",
}

// ParseFormat accepts a format name case-insensitively, with or without a leading dot.
// An empty string selects PDF.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if s == "" {
		return FormatPDF, nil
	}
	f := Format(s)
	if _, ok := contentTypes[f]; !ok {
		return "", &UnsupportedFormatError{Format: s}
	}
	return f, nil
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Artifact is an exported file.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// PDFPrinter prints an HTML page to PDF.
type PDFPrinter interface {
	PrintPDF(ctx context.Context, html []byte) ([]byte, error)
}

// JSONEncoder produces the JSON snapshot of a document.
type JSONEncoder interface {
	ExportJSON(doc types.Document) ([]byte, error)
}

// Exporter renders documents into every supported format.
type Exporter struct {
	printer PDFPrinter
	json    JSONEncoder
	log     *logger.Logger
}

// New creates an Exporter. A nil printer makes PDF export fail with ErrPDFUnavailable.
func New(printer PDFPrinter, json JSONEncoder, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{printer: printer, json: json, log: log}
}

// Export renders doc in format. A blank fileName uses DefaultFileName; the
// format extension is appended when missing. Failures are returned, never retried.
func (e *Exporter) Export(ctx context.Context, doc types.Document, format Format, fileName string) (Artifact, error) {
	start := time.Now()

	data, err := e.render(ctx, doc, format)
	if err != nil {
		e.log.Warn("export failed", "format", format, "error", err)
		return Artifact{}, &Error{Format: format, Cause: err}
	}

	artifact := Artifact{
		FileName:    FileName(fileName, doc, format),
		ContentType: format.ContentType(),
		Data:        data,
	}
	e.log.Info("export finished",
		"format", format,
		"file", artifact.FileName,
		"bytes", len(data),
		"elapsed", time.Since(start).String(),
	)
	return artifact, nil
}

func (e *Exporter) render(ctx context.Context, doc types.Document, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		if e.printer == nil {
			return nil, ErrPDFUnavailable
		}
		page, err := rendering.RenderHTML(doc)
		if err != nil {
			return nil, err
		}
		return e.printer.PrintPDF(ctx, page)
	case FormatTeX:
		src, err := rendering.RenderLaTeX(doc)
		if err != nil {
			return nil, err
		}
		return []byte(src), nil
	case FormatJSON:
		if e.json == nil {
			return nil, fmt.Errorf("no JSON encoder configured")
		}
		return e.json.ExportJSON(doc)
	case FormatText:
		page, err := rendering.RenderHTML(doc)
		if err != nil {
			return nil, err
		}
		text, err := PlainText(page)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DefaultFileName is "CV_" followed by the personal name with whitespace runs
// replaced by underscores, or "CV_Candidate" when the name is blank.
func DefaultFileName(doc types.Document) string {
	name := strings.TrimSpace(doc.PersonalInfo.Name)
	if name == "" {
		return "CV_Candidate"
	}
	return "CV_" + whitespaceRun.ReplaceAllString(name, "_")
}

// FileName resolves the download name for an export. Directory components in
// requested are dropped.
func FileName(requested string, doc types.Document, format Format) string {
	name := strings.TrimSpace(requested)
	if name != "" {
		name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	}
	if name == "" || name == "/" || name == "." {
		name = DefaultFileName(doc)
	}

	ext := "." + string(format)
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}
