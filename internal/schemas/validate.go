// Package schemas provides JSON Schema validation for documents entering the editor.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed cv_import.schema.json
var importSchema string

// ImportSchema returns the schema an imported document must satisfy.
func ImportSchema() string {
	return importSchema
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

var compiledImport = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return compile("cv_import.schema.json", gojsonschema.NewStringLoader(importSchema))
})

// ValidateImport checks that payload has a personalInfo object with a name and a
// skills array. Anything beyond that is left to normalization.
func ValidateImport(payload []byte) error {
	schema, err := compiledImport()
	if err != nil {
		return err
	}
	return validate(schema, gojsonschema.NewBytesLoader(payload))
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schema, err := compile("(string schema)", gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return err
	}
	return validate(schema, gojsonschema.NewStringLoader(jsonContent))
}

func compile(name string, loader gojsonschema.JSONLoader) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    name,
			Message: "schema could not be compiled",
			Cause:   err,
		}
	}
	return schema, nil
}

func validate(schema *gojsonschema.Schema, documentLoader gojsonschema.JSONLoader) error {
	result, err := schema.Validate(documentLoader)
	if err != nil {
		// The document itself is not JSON.
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}

	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
