// Package validation produces format advisories for CV documents.
//
// Advisories never block an edit or a save. They are shown next to the offending
// field so the user can fix it.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-builder/internal/types"
)

// periodPattern accepts "MM/YYYY - MM/YYYY" and "MM/YYYY - Presente".
var periodPattern = regexp.MustCompile(`(?i)^(0[1-9]|1[0-2])/\d{4} - ((0[1-9]|1[0-2])/\d{4}|Presente)$`)

// Advisory is one formatting problem found in a document.
type Advisory struct {
	// Field is the JSON path of the field, e.g. "personalInfo.email" or "experiences.period".
	Field string `json:"field"`
	// ItemID is set for fields of list items.
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
			return periodPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidPeriod reports whether period uses the expected "MM/YYYY - MM/YYYY" form.
// An empty period is valid.
func ValidPeriod(period string) bool {
	return period == "" || periodPattern.MatchString(period)
}

// Check returns the advisories for doc, in field order. A clean document yields none.
func Check(doc types.Document) []Advisory {
	err := instance().Struct(doc)
	if err == nil {
		return []Advisory{}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Advisory{{Field: "(root)", Message: err.Error()}}
	}

	advisories := make([]Advisory, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field, index := fieldPath(fe.Namespace())
		advisory := Advisory{Field: field, Message: message(fe)}
		if index >= 0 {
			advisory.ItemID = itemID(doc, field, index)
		}
		advisories = append(advisories, advisory)
	}
	return advisories
}

// fieldPath turns "Document.experiences[2].period" into ("experiences.period", 2).
func fieldPath(namespace string) (string, int) {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}

	open := strings.IndexByte(path, '[')
	if open < 0 {
		return path, -1
	}
	end := strings.IndexByte(path, ']')
	if end < open {
		return path, -1
	}
	index, err := strconv.Atoi(path[open+1 : end])
	if err != nil {
		return path, -1
	}
	return path[:open] + path[end+1:], index
}

func itemID(doc types.Document, field string, index int) string {
	list, _, _ := strings.Cut(field, ".")
	switch types.ListName(list) {
	case types.ListSkills:
		if index < len(doc.Skills) {
			return doc.Skills[index].ID
		}
	case types.ListExperiences:
		if index < len(doc.Experiences) {
			return doc.Experiences[index].ID
		}
	case types.ListEducation:
		if index < len(doc.Education) {
			return doc.Education[index].ID
		}
	}
	return ""
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Invalid e-mail address."
	case "number", "min", "max":
		if fe.Field() == "phone" {
			return "Invalid phone number. Use 10 to 15 digits."
		}
		if fe.Field() == "summary" {
			return "Summary must be at most " + fe.Param() + " characters."
		}
	case "url":
		return "Invalid profile URL."
	case "period":
		return `Invalid period. Use "MM/YYYY - MM/YYYY" or "MM/YYYY - Presente".`
	case "oneof":
		return "Level must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	}
	return "Invalid value for " + fe.Field() + "."
}
