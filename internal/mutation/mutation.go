// Package mutation provides the pure edit operations applied to a CV document.
//
// Every function returns a new Document and never modifies its input. Lists that an
// operation does not touch keep their slice identity; a list that changes is always
// rebuilt on a fresh backing array so earlier snapshots can never observe the edit.
// Unknown fields and unknown item ids are ignored and the input is returned unchanged.
package mutation

import (
	"slices"

	"github.com/jonathan/cv-builder/internal/document"
	"github.com/jonathan/cv-builder/internal/types"
)

// SetScalarField sets summary or one of the personal info fields.
func SetScalarField(doc types.Document, field types.ScalarField, value string) types.Document {
	switch field {
	case types.FieldSummary:
		doc.Summary = value
	case types.FieldName:
		doc.PersonalInfo.Name = value
	case types.FieldEmail:
		doc.PersonalInfo.Email = value
	case types.FieldPhone:
		doc.PersonalInfo.Phone = value
	case types.FieldLinkedIn:
		doc.PersonalInfo.LinkedIn = value
	}
	return doc
}

// SetSkillField updates a field of the skill with the given id.
// A level that is not a valid SkillLevel leaves the document unchanged.
func SetSkillField(doc types.Document, id string, field types.SkillField, value string) types.Document {
	var apply func(*types.Skill)
	switch field {
	case types.SkillFieldName:
		apply = func(s *types.Skill) { s.Name = value }
	case types.SkillFieldLevel:
		level := types.SkillLevel(value)
		if !level.Valid() {
			return doc
		}
		apply = func(s *types.Skill) { s.Level = level }
	default:
		return doc
	}

	if skills, ok := updateItem(doc.Skills, id, func(s types.Skill) string { return s.ID }, apply); ok {
		doc.Skills = skills
	}
	return doc
}

// SetExperienceField updates a text field of the experience with the given id.
// Use SetExperienceCurrent for the isCurrent flag.
func SetExperienceField(doc types.Document, id string, field types.ExperienceField, value string) types.Document {
	var apply func(*types.Experience)
	switch field {
	case types.ExperienceCompany:
		apply = func(e *types.Experience) { e.Company = value }
	case types.ExperiencePosition:
		apply = func(e *types.Experience) { e.Position = value }
	case types.ExperiencePeriod:
		apply = func(e *types.Experience) { e.Period = value }
	case types.ExperienceDescription:
		apply = func(e *types.Experience) { e.Description = value }
	default:
		return doc
	}

	if experiences, ok := updateItem(doc.Experiences, id, experienceID, apply); ok {
		doc.Experiences = experiences
	}
	return doc
}

// SetExperienceCurrent sets the isCurrent flag of the experience with the given id.
func SetExperienceCurrent(doc types.Document, id string, current bool) types.Document {
	apply := func(e *types.Experience) { e.IsCurrent = current }
	if experiences, ok := updateItem(doc.Experiences, id, experienceID, apply); ok {
		doc.Experiences = experiences
	}
	return doc
}

// SetEducationField updates a field of the education entry with the given id.
func SetEducationField(doc types.Document, id string, field types.EducationField, value string) types.Document {
	var apply func(*types.Education)
	switch field {
	case types.EducationDegree:
		apply = func(e *types.Education) { e.Degree = value }
	case types.EducationInstitution:
		apply = func(e *types.Education) { e.Institution = value }
	case types.EducationStartDate:
		apply = func(e *types.Education) { e.StartDate = value }
	case types.EducationEndDate:
		apply = func(e *types.Education) { e.EndDate = value }
	case types.EducationDescription:
		apply = func(e *types.Education) { e.Description = value }
	default:
		return doc
	}

	if education, ok := updateItem(doc.Education, id, educationID, apply); ok {
		doc.Education = education
	}
	return doc
}

// SetListItemField is the string-keyed entry point used by transports.
// It routes to the typed setters; an unknown list, unknown field or a value of the
// wrong type is a no-op.
func SetListItemField(doc types.Document, list types.ListName, id, field string, value any) types.Document {
	switch list {
	case types.ListSkills:
		if s, ok := value.(string); ok {
			return SetSkillField(doc, id, types.SkillField(field), s)
		}
	case types.ListExperiences:
		if types.ExperienceField(field) == types.ExperienceIsCurrent {
			if b, ok := value.(bool); ok {
				return SetExperienceCurrent(doc, id, b)
			}
			return doc
		}
		if s, ok := value.(string); ok {
			return SetExperienceField(doc, id, types.ExperienceField(field), s)
		}
	case types.ListEducation:
		if s, ok := value.(string); ok {
			return SetEducationField(doc, id, types.EducationField(field), s)
		}
	}
	return doc
}

// AddListItem appends a list-specific default item with a fresh id and returns the
// new document together with that id. An unknown list returns doc and "".
func AddListItem(doc types.Document, list types.ListName) (types.Document, string) {
	id := document.NewID()
	switch list {
	case types.ListSkills:
		doc.Skills = append(slices.Clip(doc.Skills), types.Skill{ID: id, Level: types.SkillLevelBasic})
	case types.ListExperiences:
		doc.Experiences = append(slices.Clip(doc.Experiences), types.Experience{ID: id})
	case types.ListEducation:
		doc.Education = append(slices.Clip(doc.Education), types.Education{ID: id})
	default:
		return doc, ""
	}
	return doc, id
}

// RemoveListItem removes the item with the given id. Removing an unknown id returns
// doc unchanged, including list identity.
func RemoveListItem(doc types.Document, list types.ListName, id string) types.Document {
	switch list {
	case types.ListSkills:
		if skills, ok := removeItem(doc.Skills, id, func(s types.Skill) string { return s.ID }); ok {
			doc.Skills = skills
		}
	case types.ListExperiences:
		if experiences, ok := removeItem(doc.Experiences, id, experienceID); ok {
			doc.Experiences = experiences
		}
	case types.ListEducation:
		if education, ok := removeItem(doc.Education, id, educationID); ok {
			doc.Education = education
		}
	}
	return doc
}

func experienceID(e types.Experience) string { return e.ID }

func educationID(e types.Education) string { return e.ID }

// updateItem returns a copy of items with apply run on the element matching id.
// ok is false when no element matches; items is then returned as is.
func updateItem[T any](items []T, id string, idOf func(T) string, apply func(*T)) ([]T, bool) {
	idx := slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
	if idx < 0 {
		return items, false
	}
	updated := slices.Clone(items)
	apply(&updated[idx])
	return updated, true
}

// removeItem returns a new slice without the elements matching id.
func removeItem[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	if !slices.ContainsFunc(items, func(item T) bool { return idOf(item) == id }) {
		return items, false
	}
	kept := make([]T, 0, len(items)-1)
	for _, item := range items {
		if idOf(item) != id {
			kept = append(kept, item)
		}
	}
	return kept, true
}
