// Package types provides type definitions for structured data used throughout the cv-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// SkillLevel is the self-assessed proficiency of a skill
type SkillLevel string

// Skill levels, in ascending order
const (
	SkillLevelBasic        SkillLevel = "Basic"
	SkillLevelIntermediate SkillLevel = "Intermediate"
	SkillLevelAdvanced     SkillLevel = "Advanced"
)

// Valid reports whether l is one of the known skill levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case SkillLevelBasic, SkillLevelIntermediate, SkillLevelAdvanced:
		return true
	default:
		return false
	}
}

// Document is the single root record edited by the user.
// A Document is always fully populated: absent data is "" or an empty list.
type Document struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Summary      string       `json:"summary" validate:"max=500"`
	Skills       []Skill      `json:"skills" validate:"dive"`
	Experiences  []Experience `json:"experiences" validate:"dive"`
	Education    []Education  `json:"education" validate:"dive"`
}

// PersonalInfo holds contact details shown in the document header
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,number,min=10,max=15"`
	LinkedIn string `json:"linkedin" validate:"omitempty,url"`
}

// Skill is a single entry of the skills list
type Skill struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Level SkillLevel `json:"level" validate:"oneof=Basic Intermediate Advanced"`
}

// Experience is a single professional experience entry
type Experience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Period      string `json:"period" validate:"omitempty,period"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"isCurrent"`
}

// Education is a single academic entry
type Education struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description,omitempty"`
}

// EmptyDocument returns a Document with every scalar empty and every list empty (non-nil).
func EmptyDocument() Document {
	return Document{
		Skills:      []Skill{},
		Experiences: []Experience{},
		Education:   []Education{},
	}
}

// Equal reports deep structural equality, including list order.
func (d Document) Equal(other Document) bool {
	return d.PersonalInfo == other.PersonalInfo &&
		d.Summary == other.Summary &&
		slices.Equal(d.Skills, other.Skills) &&
		slices.Equal(d.Experiences, other.Experiences) &&
		slices.Equal(d.Education, other.Education)
}

// ScalarField identifies a top-level or personal-info string field
type ScalarField string

// Scalar fields accepted by the mutation engine
const (
	FieldName     ScalarField = "name"
	FieldEmail    ScalarField = "email"
	FieldPhone    ScalarField = "phone"
	FieldLinkedIn ScalarField = "linkedin"
	FieldSummary  ScalarField = "summary"
)

// ListName identifies one of the document's ordered lists
type ListName string

// Lists of the document
const (
	ListSkills      ListName = "skills"
	ListExperiences ListName = "experiences"
	ListEducation   ListName = "education"
)

// Valid reports whether n names a known list.
func (n ListName) Valid() bool {
	return n == ListSkills || n == ListExperiences || n == ListEducation
}

// SkillField identifies an editable field of a Skill
type SkillField string

// Skill fields
const (
	SkillFieldName  SkillField = "name"
	SkillFieldLevel SkillField = "level"
)

// ExperienceField identifies an editable field of an Experience
type ExperienceField string

// Experience fields
const (
	ExperienceCompany     ExperienceField = "company"
	ExperiencePosition    ExperienceField = "position"
	ExperiencePeriod      ExperienceField = "period"
	ExperienceDescription ExperienceField = "description"
	ExperienceIsCurrent   ExperienceField = "isCurrent"
)

// EducationField identifies an editable field of an Education entry
type EducationField string

// Education fields
const (
	EducationDegree      EducationField = "degree"
	EducationInstitution EducationField = "institution"
	EducationStartDate   EducationField = "startDate"
	EducationEndDate     EducationField = "endDate"
	EducationDescription EducationField = "description"
)
