package mutation

import (
	"testing"

	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() types.Document {
	return types.Document{
		PersonalInfo: types.PersonalInfo{Name: "Ada", Email: "ada@example.com"},
		Summary:      "Engineer",
		Skills: []types.Skill{
			{ID: "s1", Name: "Go", Level: types.SkillLevelAdvanced},
			{ID: "s2", Name: "SQL", Level: types.SkillLevelIntermediate},
		},
		Experiences: []types.Experience{
			{ID: "e1", Company: "Acme", Position: "Dev", Period: "01/2020 - Presente", IsCurrent: true},
		},
		Education: []types.Education{
			{ID: "d1", Degree: "BSc", Institution: "Uni"},
		},
	}
}

// cloneDocument copies every list so later comparisons detect in-place writes.
func cloneDocument(d types.Document) types.Document {
	d.Skills = append([]types.Skill{}, d.Skills...)
	d.Experiences = append([]types.Experience{}, d.Experiences...)
	d.Education = append([]types.Education{}, d.Education...)
	return d
}

func TestSetScalarField(t *testing.T) {
	tests := []struct {
		field types.ScalarField
		check func(d types.Document) string
	}{
		{types.FieldName, func(d types.Document) string { return d.PersonalInfo.Name }},
		{types.FieldEmail, func(d types.Document) string { return d.PersonalInfo.Email }},
		{types.FieldPhone, func(d types.Document) string { return d.PersonalInfo.Phone }},
		{types.FieldLinkedIn, func(d types.Document) string { return d.PersonalInfo.LinkedIn }},
		{types.FieldSummary, func(d types.Document) string { return d.Summary }},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			doc := sampleDocument()
			before := cloneDocument(doc)

			got := SetScalarField(doc, tt.field, "new value")

			assert.Equal(t, "new value", tt.check(got))
			assert.True(t, doc.Equal(before), "input must not change")
			assert.Same(t, &doc.Skills[0], &got.Skills[0], "untouched list keeps identity")
		})
	}
}

func TestSetScalarField_UnknownFieldIsNoOp(t *testing.T) {
	doc := sampleDocument()
	got := SetScalarField(doc, types.ScalarField("title"), "x")
	assert.True(t, got.Equal(doc))
}

func TestSetSkillField(t *testing.T) {
	doc := sampleDocument()

	got := SetSkillField(doc, "s2", types.SkillFieldName, "PostgreSQL")
	assert.Equal(t, "PostgreSQL", got.Skills[1].Name)
	assert.Equal(t, "SQL", doc.Skills[1].Name)
	assert.NotSame(t, &doc.Skills[0], &got.Skills[0], "changed list is a fresh array")
	assert.Same(t, &doc.Experiences[0], &got.Experiences[0])

	got = SetSkillField(doc, "s1", types.SkillFieldLevel, "Basic")
	assert.Equal(t, types.SkillLevelBasic, got.Skills[0].Level)
}

func TestSetSkillField_InvalidLevelIsNoOp(t *testing.T) {
	doc := sampleDocument()
	got := SetSkillField(doc, "s1", types.SkillFieldLevel, "Expert")
	assert.True(t, got.Equal(doc))
	assert.Same(t, &doc.Skills[0], &got.Skills[0])
}

func TestSetItemField_UnknownIDIsNoOp(t *testing.T) {
	doc := sampleDocument()

	got := SetSkillField(doc, "missing", types.SkillFieldName, "x")
	assert.Same(t, &doc.Skills[0], &got.Skills[0])

	got = SetExperienceField(doc, "missing", types.ExperienceCompany, "x")
	assert.Same(t, &doc.Experiences[0], &got.Experiences[0])

	got = SetEducationField(doc, "missing", types.EducationDegree, "x")
	assert.Same(t, &doc.Education[0], &got.Education[0])

	assert.True(t, got.Equal(doc))
}

func TestSetExperienceField(t *testing.T) {
	doc := sampleDocument()

	got := SetExperienceField(doc, "e1", types.ExperienceCompany, "Globex")
	got = SetExperienceField(got, "e1", types.ExperiencePosition, "Lead")
	got = SetExperienceField(got, "e1", types.ExperiencePeriod, "02/2021 - 03/2022")
	got = SetExperienceField(got, "e1", types.ExperienceDescription, "Shipped")
	got = SetExperienceCurrent(got, "e1", false)

	assert.Equal(t, types.Experience{
		ID: "e1", Company: "Globex", Position: "Lead", Period: "02/2021 - 03/2022", Description: "Shipped",
	}, got.Experiences[0])
	assert.Equal(t, "Acme", doc.Experiences[0].Company)
	assert.True(t, doc.Experiences[0].IsCurrent)
}

func TestSetEducationField(t *testing.T) {
	doc := sampleDocument()

	got := SetEducationField(doc, "d1", types.EducationStartDate, "2015")
	got = SetEducationField(got, "d1", types.EducationEndDate, "2019")
	got = SetEducationField(got, "d1", types.EducationDescription, "Thesis")

	assert.Equal(t, "2015", got.Education[0].StartDate)
	assert.Equal(t, "2019", got.Education[0].EndDate)
	assert.Equal(t, "Thesis", got.Education[0].Description)
	assert.Equal(t, "", doc.Education[0].StartDate)
}

func TestSetListItemField(t *testing.T) {
	doc := sampleDocument()

	tests := []struct {
		name   string
		list   types.ListName
		id     string
		field  string
		value  any
		change bool
	}{
		{"skill name", types.ListSkills, "s1", "name", "Rust", true},
		{"experience company", types.ListExperiences, "e1", "company", "Initech", true},
		{"experience current flag", types.ListExperiences, "e1", "isCurrent", false, true},
		{"education degree", types.ListEducation, "d1", "degree", "MSc", true},
		{"unknown list", types.ListName("projects"), "s1", "name", "x", false},
		{"unknown field", types.ListSkills, "s1", "rating", "x", false},
		{"wrong value type", types.ListSkills, "s1", "name", 12, false},
		{"flag given as string", types.ListExperiences, "e1", "isCurrent", "false", false},
		{"unknown id", types.ListEducation, "nope", "degree", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SetListItemField(doc, tt.list, tt.id, tt.field, tt.value)
			assert.Equal(t, tt.change, !got.Equal(doc))
		})
	}
}

func TestAddListItem_Defaults(t *testing.T) {
	doc := types.EmptyDocument()

	doc, skillID := AddListItem(doc, types.ListSkills)
	doc, expID := AddListItem(doc, types.ListExperiences)
	doc, eduID := AddListItem(doc, types.ListEducation)

	require.NotEmpty(t, skillID)
	require.NotEmpty(t, expID)
	require.NotEmpty(t, eduID)
	assert.Equal(t, []types.Skill{{ID: skillID, Level: types.SkillLevelBasic}}, doc.Skills)
	assert.Equal(t, []types.Experience{{ID: expID}}, doc.Experiences)
	assert.Equal(t, []types.Education{{ID: eduID}}, doc.Education)
}

func TestAddListItem_Purity(t *testing.T) {
	doc := sampleDocument()
	before := cloneDocument(doc)

	got, id := AddListItem(doc, types.ListSkills)

	require.Len(t, got.Skills, len(doc.Skills)+1)
	assert.Equal(t, doc.Skills, got.Skills[:len(doc.Skills)])
	assert.Equal(t, id, got.Skills[len(got.Skills)-1].ID)
	assert.True(t, doc.Equal(before))
	assert.Len(t, doc.Skills, 2)
	assert.NotSame(t, &doc.Skills[0], &got.Skills[0])
	assert.Same(t, &doc.Education[0], &got.Education[0])
}

func TestAddListItem_NeverSharesSpareCapacity(t *testing.T) {
	doc := types.EmptyDocument()
	doc.Skills = make([]types.Skill, 1, 4)
	doc.Skills[0] = types.Skill{ID: "s1"}

	a, idA := AddListItem(doc, types.ListSkills)
	b, idB := AddListItem(doc, types.ListSkills)

	assert.Equal(t, idA, a.Skills[1].ID)
	assert.Equal(t, idB, b.Skills[1].ID)
	assert.NotEqual(t, idA, idB)
}

func TestAddListItem_UnknownList(t *testing.T) {
	doc := sampleDocument()
	got, id := AddListItem(doc, types.ListName("projects"))
	assert.Empty(t, id)
	assert.True(t, got.Equal(doc))
}

func TestRemoveListItem(t *testing.T) {
	doc := sampleDocument()

	got := RemoveListItem(doc, types.ListSkills, "s1")
	assert.Equal(t, []types.Skill{{ID: "s2", Name: "SQL", Level: types.SkillLevelIntermediate}}, got.Skills)
	assert.Len(t, doc.Skills, 2)
	assert.Same(t, &doc.Experiences[0], &got.Experiences[0])

	got = RemoveListItem(doc, types.ListExperiences, "e1")
	assert.NotNil(t, got.Experiences)
	assert.Empty(t, got.Experiences)

	got = RemoveListItem(doc, types.ListEducation, "d1")
	assert.Empty(t, got.Education)
}

func TestRemoveListItem_NoMatchKeepsIdentity(t *testing.T) {
	doc := sampleDocument()

	got := RemoveListItem(doc, types.ListSkills, "missing")
	assert.Same(t, &doc.Skills[0], &got.Skills[0])

	again := RemoveListItem(RemoveListItem(doc, types.ListSkills, "s1"), types.ListSkills, "s1")
	assert.Len(t, again.Skills, 1)
}
