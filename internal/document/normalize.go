// Package document repairs externally stored or imported CV documents into the canonical shape.
package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cv-builder/internal/types"
)

// legacySkillLevels maps levels written by the first (Portuguese) version of the editor.
var legacySkillLevels = map[string]types.SkillLevel{
	"básico":        types.SkillLevelBasic,
	"basico":        types.SkillLevelBasic,
	"intermediário": types.SkillLevelIntermediate,
	"intermediario": types.SkillLevelIntermediate,
	"avançado":      types.SkillLevelAdvanced,
	"avancado":      types.SkillLevelAdvanced,
}

// NewID returns a fresh list item identifier.
func NewID() string {
	return uuid.NewString()
}

// NormalizeJSON decodes data and normalizes the result.
// The only failure is data that is not JSON at all.
func NormalizeJSON(data []byte) (types.Document, error) {
	var candidate any
	if err := json.Unmarshal(data, &candidate); err != nil {
		return types.EmptyDocument(), fmt.Errorf("failed to decode document JSON: %w", err)
	}
	return Normalize(candidate), nil
}

// Normalize returns a fully populated Document from arbitrary decoded JSON.
// Missing fields fall back to EmptyDocument values, personalInfo is merged key by key,
// and values of the wrong type are coerced rather than rejected.
func Normalize(candidate any) types.Document {
	doc := types.EmptyDocument()

	root, ok := candidate.(map[string]any)
	if !ok {
		return doc
	}

	if info, ok := root["personalInfo"].(map[string]any); ok {
		doc.PersonalInfo = mergePersonalInfo(doc.PersonalInfo, info)
	}
	// Earliest saved shape kept contact fields at the root.
	doc.PersonalInfo = mergeLegacyRoot(doc.PersonalInfo, root)

	if v, ok := root["summary"]; ok {
		doc.Summary = coerceString(v)
	}

	doc.Skills = normalizeSkills(root["skills"])
	doc.Experiences = normalizeExperiences(root["experiences"])
	doc.Education = normalizeEducation(root["education"])

	return doc
}

func mergePersonalInfo(base types.PersonalInfo, info map[string]any) types.PersonalInfo {
	if v, ok := info["name"]; ok {
		base.Name = coerceString(v)
	}
	if v, ok := info["email"]; ok {
		base.Email = coerceString(v)
	}
	if v, ok := info["phone"]; ok {
		base.Phone = coerceString(v)
	}
	if v, ok := info["linkedin"]; ok {
		base.LinkedIn = coerceString(v)
	}
	return base
}

func mergeLegacyRoot(base types.PersonalInfo, root map[string]any) types.PersonalInfo {
	info, _ := root["personalInfo"].(map[string]any)
	has := func(key string) bool {
		_, ok := info[key]
		return ok
	}

	if v, ok := root["name"]; ok && !has("name") {
		base.Name = coerceString(v)
	}
	if v, ok := root["email"]; ok && !has("email") {
		base.Email = coerceString(v)
	}
	if v, ok := root["phone"]; ok && !has("phone") {
		base.Phone = coerceString(v)
	}
	if v, ok := root["linkedin"]; ok && !has("linkedin") {
		base.LinkedIn = coerceString(v)
	}
	return base
}

func normalizeSkills(v any) []types.Skill {
	items := objectItems(v)
	skills := make([]types.Skill, 0, len(items))
	ids := newIDSet()
	for _, item := range items {
		skills = append(skills, types.Skill{
			ID:    ids.claim(item["id"]),
			Name:  coerceString(item["name"]),
			Level: normalizeSkillLevel(item["level"]),
		})
	}
	return skills
}

func normalizeExperiences(v any) []types.Experience {
	items := objectItems(v)
	experiences := make([]types.Experience, 0, len(items))
	ids := newIDSet()
	for _, item := range items {
		experiences = append(experiences, types.Experience{
			ID:          ids.claim(item["id"]),
			Company:     coerceString(item["company"]),
			Position:    coerceString(item["position"]),
			Period:      coerceString(item["period"]),
			Description: coerceString(item["description"]),
			IsCurrent:   coerceBool(item["isCurrent"]),
		})
	}
	return experiences
}

func normalizeEducation(v any) []types.Education {
	items := objectItems(v)
	education := make([]types.Education, 0, len(items))
	ids := newIDSet()
	for _, item := range items {
		education = append(education, types.Education{
			ID:          ids.claim(item["id"]),
			Degree:      coerceString(item["degree"]),
			Institution: coerceString(item["institution"]),
			StartDate:   coerceString(item["startDate"]),
			EndDate:     coerceString(item["endDate"]),
			Description: coerceString(item["description"]),
		})
	}
	return education
}

func normalizeSkillLevel(v any) types.SkillLevel {
	level := types.SkillLevel(coerceString(v))
	if level.Valid() {
		return level
	}
	if legacy, ok := legacySkillLevels[strings.ToLower(strings.TrimSpace(string(level)))]; ok {
		return legacy
	}
	return types.SkillLevelBasic
}

// objectItems returns the object elements of a JSON array, skipping anything else.
func objectItems(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(list))
	for _, element := range list {
		if obj, ok := element.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}

// idSet hands out ids that are unique within one list.
type idSet map[string]bool

func newIDSet() idSet {
	return make(idSet)
}

func (s idSet) claim(v any) string {
	id := coerceString(v)
	if id == "" || s[id] {
		id = NewID()
	}
	s[id] = true
	return id
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, json.Number:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	case float64:
		return t != 0
	default:
		return false
	}
}
