package rendering

import (
	"regexp"
	"strings"

	"github.com/jonathan/cv-builder/internal/types"
)

var bulletPrefix = regexp.MustCompile(`^[-*]\s+`)

// View is the template data shared by the HTML preview and the LaTeX output.
type View struct {
	Name          string
	Email         string
	Phone         string
	LinkedIn      string
	LinkedInLabel string
	Summary       string
	Education     []EducationView
	Skills        []types.Skill
	Experiences   []ExperienceView
}

// EducationView is one education entry with its date range pre-joined.
type EducationView struct {
	Degree      string
	Institution string
	Dates       string
	Description string
}

// ExperienceView is one experience entry. When the description is written as a
// "- " or "* " list, Bullets holds the items and Paragraph is empty.
type ExperienceView struct {
	Position  string
	Company   string
	Period    string
	IsCurrent bool
	Paragraph string
	Bullets   []string
}

// NewView builds the template data for doc.
func NewView(doc types.Document) View {
	v := View{
		Name:          strings.TrimSpace(doc.PersonalInfo.Name),
		Email:         strings.TrimSpace(doc.PersonalInfo.Email),
		Phone:         strings.TrimSpace(doc.PersonalInfo.Phone),
		LinkedIn:      strings.TrimSpace(doc.PersonalInfo.LinkedIn),
		LinkedInLabel: LinkedInLabel(doc.PersonalInfo.LinkedIn),
		Summary:       strings.TrimSpace(doc.Summary),
		Skills:        doc.Skills,
	}

	for _, edu := range doc.Education {
		v.Education = append(v.Education, EducationView{
			Degree:      edu.Degree,
			Institution: edu.Institution,
			Dates:       joinDates(edu.StartDate, edu.EndDate),
			Description: strings.TrimSpace(edu.Description),
		})
	}

	for _, exp := range doc.Experiences {
		ev := ExperienceView{
			Position:  exp.Position,
			Company:   exp.Company,
			Period:    exp.Period,
			IsCurrent: exp.IsCurrent,
		}
		if bullets, ok := SplitBullets(exp.Description); ok {
			ev.Bullets = bullets
		} else {
			ev.Paragraph = strings.TrimSpace(exp.Description)
		}
		v.Experiences = append(v.Experiences, ev)
	}

	return v
}

// HasContact reports whether any contact line field is set.
func (v View) HasContact() bool {
	return v.Email != "" || v.Phone != "" || v.LinkedIn != ""
}

// ContactParts returns the non-empty contact fields in display order.
func (v View) ContactParts() []string {
	var parts []string
	for _, p := range []string{v.Email, v.Phone, v.LinkedInLabel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// SplitBullets splits a description into list items when at least one line
// starts with a "- " or "* " marker. Blank lines are skipped.
func SplitBullets(description string) ([]string, bool) {
	lines := strings.Split(strings.ReplaceAll(description, "\r\n", "\n"), "\n")

	marked := false
	var items []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if bulletPrefix.MatchString(line) {
			marked = true
			line = bulletPrefix.ReplaceAllString(line, "")
		}
		items = append(items, line)
	}
	if !marked {
		return nil, false
	}
	return items, true
}

// LinkedInLabel strips the scheme and a leading "www." from a profile URL.
func LinkedInLabel(url string) string {
	label := strings.TrimSpace(url)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(label), prefix) {
			label = label[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(strings.ToLower(label), "www.") {
		label = label[len("www."):]
	}
	return strings.TrimSuffix(label, "/")
}

func joinDates(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}
