package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textSelectors are the preview elements that become lines of the plain text export.
const textSelectors = "h1, h2, p, div.entry-title, div.institution, div.muted, li"

// PlainText flattens a rendered preview page into plain text. Section headings
// are upper-cased and preceded by a blank line; list items become "- " lines.
// Placeholder hints are not exported.
func PlainText(page []byte) (string, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse preview: %w", err)
	}

	dom.Find("head, script, style, .placeholder").Remove()

	var lines []string
	dom.Find("body").Find(textSelectors).Each(func(_ int, s *goquery.Selection) {
		text := collapseWhitespace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h2":
			lines = append(lines, "", strings.ToUpper(text))
		case "li":
			lines = append(lines, "- "+text)
		default:
			lines = append(lines, text)
		}
	})

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n", nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
