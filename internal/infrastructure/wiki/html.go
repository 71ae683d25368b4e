package wiki

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText flattens an HTML intro into paragraphs of plain text.
func htmlToText(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse extract: %w", err)
	}
	doc.Find("sup.reference, .mw-empty-elt, style, script").Remove()

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(paragraphs, "\n"), nil
}
