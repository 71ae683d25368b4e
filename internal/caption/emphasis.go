package caption

import (
	"cmp"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// protectedSpan covers text the emphasis pass must not touch: existing bold
// spans, any other tag, and character entities.
var protectedSpan = regexp.MustCompile(`(?is)<b>.*?</b>|<[^>]*>|&[#a-z0-9]+;`)

// Emphasizer wraps words starting with a strong keyword stem in <b> tags.
type Emphasizer struct {
	pattern *regexp.Regexp
}

// NewEmphasizer compiles stems into one case-insensitive alternation ordered
// longest stem first, so a longer stem always wins over a shorter one sharing its prefix.
func NewEmphasizer(stems []string) (*Emphasizer, error) {
	sorted := make([]string, 0, len(stems))
	for _, s := range stems {
		if s = strings.TrimSpace(s); s != "" {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return &Emphasizer{}, nil
	}
	slices.SortStableFunc(sorted, func(a, b string) int {
		return cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a))
	})

	quoted := make([]string, len(sorted))
	for i, s := range sorted {
		quoted[i] = regexp.QuoteMeta(s)
	}
	re, err := regexp.Compile(`(?i)(?:` + strings.Join(quoted, "|") + `)[\p{L}\p{N}_]*`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword stems: %w", err)
	}
	return &Emphasizer{pattern: re}, nil
}

// Apply emphasizes s. Running it on its own output changes nothing.
func (e *Emphasizer) Apply(s string) string {
	if e == nil || e.pattern == nil {
		return s
	}

	var b strings.Builder
	last := 0
	var prev rune
	for _, loc := range protectedSpan.FindAllStringIndex(s, -1) {
		b.WriteString(e.emphasize(s[last:loc[0]], prev))
		span := s[loc[0]:loc[1]]
		b.WriteString(span)
		prev = spanTail(span)
		last = loc[1]
	}
	b.WriteString(e.emphasize(s[last:], prev))
	return b.String()
}

// emphasize wraps matches in text; prev is the rune that precedes text in the caption.
func (e *Emphasizer) emphasize(text string, prev rune) string {
	matches := e.pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !wordStart(text, m[0], prev) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString("<b>")
		b.WriteString(text[m[0]:m[1]])
		b.WriteString("</b>")
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// spanTail is the rune a protected span contributes to the text after it.
// Tags contribute nothing; an entity contributes the character it encodes.
func spanTail(span string) rune {
	if strings.HasPrefix(span, "<") {
		return 0
	}
	r, _ := utf8.DecodeLastRuneInString(html.UnescapeString(span))
	return r
}

func wordStart(text string, i int, prev rune) bool {
	r := prev
	if i > 0 {
		r, _ = utf8.DecodeLastRuneInString(text[:i])
	}
	return r == 0 || !inWord(r)
}

// inWord reports runes that continue a word. Apostrophes belong to Ukrainian words (комп'ютер).
func inWord(r rune) bool {
	switch r {
	case '_', '\'', '’', 'ʼ':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
