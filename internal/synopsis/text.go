package synopsis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Sentences splits text at '.', '!' or '?' followed by whitespace, collapses
// internal whitespace, and returns at most n sentences (all of them when n <= 0).
func Sentences(text string, n int) []string {
	var out []string
	add := func(s string) {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			out = append(out, s)
		}
	}

	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		add(text[start : loc[0]+1])
		start = loc[1]
	}
	add(text[start:])

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Substitution is one row of the rewrite table.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type rule struct {
	pattern *regexp.Regexp
	to      string
}

// Rewriter applies the substitution table in its declared order, case-insensitively.
type Rewriter struct {
	rules []rule
}

// NewRewriter compiles table. Each From is matched literally as a substring.
func NewRewriter(table []Substitution) (*Rewriter, error) {
	rules := make([]rule, 0, len(table))
	for i, sub := range table {
		if sub.From == "" {
			return nil, fmt.Errorf("substitution %d: empty pattern", i)
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(sub.From))
		if err != nil {
			return nil, fmt.Errorf("substitution %d: %w", i, err)
		}
		rules = append(rules, rule{pattern: re, to: sub.To})
	}
	return &Rewriter{rules: rules}, nil
}

// Apply rewrites s.
func (r *Rewriter) Apply(s string) string {
	if r == nil {
		return s
	}
	for _, rl := range r.rules {
		s = rl.pattern.ReplaceAllLiteralString(s, rl.to)
	}
	return s
}

// Wrap breaks s into lines of at most width display columns.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Wordwrap(s, width, "")
}
