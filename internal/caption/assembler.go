package caption

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"WikiCardPoster/internal/domain"
)

// EmojiMode selects how header emoji are chosen.
type EmojiMode string

const (
	EmojiRandom   EmojiMode = "random"
	EmojiKeywords EmojiMode = "keywords"

	bullet = "• "
)

// EmojiGroup maps an emoji to the keywords that summon it.
type EmojiGroup struct {
	Emoji    string   `yaml:"emoji"`
	Keywords []string `yaml:"keywords"`
}

// Options configures the Assembler.
type Options struct {
	Hashtags       []string
	StrongKeywords []string
	EmojiMode      EmojiMode
	EmojiPool      []string
	EmojiGroups    []EmojiGroup
	DefaultEmoji   string
	MaxEmoji       int
	// Attribution is a Markdown template; {title} and {url} are substituted.
	Attribution string
	// MaxLength caps the visible caption length in runes; zero disables the cap.
	MaxLength int
}

// Assembler composes the post caption in Telegram's HTML subset.
type Assembler struct {
	opts       Options
	emphasizer *Emphasizer
	markdown   goldmark.Markdown
	policy     *bluemonday.Policy
	plain      *bluemonday.Policy
	lower      cases.Caser
	rng        *rand.Rand
}

// NewAssembler compiles the keyword stems. rng drives emoji choice.
func NewAssembler(opts Options, rng *rand.Rand) (*Assembler, error) {
	if rng == nil {
		return nil, errors.New("caption assembler needs a random source")
	}
	emph, err := NewEmphasizer(opts.StrongKeywords)
	if err != nil {
		return nil, err
	}
	if opts.MaxEmoji <= 0 {
		opts.MaxEmoji = 2
	}

	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "code")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("http", "https")

	return &Assembler{
		opts:       opts,
		emphasizer: emph,
		markdown:   goldmark.New(),
		policy:     policy,
		plain:      bluemonday.StrictPolicy(),
		lower:      cases.Lower(language.Ukrainian),
		rng:        rng,
	}, nil
}

// Assemble builds the caption for an article and its synopsis.
func (a *Assembler) Assemble(content domain.ArticleContent, syn domain.Synopsis) (string, error) {
	header := a.emoji(content.Title, syn) + " <b>" + html.EscapeString(content.Title) + "</b>"

	attribution, err := a.attribution(content)
	if err != nil {
		return "", err
	}
	tags := strings.Join(a.opts.Hashtags, " ")

	lines := syn.Lines
	for {
		caption := a.compose(header, a.body(lines, syn.LongForm), attribution, tags)
		if a.opts.MaxLength <= 0 || len(lines) <= 1 || a.visibleLength(caption) <= a.opts.MaxLength {
			return caption, nil
		}
		lines = lines[:len(lines)-1]
	}
}

func (a *Assembler) compose(header, body, attribution, tags string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(body)
	if attribution != "" || tags != "" {
		b.WriteString("\n")
	}
	if attribution != "" {
		b.WriteString("\n")
		b.WriteString(attribution)
	}
	if tags != "" {
		b.WriteString("\n")
		b.WriteString(tags)
	}
	return a.policy.Sanitize(b.String())
}

// body renders the lead unbulleted, then bullets (short mode) or paragraph blocks (long form).
func (a *Assembler) body(lines []string, longForm bool) string {
	rendered := make([]string, len(lines))
	for i, ln := range lines {
		ln = html.EscapeString(ln)
		if i > 0 && !longForm {
			ln = bullet + ln
		}
		rendered[i] = ln
	}

	sep := "\n"
	if longForm {
		sep = "\n\n"
	}
	return a.emphasizer.Apply(strings.Join(rendered, sep))
}

func (a *Assembler) emoji(title string, syn domain.Synopsis) string {
	if a.opts.EmojiMode == EmojiKeywords {
		return a.keywordEmoji(title, syn)
	}
	if len(a.opts.EmojiPool) == 0 {
		return a.opts.DefaultEmoji
	}
	return a.opts.EmojiPool[a.rng.IntN(len(a.opts.EmojiPool))]
}

func (a *Assembler) keywordEmoji(title string, syn domain.Synopsis) string {
	text := a.lower.String(title + " " + strings.Join(syn.Lines, " "))

	var matched []string
	for _, group := range a.opts.EmojiGroups {
		for _, kw := range group.Keywords {
			if kw != "" && strings.Contains(text, a.lower.String(kw)) {
				matched = append(matched, group.Emoji)
				break
			}
		}
	}
	if len(matched) == 0 {
		return a.opts.DefaultEmoji
	}

	a.rng.Shuffle(len(matched), func(i, j int) { matched[i], matched[j] = matched[j], matched[i] })
	if len(matched) > a.opts.MaxEmoji {
		matched = matched[:a.opts.MaxEmoji]
	}
	return strings.Join(matched, "")
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func (a *Assembler) attribution(content domain.ArticleContent) (string, error) {
	if a.opts.Attribution == "" || content.CanonicalURL == "" {
		return "", nil
	}
	src := strings.NewReplacer(
		"{title}", markdownEscaper.Replace(content.Title),
		"{url}", content.CanonicalURL,
	).Replace(a.opts.Attribution)

	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render attribution: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return out, nil
}

func (a *Assembler) visibleLength(caption string) int {
	return utf8.RuneCountInString(html.UnescapeString(a.plain.Sanitize(caption)))
}
