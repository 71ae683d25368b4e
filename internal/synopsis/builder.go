package synopsis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/unicode/norm"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

// Mode selects the verbosity tier.
type Mode string

const (
	ModeShort Mode = "short"
	ModeLong  Mode = "long"

	// MinSentences and MaxSentences bound the sentence count of either mode.
	MinSentences = 3
	MaxSentences = 10
)

// Options configures a Builder.
type Options struct {
	Mode           Mode
	ShortSentences int
	LongSentences  int
	WrapWidth      int
	Leads          []string
	Fallback       string
	// Headings label the long-form blocks: introduction, mechanism, application, tip.
	Headings      []string
	Substitutions []Substitution
}

// Builder fetches article intros and turns them into synopses.
type Builder struct {
	opts     Options
	source   ports.Encyclopedia
	rewriter *Rewriter
	rng      *rand.Rand
	logger   *slog.Logger
}

// NewBuilder compiles the rewrite table. rng drives lead selection only.
func NewBuilder(opts Options, source ports.Encyclopedia, rng *rand.Rand, logger *slog.Logger) (*Builder, error) {
	if strings.TrimSpace(opts.Fallback) == "" {
		return nil, errors.New("synopsis fallback line is empty")
	}
	if rng == nil {
		return nil, errors.New("synopsis builder needs a random source")
	}
	rw, err := NewRewriter(opts.Substitutions)
	if err != nil {
		return nil, fmt.Errorf("rewrite table: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: opts, source: source, rewriter: rw, rng: rng, logger: logger}, nil
}

// Fetch loads the article and builds its synopsis.
func (b *Builder) Fetch(ctx context.Context, id int64) (domain.ArticleContent, domain.Synopsis, error) {
	if b.source == nil {
		return domain.ArticleContent{}, domain.Synopsis{}, errors.New("encyclopedia source is not configured")
	}
	content, err := b.source.FetchContent(ctx, id)
	if err != nil {
		return domain.ArticleContent{}, domain.Synopsis{}, fmt.Errorf("fetch article %d: %w", id, err)
	}
	return content, b.Build(content.Extract), nil
}

// Build condenses and rewrites extract. It never returns an empty synopsis.
func (b *Builder) Build(extract string) domain.Synopsis {
	extract = norm.NFC.String(strings.TrimSpace(extract))

	limit := b.opts.ShortSentences
	if b.opts.Mode == ModeLong {
		limit = b.opts.LongSentences
	}

	sentences := Sentences(extract, limit)
	if len(sentences) == 0 {
		b.logger.Info("empty extract, using fallback line")
		return domain.Synopsis{Lines: []string{b.opts.Fallback}}
	}

	if b.opts.Mode == ModeLong {
		return b.longForm(sentences)
	}

	lines := b.leadLines(len(sentences) + 1)
	for _, s := range sentences {
		lines = append(lines, b.rewriter.Apply(s))
	}
	return domain.Synopsis{Lines: lines}
}

func (b *Builder) longForm(sentences []string) domain.Synopsis {
	var tip string
	if len(sentences) > 6 {
		tip = sentences[len(sentences)-1]
		sentences = sentences[:len(sentences)-1]
	}

	lines := b.leadLines(5)
	for i, group := range Partition(sentences, 3) {
		lines = append(lines, b.block(i, group))
	}
	if tip != "" {
		lines = append(lines, b.block(3, []string{tip}))
	}
	return domain.Synopsis{Lines: lines, LongForm: true}
}

func (b *Builder) block(index int, sentences []string) string {
	rewritten := make([]string, len(sentences))
	for i, s := range sentences {
		rewritten[i] = b.rewriter.Apply(s)
	}
	text := Wrap(strings.Join(rewritten, " "), b.opts.WrapWidth)
	if index < len(b.opts.Headings) && b.opts.Headings[index] != "" {
		return b.opts.Headings[index] + "\n" + text
	}
	return text
}

func (b *Builder) leadLines(capacity int) []string {
	lines := make([]string, 0, capacity)
	if len(b.opts.Leads) == 0 {
		return lines
	}
	return append(lines, b.opts.Leads[b.rng.IntN(len(b.opts.Leads))])
}

// Partition splits items into at most k contiguous groups whose sizes differ
// by at most one, earlier groups taking the remainder.
func Partition(items []string, k int) [][]string {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	if len(items) < k {
		k = len(items)
	}
	base, extra := len(items)/k, len(items)%k

	groups := make([][]string, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		groups = append(groups, items[start:start+size])
		start += size
	}
	return groups
}
