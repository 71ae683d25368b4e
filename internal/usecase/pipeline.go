package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"WikiCardPoster/internal/card"
	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
	"WikiCardPoster/internal/synopsis"
)

// SynopsisSource loads an article and condenses it.
type SynopsisSource interface {
	Fetch(ctx context.Context, id int64) (domain.ArticleContent, domain.Synopsis, error)
}

// CardRenderer turns a title into a card image.
type CardRenderer interface {
	Spec(title, subtitle string, seed int64) domain.CardSpec
	Render(ctx context.Context, req card.Request) (domain.RenderedImage, error)
}

// CaptionAssembler builds the post caption.
type CaptionAssembler interface {
	Assemble(content domain.ArticleContent, syn domain.Synopsis) (string, error)
}

// Status reports how a run ended.
type Status int

const (
	OutcomeSkipped Status = iota
	OutcomePublished
)

func (s Status) String() string {
	switch s {
	case OutcomeSkipped:
		return "skipped"
	case OutcomePublished:
		return "published"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one pipeline run. Post is set only when published.
type Outcome struct {
	Status Status
	RunID  string
	Post   domain.Post
}

// PipelineDeps wires all collaborators into the posting pipeline.
type PipelineDeps struct {
	Gate      ports.Gate
	Selector  *TopicSelector
	Synopsis  SynopsisSource
	Renderer  CardRenderer
	Captions  CaptionAssembler
	Publisher ports.Publisher
	// Location fixes the calendar day used for the render seed.
	Location *time.Location
	Logger   *slog.Logger
}

// Pipeline runs gate, selection, synopsis, rendering, captioning and delivery.
type Pipeline struct {
	gate      ports.Gate
	selector  *TopicSelector
	synopsis  SynopsisSource
	renderer  CardRenderer
	captions  CaptionAssembler
	publisher ports.Publisher
	location  *time.Location
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	switch {
	case deps.Gate == nil:
		return nil, errors.New("pipeline: gate is nil")
	case deps.Selector == nil:
		return nil, errors.New("pipeline: selector is nil")
	case deps.Synopsis == nil:
		return nil, errors.New("pipeline: synopsis source is nil")
	case deps.Renderer == nil:
		return nil, errors.New("pipeline: renderer is nil")
	case deps.Captions == nil:
		return nil, errors.New("pipeline: caption assembler is nil")
	case deps.Publisher == nil:
		return nil, errors.New("pipeline: publisher is nil")
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gate:      deps.Gate,
		selector:  deps.Selector,
		synopsis:  deps.Synopsis,
		renderer:  deps.Renderer,
		captions:  deps.Captions,
		publisher: deps.Publisher,
		location:  loc,
		logger:    logger.With("component", "pipeline"),
	}, nil
}

// Run performs one gate pass. A closed gate yields OutcomeSkipped and no error.
func (p *Pipeline) Run(ctx context.Context, now time.Time, force bool) (Outcome, error) {
	out := Outcome{Status: OutcomeSkipped, RunID: uuid.NewString()}
	log := p.logger.With("run_id", out.RunID)

	if !p.gate.Allow(now, force) {
		log.Info("not a publish slot", "now", now.In(p.location).Format(time.DateTime))
		return out, nil
	}
	if err := p.publisher.Ready(); err != nil {
		return out, fmt.Errorf("publisher preflight: %w", err)
	}

	ref, category, err := p.selector.Select(ctx)
	if err != nil {
		return out, fmt.Errorf("select article: %w", err)
	}

	content, syn, err := p.synopsis.Fetch(ctx, ref.ID)
	if err != nil {
		return out, err
	}
	if content.Title == "" {
		content.Title = ref.Title
	}
	log.Info("synopsis built", "category", category, "title", content.Title, "lines", len(syn.Lines), "long_form", syn.LongForm)

	seed := domain.SeedFor(content.Title, now.In(p.location))
	spec := p.renderer.Spec(content.Title, subtitle(content), seed)
	img, err := p.renderer.Render(ctx, card.Request{Spec: spec, ThumbnailURL: content.ThumbnailURL})
	if err != nil {
		return out, fmt.Errorf("render card: %w", err)
	}

	caption, err := p.captions.Assemble(content, syn)
	if err != nil {
		return out, fmt.Errorf("assemble caption: %w", err)
	}

	post := domain.Post{Article: content, Synopsis: syn, Caption: caption, Image: img}
	if err := p.publisher.PublishPhoto(ctx, post.Image, post.Caption); err != nil {
		return out, fmt.Errorf("publish %q: %w", content.Title, err)
	}

	log.Info("post published", "title", content.Title, "seed", seed, "image_bytes", len(img.Data))
	out.Status = OutcomePublished
	out.Post = post
	return out, nil
}

// subtitle is the first sentence of the intro, drawn by the photo style.
func subtitle(content domain.ArticleContent) string {
	if first := synopsis.Sentences(content.Extract, 1); len(first) > 0 {
		return first[0]
	}
	return ""
}
