package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

// DefaultMemberLimit caps how many members are requested per category.
const DefaultMemberLimit = 200

// SelectorDeps wires the topic selector.
type SelectorDeps struct {
	Source      ports.Encyclopedia
	Categories  []domain.Category
	Denylist    []string
	MemberLimit int
	Rand        *rand.Rand
	Logger      *slog.Logger
}

// TopicSelector picks one random article from a random configured category.
type TopicSelector struct {
	source     ports.Encyclopedia
	categories []domain.Category
	denylist   []string
	limit      int
	rng        *rand.Rand
	fold       cases.Caser
	logger     *slog.Logger
}

// NewTopicSelector validates deps and pre-folds the denylist.
func NewTopicSelector(deps SelectorDeps) (*TopicSelector, error) {
	if deps.Source == nil {
		return nil, errors.New("topic selector needs an encyclopedia source")
	}
	if len(deps.Categories) == 0 {
		return nil, &domain.ConfigurationError{Field: "wikipedia categories"}
	}
	if deps.Rand == nil {
		return nil, errors.New("topic selector needs a random source")
	}
	if deps.MemberLimit <= 0 {
		deps.MemberLimit = DefaultMemberLimit
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fold := cases.Fold()
	denylist := make([]string, 0, len(deps.Denylist))
	for _, term := range deps.Denylist {
		if term = strings.TrimSpace(term); term != "" {
			denylist = append(denylist, fold.String(term))
		}
	}

	return &TopicSelector{
		source:     deps.Source,
		categories: deps.Categories,
		denylist:   denylist,
		limit:      deps.MemberLimit,
		rng:        deps.Rand,
		fold:       fold,
		logger:     logger.With("component", "selector"),
	}, nil
}

// Select chooses a category, drops denylisted members and picks one of the rest.
func (s *TopicSelector) Select(ctx context.Context) (domain.ArticleRef, domain.Category, error) {
	category := s.categories[s.rng.IntN(len(s.categories))]

	members, err := s.source.CategoryMembers(ctx, category, s.limit)
	if err != nil {
		return domain.ArticleRef{}, category, fmt.Errorf("list %s: %w", category, err)
	}
	if len(members) == 0 {
		return domain.ArticleRef{}, category, &domain.NoCandidatesError{Category: category, Reason: "empty category"}
	}

	candidates := s.Filter(members)
	if len(candidates) == 0 {
		return domain.ArticleRef{}, category, &domain.NoCandidatesError{Category: category, Reason: "all members filtered"}
	}

	picked := candidates[s.rng.IntN(len(candidates))]
	s.logger.Info("article selected",
		"category", category,
		"title", picked.Title,
		"members", len(members),
		"candidates", len(candidates),
	)
	return picked, category, nil
}

// Filter returns members whose titles contain no denylisted term, ignoring case.
func (s *TopicSelector) Filter(members []domain.ArticleRef) []domain.ArticleRef {
	if len(s.denylist) == 0 {
		return members
	}
	kept := make([]domain.ArticleRef, 0, len(members))
	for _, m := range members {
		if !s.denied(m.Title) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (s *TopicSelector) denied(title string) bool {
	folded := s.fold.String(title)
	for _, term := range s.denylist {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}
