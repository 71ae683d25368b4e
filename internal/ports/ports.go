package ports

import (
	"context"
	"image"
	"time"

	"WikiCardPoster/internal/domain"
)

// Encyclopedia lists category members and fetches article intros.
type Encyclopedia interface {
	CategoryMembers(ctx context.Context, category domain.Category, limit int) ([]domain.ArticleRef, error)
	FetchContent(ctx context.Context, id int64) (domain.ArticleContent, error)
}

// ImageFetcher downloads and decodes a remote picture (article thumbnails).
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// Publisher delivers a rendered card with its caption to the destination.
type Publisher interface {
	Ready() error
	PublishPhoto(ctx context.Context, img domain.RenderedImage, caption string) error
}

// Gate decides whether now is a publish moment.
type Gate interface {
	Allow(now time.Time, force bool) bool
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
