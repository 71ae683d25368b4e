package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

// CaptionFile is the name the caption is written under.
const CaptionFile = "caption.html"

// PreviewSink stores posts on disk instead of delivering them.
type PreviewSink struct {
	dir    string
	logger *slog.Logger
}

var _ ports.Publisher = (*PreviewSink)(nil)

// NewPreviewSink writes into dir, creating it on first publish.
func NewPreviewSink(dir string, logger *slog.Logger) *PreviewSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewSink{dir: dir, logger: logger.With("component", "preview")}
}

// Ready requires an output directory.
func (s *PreviewSink) Ready() error {
	if s.dir == "" {
		return &domain.ConfigurationError{Field: "preview output directory"}
	}
	return nil
}

// PublishPhoto writes the image under its own filename and the caption next to it.
func (s *PreviewSink) PublishPhoto(ctx context.Context, img domain.RenderedImage, caption string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}

	name := img.Filename
	if name == "" {
		name = "card.png"
	}
	imagePath := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(imagePath, img.Data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	captionPath := filepath.Join(s.dir, CaptionFile)
	if err := os.WriteFile(captionPath, []byte(caption), 0o644); err != nil {
		return fmt.Errorf("write caption: %w", err)
	}

	s.logger.Info("preview written", "image", imagePath, "caption", captionPath)
	return nil
}

// Dir returns the output directory.
func (s *PreviewSink) Dir() string {
	return s.dir
}
