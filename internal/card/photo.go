package card

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"WikiCardPoster/internal/ports"
)

const (
	photoBlurSigma    = 6.0
	photoOverlayAlpha = 0.55
	photoBodyLines    = 4
)

// photoStyle uses the article thumbnail as a blurred, darkened background.
type photoStyle struct {
	fonts    *Fonts
	fetcher  ports.ImageFetcher
	fallback Style
	logger   *slog.Logger
}

func (p *photoStyle) Name() string { return StylePhoto }

func (p *photoStyle) Draw(ctx context.Context, dc *gg.Context, req Request, rng *rand.Rand) error {
	background, err := p.background(ctx, req.ThumbnailURL, dc.Width(), dc.Height())
	if err != nil {
		p.logger.Info("photo background unavailable, drawing flat card", "error", err)
		return p.fallback.Draw(ctx, dc, req, rng)
	}

	spec := req.Spec
	s := scale(dc)
	margin := 64 * s
	maxWidth := float64(dc.Width()) - 2*margin

	dc.DrawImage(background, 0, 0)
	dc.SetRGBA(0, 0, 0, photoOverlayAlpha)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()

	dc.SetColor(color.White)
	y := 80 * s
	if spec.TitleText != "" {
		face, err := p.fonts.Face(72*s, true)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		for _, line := range dc.WordWrap(spec.TitleText, maxWidth) {
			drawCentered(dc, line, y)
			y += dc.FontHeight() * 1.15
		}
		y += 24 * s
	}

	if spec.Subtitle != "" {
		face, err := p.fonts.Face(40*s, false)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		lines := dc.WordWrap(spec.Subtitle, maxWidth)
		if len(lines) > photoBodyLines {
			lines = lines[:photoBodyLines]
			lines[photoBodyLines-1] += ellipsis
		}
		for _, line := range lines {
			dc.DrawStringAnchored(line, margin, y, 0, 1)
			y += dc.FontHeight() * 1.3
		}
	}

	if err := drawHashtag(dc, p.fonts, spec.Hashtag, color.White); err != nil {
		return err
	}
	return drawWatermark(dc, p.fonts, spec.Watermark, color.RGBA{R: 200, G: 200, B: 200, A: 255})
}

func (p *photoStyle) background(ctx context.Context, url string, width, height int) (image.Image, error) {
	if url == "" {
		return nil, errors.New("article has no thumbnail")
	}
	if p.fetcher == nil {
		return nil, errors.New("image fetcher is not configured")
	}
	src, err := p.fetcher.FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}
	return imaging.Blur(coverCrop(src, width, height), photoBlurSigma), nil
}

// coverCrop scales src to fill width x height and crops the overflow evenly on both sides.
func coverCrop(src image.Image, width, height int) *image.RGBA {
	b := src.Bounds()
	target := float64(width) / float64(height)
	srcAspect := float64(b.Dx()) / float64(b.Dy())

	crop := b
	if srcAspect > target {
		w := int(float64(b.Dy()) * target)
		x0 := b.Min.X + (b.Dx()-w)/2
		crop = image.Rect(x0, b.Min.Y, x0+w, b.Max.Y)
	} else if srcAspect < target {
		h := int(float64(b.Dx()) / target)
		y0 := b.Min.Y + (b.Dy()-h)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}
