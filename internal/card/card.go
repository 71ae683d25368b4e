package card

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"unicode/utf8"

	"github.com/fogleman/gg"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

const (
	StyleFlat     = "flat"
	StylePhoto    = "photo"
	StyleAbstract = "abstract"

	// Filename and MIMEType describe the artifact handed to delivery.
	Filename = "card.png"
	MIMEType = "image/png"

	ellipsis     = "…"
	baseHeight   = 720.0
	seedStreamID = 0x9e3779b97f4a7c15
)

var watermarkColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}

// DefaultPalettes are the pastel background/foreground pairs of the flat style.
func DefaultPalettes() []domain.Palette {
	return []domain.Palette{
		{Background: color.RGBA{246, 242, 236, 255}, Foreground: color.RGBA{63, 87, 72, 255}},
		{Background: color.RGBA{239, 245, 250, 255}, Foreground: color.RGBA{58, 76, 105, 255}},
		{Background: color.RGBA{244, 240, 252, 255}, Foreground: color.RGBA{86, 72, 115, 255}},
		{Background: color.RGBA{242, 248, 244, 255}, Foreground: color.RGBA{70, 105, 80, 255}},
	}
}

// Options configures the Renderer.
type Options struct {
	Style         string
	Width         int
	Height        int
	TitleOnImage  bool
	MaxTitleRunes int
	Hashtag       string
	Watermark     string
	Palettes      []domain.Palette
}

// Request is one render job.
type Request struct {
	Spec         domain.CardSpec
	ThumbnailURL string
}

// Style draws a card onto a canvas of the spec's size.
type Style interface {
	Name() string
	Draw(ctx context.Context, dc *gg.Context, req Request, rng *rand.Rand) error
}

// Registry keeps a mapping from style names to implementations.
type Registry struct {
	styles map[string]Style
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{styles: map[string]Style{}}
}

// Register adds or replaces a style.
func (r *Registry) Register(style Style) {
	if r.styles == nil {
		r.styles = map[string]Style{}
	}
	r.styles[style.Name()] = style
}

// Resolve returns a style by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Style, error) {
	if style, ok := r.styles[name]; ok {
		return style, nil
	}
	return nil, fmt.Errorf("card style %s is not registered", name)
}

// Renderer turns card specs into PNG images.
type Renderer struct {
	opts     Options
	registry *Registry
	logger   *slog.Logger
}

// NewRenderer registers the flat, photo and abstract styles. fetcher may be nil,
// in which case the photo style always falls back to flat.
func NewRenderer(opts Options, fonts *Fonts, fetcher ports.ImageFetcher, logger *slog.Logger) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("card size %dx%d is invalid", opts.Width, opts.Height)
	}
	if len(opts.Palettes) == 0 {
		opts.Palettes = DefaultPalettes()
	}
	if opts.Style == "" {
		opts.Style = StyleFlat
	}
	if logger == nil {
		logger = slog.Default()
	}

	flat := &flatStyle{fonts: fonts}
	registry := NewRegistry()
	registry.Register(flat)
	registry.Register(&photoStyle{fonts: fonts, fetcher: fetcher, fallback: flat, logger: logger})
	registry.Register(&abstractStyle{fonts: fonts})

	if _, err := registry.Resolve(opts.Style); err != nil {
		return nil, err
	}
	return &Renderer{opts: opts, registry: registry, logger: logger}, nil
}

// NewSeededRand returns the generator every render-time random choice draws from.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), seedStreamID))
}

// TruncateTitle cuts title to limit runes and appends an ellipsis when it was longer.
func TruncateTitle(title string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(title) <= limit {
		return title
	}
	return string([]rune(title)[:limit]) + ellipsis
}

// Spec builds the card spec for a title. subtitle is only drawn by the photo style.
func (r *Renderer) Spec(title, subtitle string, seed int64) domain.CardSpec {
	rng := NewSeededRand(seed)
	spec := domain.CardSpec{
		Width:     r.opts.Width,
		Height:    r.opts.Height,
		Palette:   r.opts.Palettes[rng.IntN(len(r.opts.Palettes))],
		Subtitle:  subtitle,
		Hashtag:   r.opts.Hashtag,
		Watermark: r.opts.Watermark,
		Seed:      seed,
	}
	if r.opts.TitleOnImage {
		spec.TitleText = TruncateTitle(title, r.opts.MaxTitleRunes)
	}
	return spec
}

// Render draws req with the configured style and encodes it as PNG.
func (r *Renderer) Render(ctx context.Context, req Request) (domain.RenderedImage, error) {
	style, err := r.registry.Resolve(r.opts.Style)
	if err != nil {
		return domain.RenderedImage{}, err
	}

	spec := req.Spec
	dc := gg.NewContext(spec.Width, spec.Height)
	if err := style.Draw(ctx, dc, req, NewSeededRand(spec.Seed)); err != nil {
		return domain.RenderedImage{}, fmt.Errorf("draw %s card: %w", style.Name(), err)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return domain.RenderedImage{}, fmt.Errorf("encode card: %w", err)
	}

	r.logger.Debug("card rendered", "style", style.Name(), "seed", spec.Seed, "bytes", buf.Len())
	return domain.RenderedImage{
		Data:     buf.Bytes(),
		Filename: Filename,
		MIMEType: MIMEType,
		Width:    spec.Width,
		Height:   spec.Height,
	}, nil
}

// scale maps coordinates designed for a 720px tall canvas onto dc.
func scale(dc *gg.Context) float64 {
	return float64(dc.Height()) / baseHeight
}

// fitFace picks the largest size from size down to minSize at which text fits maxWidth.
func fitFace(dc *gg.Context, fonts *Fonts, text string, size, minSize, maxWidth float64, bold bool) error {
	for {
		face, err := fonts.Face(size, bold)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		if w, _ := dc.MeasureString(text); w <= maxWidth || size <= minSize {
			return nil
		}
		size = max(size-4, minSize)
	}
}

// drawCentered draws text horizontally centered with its top edge at y.
func drawCentered(dc *gg.Context, text string, y float64) {
	w, _ := dc.MeasureString(text)
	dc.DrawStringAnchored(text, (float64(dc.Width())-w)/2, y, 0, 1)
}

func drawTitle(dc *gg.Context, fonts *Fonts, title string, y float64, c color.Color) error {
	if title == "" {
		return nil
	}
	s := scale(dc)
	if err := fitFace(dc, fonts, title, 96*s, 40*s, float64(dc.Width())-96*s, true); err != nil {
		return err
	}
	dc.SetColor(c)
	drawCentered(dc, title, y)
	return nil
}

func drawHashtag(dc *gg.Context, fonts *Fonts, hashtag string, c color.Color) error {
	if hashtag == "" {
		return nil
	}
	s := scale(dc)
	face, err := fonts.Face(44*s, false)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(c)
	drawCentered(dc, hashtag, float64(dc.Height())-120*s)
	return nil
}

func drawWatermark(dc *gg.Context, fonts *Fonts, mark string, c color.Color) error {
	if mark == "" {
		return nil
	}
	s := scale(dc)
	face, err := fonts.Face(28*s, false)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(c)
	w, _ := dc.MeasureString(mark)
	dc.DrawStringAnchored(mark, float64(dc.Width())-24*s-w, float64(dc.Height())-48*s, 0, 1)
	return nil
}
