package card

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

type stubFetcher struct {
	img   image.Image
	err   error
	calls int
}

func (s *stubFetcher) FetchImage(context.Context, string) (image.Image, error) {
	s.calls++
	return s.img, s.err
}

func testRenderer(t *testing.T, style string, fetcher *stubFetcher) *Renderer {
	t.Helper()
	fonts, err := LoadFonts("", "")
	require.NoError(t, err)

	opts := Options{
		Style:         style,
		Width:         640,
		Height:        360,
		TitleOnImage:  true,
		MaxTitleRunes: 40,
		Hashtag:       "#ШІ",
		Watermark:     "@channel",
	}
	var f ports.ImageFetcher
	if fetcher != nil {
		f = fetcher
	}
	r, err := NewRenderer(opts, fonts, f, nil)
	require.NoError(t, err)
	return r
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestTruncateTitle(t *testing.T) {
	t.Parallel()

	long := "Дуже Довга Назва Статті Про Штучний Інтелект"
	assert.Equal(t, "Дуже Довга Назва Статті Про Штучний Інте…", TruncateTitle(long, 40))
	assert.Equal(t, "BERT", TruncateTitle("BERT", 40))
	assert.Equal(t, long, TruncateTitle(long, 0))
}

func TestSpecTruncatesLongTitle(t *testing.T) {
	t.Parallel()

	r := testRenderer(t, StyleFlat, nil)
	spec := r.Spec("Дуже Довга Назва Статті Про Штучний Інтелект", "", 7)

	assert.Equal(t, "Дуже Довга Назва Статті Про Штучний Інте…", spec.TitleText)
	assert.Equal(t, "#ШІ", spec.Hashtag)
	assert.Equal(t, "@channel", spec.Watermark)
	assert.Equal(t, int64(7), spec.Seed)
	assert.Contains(t, DefaultPalettes(), spec.Palette)
}

func TestSpecPaletteIsSeeded(t *testing.T) {
	t.Parallel()

	r := testRenderer(t, StyleFlat, nil)
	for seed := int64(0); seed < 20; seed++ {
		assert.Equal(t, r.Spec("t", "", seed).Palette, r.Spec("t", "", seed).Palette)
	}
}

func TestRenderIsDeterministicForSameTitleAndDay(t *testing.T) {
	t.Parallel()

	title := "Згорткова нейронна мережа"
	day := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

	for _, style := range []string{StyleFlat, StyleAbstract} {
		r1 := testRenderer(t, style, nil)
		r2 := testRenderer(t, style, nil)

		seed := domain.SeedFor(title, day)
		a, err := r1.Render(context.Background(), Request{Spec: r1.Spec(title, "", seed)})
		require.NoError(t, err)
		b, err := r2.Render(context.Background(), Request{Spec: r2.Spec(title, "", domain.SeedFor(title, day.Add(9*time.Hour)))})
		require.NoError(t, err)

		assert.True(t, bytes.Equal(a.Data, b.Data), style)
		assert.Equal(t, Filename, a.Filename)
		assert.Equal(t, MIMEType, a.MIMEType)

		decoded, err := png.Decode(bytes.NewReader(a.Data))
		require.NoError(t, err)
		assert.Equal(t, 640, decoded.Bounds().Dx())
		assert.Equal(t, 360, decoded.Bounds().Dy())
	}
}

func TestAbstractDependsOnSeed(t *testing.T) {
	t.Parallel()

	r := testRenderer(t, StyleAbstract, nil)
	a, err := r.Render(context.Background(), Request{Spec: r.Spec("x", "", 1)})
	require.NoError(t, err)
	b, err := r.Render(context.Background(), Request{Spec: r.Spec("x", "", 2)})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a.Data, b.Data))
}

func TestPhotoFallsBackToFlat(t *testing.T) {
	t.Parallel()

	flat := testRenderer(t, StyleFlat, nil)
	want, err := flat.Render(context.Background(), Request{Spec: flat.Spec("Перцептрон", "", 3)})
	require.NoError(t, err)

	failing := &stubFetcher{err: errors.New("timeout")}
	photo := testRenderer(t, StylePhoto, failing)
	got, err := photo.Render(context.Background(), Request{Spec: photo.Spec("Перцептрон", "", 3), ThumbnailURL: "https://img/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.True(t, bytes.Equal(want.Data, got.Data))

	noThumb := &stubFetcher{}
	photo = testRenderer(t, StylePhoto, noThumb)
	got, err = photo.Render(context.Background(), Request{Spec: photo.Spec("Перцептрон", "", 3)})
	require.NoError(t, err)
	assert.Zero(t, noThumb.calls)
	assert.True(t, bytes.Equal(want.Data, got.Data))
}

func TestPhotoBackedCard(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{img: gradient(300, 300)}
	r := testRenderer(t, StylePhoto, fetcher)
	spec := r.Spec("Трансформер (модель машинного навчання)", "Трансформер — архітектура глибокого навчання, що використовує механізм уваги.", 11)

	a, err := r.Render(context.Background(), Request{Spec: spec, ThumbnailURL: "https://img/t.png"})
	require.NoError(t, err)
	b, err := r.Render(context.Background(), Request{Spec: spec, ThumbnailURL: "https://img/t.png"})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a.Data, b.Data))

	flat := testRenderer(t, StyleFlat, nil)
	f, err := flat.Render(context.Background(), Request{Spec: spec})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a.Data, f.Data))
}

func TestCoverCrop(t *testing.T) {
	t.Parallel()

	for _, src := range []image.Image{gradient(800, 400), gradient(300, 900), gradient(16, 9)} {
		dst := coverCrop(src, 320, 180)
		assert.Equal(t, image.Rect(0, 0, 320, 180), dst.Bounds())
	}
}

func TestNewRendererRejectsUnknownStyle(t *testing.T) {
	t.Parallel()

	fonts, err := LoadFonts("", "")
	require.NoError(t, err)
	_, err = NewRenderer(Options{Style: "watercolor", Width: 10, Height: 10}, fonts, nil, nil)
	assert.Error(t, err)

	_, err = NewRenderer(Options{Style: StyleFlat}, fonts, nil, nil)
	assert.Error(t, err)
}

func TestLoadFontsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFonts("/nonexistent/font.ttf", "")
	assert.Error(t, err)
}
