package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"image/color"
	"strconv"
	"time"
)

// Category names a topical grouping in the encyclopedia (e.g. "Категорія:Машинне навчання").
type Category string

// ArticleRef identifies a candidate article picked from a category listing.
type ArticleRef struct {
	ID    int64
	Title string
}

// ArticleContent is the introductory content fetched once per run.
type ArticleContent struct {
	ID           int64
	Title        string
	Extract      string
	ThumbnailURL string
	CanonicalURL string
}

// Synopsis is the rewritten text derived from an extract.
// Lines[0] is the lead; in long-form mode the remaining lines are paragraph blocks.
type Synopsis struct {
	Lines    []string
	LongForm bool
}

// Lead returns the first line of the synopsis.
func (s Synopsis) Lead() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return s.Lines[0]
}

// Body returns every line after the lead.
func (s Synopsis) Body() []string {
	if len(s.Lines) < 2 {
		return nil
	}
	return s.Lines[1:]
}

// Palette is a background/foreground pair used by card styles.
type Palette struct {
	Background color.RGBA
	Foreground color.RGBA
}

// CardSpec fully determines a rendered card.
type CardSpec struct {
	Width     int
	Height    int
	Palette   Palette
	TitleText string
	Subtitle  string
	Hashtag   string
	Watermark string
	Seed      int64
}

// RenderedImage is the encoded raster handed to delivery.
type RenderedImage struct {
	Data     []byte
	Filename string
	MIMEType string
	Width    int
	Height   int
}

// Post bundles everything produced by one pipeline run.
type Post struct {
	Article  ArticleContent
	Synopsis Synopsis
	Caption  string
	Image    RenderedImage
}

// SeedFor derives the render seed from the title and the calendar day of day.
// It takes the first 8 hex digits of sha256(title + YYYY-MM-DD).
func SeedFor(title string, day time.Time) int64 {
	sum := sha256.Sum256([]byte(title + day.Format(time.DateOnly)))
	prefix := hex.EncodeToString(sum[:])[:8]
	seed, _ := strconv.ParseInt(prefix, 16, 64)
	return seed
}
