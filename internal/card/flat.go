package card

import (
	"context"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/fogleman/gg"
)

// flatStyle is a pastel card with a title, a robot-head icon and a hashtag.
type flatStyle struct {
	fonts *Fonts
}

func (f *flatStyle) Name() string { return StyleFlat }

func (f *flatStyle) Draw(_ context.Context, dc *gg.Context, req Request, _ *rand.Rand) error {
	spec := req.Spec
	s := scale(dc)

	dc.SetColor(spec.Palette.Background)
	dc.Clear()

	if err := drawTitle(dc, f.fonts, spec.TitleText, 90*s, spec.Palette.Foreground); err != nil {
		return err
	}

	cy := float64(dc.Height()) / 2
	if spec.TitleText != "" {
		cy += 40 * s
	}
	drawRobot(dc, float64(dc.Width())/2, cy, s, spec.Palette.Foreground)

	if err := drawHashtag(dc, f.fonts, spec.Hashtag, spec.Palette.Foreground); err != nil {
		return err
	}
	return drawWatermark(dc, f.fonts, spec.Watermark, watermarkColor)
}

// drawRobot draws a flat robot head: rounded face, eyes, smile, headset band,
// ear cups, antenna and neck.
func drawRobot(dc *gg.Context, cx, cy, s float64, c color.Color) {
	r := 80 * s
	white := color.White

	dc.SetColor(c)
	dc.DrawRoundedRectangle(cx-r, cy-r, 2*r, 2*r, 30*s)
	dc.Fill()

	// headset band and ear cups
	dc.SetLineWidth(10 * s)
	dc.NewSubPath()
	dc.DrawArc(cx, cy, r+25*s, math.Pi, 2*math.Pi)
	dc.Stroke()
	dc.DrawRoundedRectangle(cx-r-40*s, cy-30*s, 30*s, 60*s, 10*s)
	dc.DrawRoundedRectangle(cx+r+10*s, cy-30*s, 30*s, 60*s, 10*s)
	dc.Fill()

	// antenna
	dc.SetLineWidth(6 * s)
	dc.DrawLine(cx, cy-r, cx, cy-r-20*s)
	dc.Stroke()
	dc.DrawCircle(cx, cy-r-24*s, 8*s)
	dc.Fill()

	// neck
	dc.DrawRectangle(cx-15*s, cy+r, 30*s, 15*s)
	dc.Fill()

	dc.SetColor(white)
	dc.DrawCircle(cx-35*s, cy-10*s, 12*s)
	dc.DrawCircle(cx+35*s, cy-10*s, 12*s)
	dc.Fill()

	dc.SetLineWidth(6 * s)
	dc.NewSubPath()
	dc.DrawArc(cx, cy+15*s, 25*s, 0.15*math.Pi, 0.85*math.Pi)
	dc.Stroke()
}
