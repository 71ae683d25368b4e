package card

import (
	"context"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/fogleman/gg"
)

var abstractBase = color.RGBA{R: 16, G: 20, B: 32, A: 255}

// abstractStyle draws a dark canvas with a seeded network of nodes and edges.
type abstractStyle struct {
	fonts *Fonts
}

func (a *abstractStyle) Name() string { return StyleAbstract }

type node struct {
	x, y float64
}

func (a *abstractStyle) Draw(_ context.Context, dc *gg.Context, req Request, rng *rand.Rand) error {
	spec := req.Spec
	s := scale(dc)
	w, h := float64(dc.Width()), float64(dc.Height())
	accent := spec.Palette.Background

	dc.SetColor(abstractBase)
	dc.Clear()

	nodes := make([]node, 40+rng.IntN(25))
	for i := range nodes {
		nodes[i] = node{x: rng.Float64() * w, y: rng.Float64() * h}
	}

	maxDist := 260 * s
	dc.SetLineWidth(math.Max(1, 1.5*s))
	for i, n := range nodes {
		edges := 1 + rng.IntN(2)
		for j := 0; j < edges; j++ {
			m := nodes[rng.IntN(len(nodes))]
			if m == n || math.Hypot(m.x-n.x, m.y-n.y) > maxDist {
				continue
			}
			dc.SetRGBA255(int(accent.R), int(accent.G), int(accent.B), 40+rng.IntN(60))
			dc.DrawLine(n.x, n.y, m.x, m.y)
			dc.Stroke()
		}
		radius := (2 + rng.Float64()*4) * s
		if i%7 == 0 {
			radius *= 2
		}
		dc.SetRGBA255(int(accent.R), int(accent.G), int(accent.B), 120+rng.IntN(120))
		dc.DrawCircle(n.x, n.y, radius)
		dc.Fill()
	}

	if spec.TitleText != "" {
		dc.SetRGBA(0, 0, 0, 0.45)
		dc.DrawRectangle(0, h/2-80*s, w, 160*s)
		dc.Fill()
		if err := drawTitle(dc, a.fonts, spec.TitleText, h/2-50*s, color.White); err != nil {
			return err
		}
	}

	if err := drawHashtag(dc, a.fonts, spec.Hashtag, accent); err != nil {
		return err
	}
	return drawWatermark(dc, a.fonts, spec.Watermark, watermarkColor)
}
