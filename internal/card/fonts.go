package card

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	size float64
	bold bool
}

// Fonts caches faces built from a regular and a bold TrueType font.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

// LoadFonts parses the fonts at the given paths; empty paths fall back to the
// embedded Go fonts, which cover Latin and Cyrillic.
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	regular, err := parseFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := parseFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold, faces: map[faceKey]font.Face{}}, nil
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return opentype.Parse(data)
}

// Face returns a face of the given pixel size.
func (f *Fonts) Face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}

	src := f.regular
	if bold {
		src = f.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("font face %.0fpx: %w", size, err)
	}
	f.faces[key] = face
	return face, nil
}
