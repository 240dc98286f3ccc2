package document

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

const monogramSize = 240

var brandColor = color.NRGBA{R: 0x1F, G: 0x5F, B: 0x8B, A: 0xFF}

// loadFontFace reads a TrueType font from path, or uses the bundled Go Bold
// face when path is empty.
func loadFontFace(path string, size float64) (font.Face, error) {
	raw := gobold.TTF
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		raw = b
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// Monogram draws the letterhead badge: a ring with the company initials.
func Monogram(face font.Face, initials string) ([]byte, error) {
	const size = monogramSize
	dc := gg.NewContext(size, size)

	c := float64(size) / 2
	dc.DrawCircle(c, c, c-6)
	dc.SetColor(color.White)
	dc.FillPreserve()
	dc.SetColor(brandColor)
	dc.SetLineWidth(10)
	dc.Stroke()

	dc.SetFontFace(face)
	dc.DrawStringAnchored(initials, c, c, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
