package atlast

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// MaxColors is the largest palette a glyph image can be reduced to.
const MaxColors = 256

// palettize reduces m to a palette of at most colors colors. Glyphs that
// already fit keep their exact colors, otherwise the palette is chosen by
// median cut.
func palettize(m *image.NRGBA, colors int) *image.Paletted {
	colors = min(colors, MaxColors)

	if p, index := uniqueColors(m, colors); p != nil {
		pm := image.NewPaletted(m.Bounds(), p)
		for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
			for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
				pm.SetColorIndex(x, y, index[m.NRGBAAt(x, y)])
			}
		}
		return pm
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(m.Bounds(), q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, pm.Rect, m, m.Rect.Min, draw.Src)
	return pm
}

// uniqueColors returns the colors used by m along with the palette index of
// each, or nil if there are more than limit of them.
func uniqueColors(m *image.NRGBA, limit int) (color.Palette, map[color.NRGBA]uint8) {
	index := make(map[color.NRGBA]uint8)
	var p color.Palette
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			if _, ok := index[c]; ok {
				continue
			}
			if len(p) == limit {
				return nil, nil
			}
			index[c] = uint8(len(p))
			p = append(p, c)
		}
	}
	return p, index
}
