package atlas

import (
	"image"
	"image/color"
	"math"
)

// Encode lays rows out top-to-bottom into a new atlas, each glyph followed by
// its frame, and marks the baseline of every glyph with a non-zero descent.
//
// A width or height of zero is computed from the glyphs: the widest row, and
// the sum of the tallest glyph in each row. Glyphs that fall outside an
// explicit size are clipped. It returns a *SizeError if either dimension
// ends up zero.
func (mk Markers) Encode(rows [][]LoadedGlyph, width, height uint32) (*image.NRGBA, error) {
	heights := rowHeights(rows)

	if width == 0 {
		w, ok := widestRow(rows)
		if !ok {
			return nil, ErrTooLarge
		}
		width = w
	}
	if height == 0 {
		for _, h := range heights {
			var ok bool
			if height, ok = checkedAdd(height, h); !ok {
				return nil, ErrTooLarge
			}
		}
	}

	if width == 0 || height == 0 {
		return nil, &SizeError{width, height}
	}
	if uint64(width)*uint64(height) > math.MaxInt/4 {
		return nil, ErrTooLarge
	}

	m := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	fill(m, mk.Frame)

	var at Point
	for i, row := range rows {
		mk.placeRow(m, at, row)

		var ok bool
		if at, ok = at.Add(Point{Y: heights[i]}); !ok {
			break
		}
	}

	return m, nil
}

func glyphSize(m *image.NRGBA) (uint32, uint32) {
	b := m.Bounds()
	return uint32(b.Dx()), uint32(b.Dy())
}

func widestRow(rows [][]LoadedGlyph) (uint32, bool) {
	var widest uint32
	for _, row := range rows {
		var w uint32
		for _, g := range row {
			gw, _ := glyphSize(g.Image)
			var ok bool
			if w, ok = checkedAdd(w, saturatingAdd(gw, FrameWidth)); !ok {
				return 0, false
			}
		}
		widest = max(widest, w)
	}
	return widest, true
}

func rowHeights(rows [][]LoadedGlyph) []uint32 {
	heights := make([]uint32, len(rows))
	for i, row := range rows {
		for _, g := range row {
			_, h := glyphSize(g.Image)
			heights[i] = max(heights[i], saturatingAdd(h, FrameWidth))
		}
	}
	return heights
}

func fill(m *image.NRGBA, c color.NRGBA) {
	px := []uint8{c.R, c.G, c.B, c.A}
	for i := 0; i < len(m.Pix); i += 4 {
		copy(m.Pix[i:i+4], px)
	}
}

// placeRow copies each glyph of row into m starting at at. Placement stops
// early if a coordinate overflows.
func (mk Markers) placeRow(m *image.NRGBA, at Point, row []LoadedGlyph) {
	for _, g := range row {
		mk.place(m, at, g)

		w, _ := glyphSize(g.Image)
		dx, ok := checkedAdd(w, FrameWidth)
		if !ok {
			return
		}
		if at, ok = at.Add(Point{X: dx}); !ok {
			return
		}
	}
}

func (mk Markers) place(m *image.NRGBA, at Point, g LoadedGlyph) {
	paste(m, at, g.Image)

	if g.Descent == 0 {
		return
	}

	w, h := glyphSize(g.Image)
	p, ok := at.Add(Point{X: w, Y: saturatingSub(h, g.Descent)})
	if !ok {
		return
	}
	if _, ok := pixelAt(m, p); ok {
		m.SetNRGBA(int(p.X), int(p.Y), mk.Baseline)
	}
}

// paste copies src into dst with its top-left corner at at, skipping
// whatever falls outside dst. Pixels are copied verbatim; image/draw would
// premultiply them and lose the color of transparent pixels.
func paste(dst *image.NRGBA, at Point, src *image.NRGBA) {
	if uint64(at.X) >= uint64(dst.Rect.Dx()) || uint64(at.Y) >= uint64(dst.Rect.Dy()) {
		return
	}

	sb := src.Bounds()
	r := image.Rect(0, 0, sb.Dx(), sb.Dy()).
		Add(dst.Rect.Min).
		Add(image.Pt(int(at.X), int(at.Y))).
		Intersect(dst.Rect)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(sb.Min.X, sb.Min.Y+y-r.Min.Y)
		di := dst.PixOffset(r.Min.X, y)
		copy(dst.Pix[di:di+r.Dx()*4], src.Pix[si:si+r.Dx()*4])
	}
}
