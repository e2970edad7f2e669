package atlas

import (
	"fmt"
	"image"
)

// Atlas is the grid of glyphs found in an image, top-to-bottom then
// left-to-right.
type Atlas struct {
	m    *image.NRGBA
	rows [][]Glyph
}

// Decode scans m from the top-left corner and returns every glyph found. A
// row ends at the first frame pixel where a glyph should start or at the
// right edge of m; scanning ends at the first row with no glyphs, whatever
// lies below it.
func (mk Markers) Decode(m *image.NRGBA) *Atlas {
	var (
		at    Point
		rows  [][]Glyph
		width = uint64(m.Bounds().Dx())
	)

	for {
		var row []Glyph
		for uint64(at.X) < width {
			g, err := mk.Detect(m, at)
			if err != nil {
				break
			}
			row = append(row, g)

			x, ok := checkedAdd(g.BR.X, FrameWidth+1)
			if !ok {
				break
			}
			at.X = x
		}

		if len(row) == 0 {
			break
		}
		rows = append(rows, row)

		// Every glyph in a row shares the bottom frame of the first
		y, ok := checkedAdd(row[0].BR.Y, FrameWidth+1)
		if !ok {
			break
		}
		at = Point{X: 0, Y: y}
	}

	return &Atlas{
		m:    m,
		rows: rows,
	}
}

// Len returns the number of glyphs.
func (a *Atlas) Len() int {
	n := 0
	for _, row := range a.rows {
		n += len(row)
	}
	return n
}

// RowCount returns the number of rows.
func (a *Atlas) RowCount() int {
	return len(a.rows)
}

// Rows returns the glyph bounding boxes. The result must not be modified.
func (a *Atlas) Rows() [][]Glyph {
	return a.rows
}

// ID returns the identifier assigned to the i-th glyph in row-major order.
func ID(i int) string {
	return fmt.Sprintf("%03d", i)
}

// Glyphs crops every glyph into its own image and pairs it with an Entry.
// Identifiers are assigned sequentially in row-major order.
func (a *Atlas) Glyphs() [][]LoadedGlyph {
	i := 0
	rows := make([][]LoadedGlyph, 0, len(a.rows))
	for _, row := range a.rows {
		loaded := make([]LoadedGlyph, 0, len(row))
		for _, g := range row {
			loaded = append(loaded, LoadedGlyph{
				Entry: Entry{
					ID:      ID(i),
					Descent: g.Descent,
				},
				Image: crop(a.m, g.Rect(a.m.Bounds().Min)),
			})
			i++
		}
		rows = append(rows, loaded)
	}
	return rows
}

// crop copies r out of m into a new image with its origin at (0, 0).
func crop(m *image.NRGBA, r image.Rectangle) *image.NRGBA {
	r = r.Intersect(m.Bounds())
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		i := m.PixOffset(r.Min.X, r.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], m.Pix[i:i+r.Dx()*4])
	}
	return dst
}
