package atlas

import (
	"image"
	"image/color"
	"iter"
)

// Glyph is the bounding box of one glyph within an atlas.
type Glyph struct {
	// TL is the top-left visible pixel of the glyph.
	TL Point
	// BR is the bottom-right visible pixel, not the frame pixel.
	BR Point
	// Descent is the distance from the bottom frame row to the baseline
	// pixel, or zero if there isn't one.
	Descent uint32
}

// Width returns the width of the glyph, never less than one.
func (g Glyph) Width() uint32 {
	return saturatingAdd(saturatingSub(g.BR.X, g.TL.X), 1)
}

// Height returns the height of the glyph, never less than one.
func (g Glyph) Height() uint32 {
	return saturatingAdd(saturatingSub(g.BR.Y, g.TL.Y), 1)
}

// Rect returns the glyph bounds in the coordinate space of an image whose
// bounds start at origin.
func (g Glyph) Rect(origin image.Point) image.Rectangle {
	r := image.Rect(0, 0, int(g.Width()), int(g.Height()))
	return r.Add(origin).Add(image.Pt(int(g.TL.X), int(g.TL.Y)))
}

// Detect finds the glyph whose top-left visible pixel is tl. It returns
// ErrJustFrame if tl is a frame pixel and ErrEnd if either frame edge can't
// be found before the edge of m.
func (mk Markers) Detect(m *image.NRGBA, tl Point) (Glyph, error) {
	frameBL, ok := find(tl.ScanY(m), mk.isFrameish)
	if !ok {
		return Glyph{}, ErrEnd
	}
	if frameBL == tl {
		return Glyph{}, ErrJustFrame
	}

	next, ok := tl.NextX()
	if !ok {
		return Glyph{}, ErrEnd
	}
	frameTR, ok := find(next.ScanX(m), mk.isFrameish)
	if !ok {
		return Glyph{}, ErrEnd
	}

	var descent uint32
	for at, c := range frameTR.ScanY(m) {
		if at.Y >= frameBL.Y {
			break
		}
		if c == mk.Baseline {
			descent = frameBL.Y - at.Y
			break
		}
	}

	// frameTR.X > tl.X and frameBL.Y > tl.Y so neither underflows
	return Glyph{
		TL: tl,
		BR: Point{
			X: frameTR.X - FrameWidth,
			Y: frameBL.Y - FrameWidth,
		},
		Descent: descent,
	}, nil
}

func find(seq iter.Seq2[Point, color.NRGBA], match func(color.NRGBA) bool) (Point, bool) {
	for at, c := range seq {
		if match(c) {
			return at, true
		}
	}
	return Point{}, false
}
