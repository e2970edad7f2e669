package atlas

import (
	"image"
	"image/color"
	"iter"
	"math"
)

// Point is an unsigned pixel coordinate relative to the top-left corner of
// the image bounds.
type Point struct {
	X, Y uint32
}

// Add returns p+q, or false if either axis overflows.
func (p Point) Add(q Point) (Point, bool) {
	x, ok := checkedAdd(p.X, q.X)
	if !ok {
		return Point{}, false
	}
	y, ok := checkedAdd(p.Y, q.Y)
	if !ok {
		return Point{}, false
	}
	return Point{x, y}, true
}

// NextX returns the point one pixel to the right, or false on overflow.
func (p Point) NextX() (Point, bool) {
	return p.Add(Point{X: 1})
}

func checkedAdd(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

func saturatingAdd(a, b uint32) uint32 {
	if c, ok := checkedAdd(a, b); ok {
		return c
	}
	return math.MaxUint32
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// pixelAt returns the pixel at p, or false if p lies outside m.
func pixelAt(m *image.NRGBA, p Point) (color.NRGBA, bool) {
	b := m.Bounds()
	if uint64(p.X) >= uint64(b.Dx()) || uint64(p.Y) >= uint64(b.Dy()) {
		return color.NRGBA{}, false
	}
	return m.NRGBAAt(b.Min.X+int(p.X), b.Min.Y+int(p.Y)), true
}

// ScanX yields p and each point to its right along with its pixel, stopping
// at the right edge of m.
func (p Point) ScanX(m *image.NRGBA) iter.Seq2[Point, color.NRGBA] {
	return func(yield func(Point, color.NRGBA) bool) {
		for at := p; ; at.X++ {
			c, ok := pixelAt(m, at)
			if !ok || !yield(at, c) || at.X == math.MaxUint32 {
				return
			}
		}
	}
}

// ScanY yields p and each point below it along with its pixel, stopping at
// the bottom edge of m.
func (p Point) ScanY(m *image.NRGBA) iter.Seq2[Point, color.NRGBA] {
	return func(yield func(Point, color.NRGBA) bool) {
		for at := p; ; at.Y++ {
			c, ok := pixelAt(m, at)
			if !ok || !yield(at, c) || at.Y == math.MaxUint32 {
				return
			}
		}
	}
}
