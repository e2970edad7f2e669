/*
Package atlas splits a packed glyph atlas into individual glyph images and
packs them back together.

Glyphs are laid out in rows. Each glyph has an invisible edge of frame
pixels, r=0xff g=0x00 b=0xff a=0x00, along its right and bottom, forming a
frame one pixel wide. The right edge may carry a single baseline pixel,
r=0x00 g=0xff b=0xff a=0x00, marking where the baseline of that glyph sits:

	........f
	........f
	........b
	........f
	fffffffff

The descent of that glyph is 2, the distance from the bottom frame row to the
baseline pixel. Glyphs without a baseline pixel have a descent of 0.

The alpha of both marker colors is zero so pixel buffers are *image.NRGBA;
the premultiplied image.RGBA cannot represent them.
*/
package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// FrameWidth is the width in pixels of the frame along the right and bottom
// of every glyph.
const FrameWidth = 1

var (
	// Frame is the color of the frame pixels.
	Frame = color.NRGBA{0xff, 0x00, 0xff, 0x00}
	// Baseline is the color of the optional baseline pixel.
	Baseline = color.NRGBA{0x00, 0xff, 0xff, 0x00}
)

var (
	// ErrJustFrame is returned by Detect when the starting pixel is itself
	// part of a frame.
	ErrJustFrame = errors.New("atlas: no visible glyph, just frame")
	// ErrEnd is returned by Detect when a scan runs off the image edge.
	ErrEnd = errors.New("atlas: reached image edge")
	// ErrTooLarge is returned by Encode when the atlas dimensions cannot be
	// represented.
	ErrTooLarge = errors.New("atlas: image dimensions overflow")
)

// SizeError is returned by Encode when either atlas dimension is zero.
type SizeError struct {
	Width, Height uint32
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("atlas: refusing to make an image with dimensions %dx%d", e.Width, e.Height)
}

// Markers holds the two reserved colors that encode the atlas layout.
type Markers struct {
	Frame    color.NRGBA
	Baseline color.NRGBA
}

// DefaultMarkers uses the Frame and Baseline colors.
var DefaultMarkers = Markers{
	Frame:    Frame,
	Baseline: Baseline,
}

func (mk Markers) isFrameish(c color.NRGBA) bool {
	return c == mk.Frame || c == mk.Baseline
}

// Entry is the metadata kept for each glyph between unpacking and packing.
type Entry struct {
	ID      string
	Descent uint32
}

// LoadedGlyph pairs an Entry with the glyph image. At pack time the image
// bounds stand in for the glyph's original bounding box.
type LoadedGlyph struct {
	Entry
	Image *image.NRGBA
}

// Decode finds the glyphs in m using DefaultMarkers.
func Decode(m *image.NRGBA) *Atlas {
	return DefaultMarkers.Decode(m)
}

// Encode packs rows into a new atlas using DefaultMarkers.
func Encode(rows [][]LoadedGlyph, width, height uint32) (*image.NRGBA, error) {
	return DefaultMarkers.Encode(rows, width, height)
}
