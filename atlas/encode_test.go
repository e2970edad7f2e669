package atlas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(m, c)
	return m
}

func TestEncodeSingleGlyph(t *testing.T) {
	ink := color.NRGBA{0x20, 0x30, 0x40, 0xff}
	rows := [][]LoadedGlyph{
		{{Entry: Entry{ID: "000", Descent: 2}, Image: solid(8, 4, ink)}},
	}

	m, err := Encode(rows, 0, 0)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 9, 5), m.Bounds())

	for y := 0; y < 5; y++ {
		for x := 0; x < 9; x++ {
			want := ink
			switch {
			case x == 8 && y == 2:
				want = Baseline
			case x == 8 || y == 4:
				want = Frame
			}
			assert.Equal(t, want, m.NRGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}

	a := Decode(m)
	assert.Equal(t, [][]Glyph{{{TL: Point{0, 0}, BR: Point{7, 3}, Descent: 2}}}, a.Rows())
}

func TestEncodeSize(t *testing.T) {
	ink := color.NRGBA{0x01, 0x02, 0x03, 0xff}
	rows := [][]LoadedGlyph{
		{
			{Entry: Entry{ID: "000"}, Image: solid(3, 2, ink)},
			{Entry: Entry{ID: "001"}, Image: solid(4, 5, ink)},
		},
		{
			{Entry: Entry{ID: "002"}, Image: solid(10, 1, ink)},
		},
	}

	tests := []struct {
		name          string
		width, height uint32
		want          image.Rectangle
	}{
		{"auto", 0, 0, image.Rect(0, 0, 11, 8)},
		{"auto width", 0, 20, image.Rect(0, 0, 11, 20)},
		{"auto height", 30, 0, image.Rect(0, 0, 30, 8)},
		{"explicit", 64, 32, image.Rect(0, 0, 64, 32)},
		{"clipped", 2, 2, image.Rect(0, 0, 2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Encode(rows, tt.width, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Bounds())
		})
	}
}

func TestEncodeClips(t *testing.T) {
	ink := color.NRGBA{0x20, 0x30, 0x40, 0xff}
	rows := [][]LoadedGlyph{
		{
			{Entry: Entry{ID: "000", Descent: 2}, Image: solid(8, 4, ink)},
			{Entry: Entry{ID: "001", Descent: 1}, Image: solid(8, 4, ink)},
		},
		{
			{Entry: Entry{ID: "002", Descent: 1}, Image: solid(8, 4, ink)},
		},
	}

	m, err := Encode(rows, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), m.Bounds())
	for i := 0; i < len(m.Pix); i += 4 {
		assert.Equal(t, []uint8{ink.R, ink.G, ink.B, ink.A}, m.Pix[i:i+4])
	}
}

func TestEncodeSizeError(t *testing.T) {
	tests := []struct {
		name          string
		rows          [][]LoadedGlyph
		width, height uint32
		want          SizeError
	}{
		{"no rows", nil, 0, 0, SizeError{0, 0}},
		{"empty rows", [][]LoadedGlyph{{}, {}}, 0, 0, SizeError{0, 0}},
		{"zero height", nil, 5, 0, SizeError{5, 0}},
		{"zero width", nil, 0, 7, SizeError{0, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.rows, tt.width, tt.height)
			var se *SizeError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.want, *se)
		})
	}

	assert.EqualError(t, &SizeError{0, 4}, "atlas: refusing to make an image with dimensions 0x4")
}

func TestEncodeKeepsTransparentColor(t *testing.T) {
	ghost := color.NRGBA{0x12, 0x34, 0x56, 0x00}
	rows := [][]LoadedGlyph{
		{{Entry: Entry{ID: "000"}, Image: solid(2, 2, ghost)}},
	}

	m, err := Encode(rows, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, ghost, m.NRGBAAt(1, 1))
	assert.Equal(t, Frame, m.NRGBAAt(2, 1))
}

func TestEncodeBaselineOutOfRange(t *testing.T) {
	ink := color.NRGBA{0x20, 0x30, 0x40, 0xff}
	rows := [][]LoadedGlyph{
		{{Entry: Entry{ID: "000", Descent: 9}, Image: solid(2, 3, ink)}},
	}

	m, err := Encode(rows, 0, 0)
	require.NoError(t, err)

	// A descent taller than the glyph pins the marker to the top row
	assert.Equal(t, Baseline, m.NRGBAAt(2, 0))
	assert.Equal(t, Frame, m.NRGBAAt(2, 1))
	assert.Equal(t, Frame, m.NRGBAAt(2, 2))
}

func TestRoundTrip(t *testing.T) {
	original := paint(13, 8, grid)

	first := Decode(original)
	m, err := Encode(first.Glyphs(), 0, 0)
	require.NoError(t, err)

	second := Decode(m)
	assert.Equal(t, first.Rows(), second.Rows())
	assert.Equal(t, original.Pix, m.Pix)

	again, err := Encode(second.Glyphs(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, again.Pix)
}

func TestRoundTripOversized(t *testing.T) {
	first := Decode(paint(13, 8, grid))

	m, err := Encode(first.Glyphs(), 40, 30)
	require.NoError(t, err)

	second := Decode(m)
	assert.Equal(t, first.Rows(), second.Rows())
}

func TestRoundTripCustomMarkers(t *testing.T) {
	mk := Markers{
		Frame:    color.NRGBA{0x00, 0x00, 0x00, 0x00},
		Baseline: color.NRGBA{0xff, 0xff, 0xff, 0x00},
	}
	ink := color.NRGBA{0x20, 0x30, 0x40, 0xff}
	rows := [][]LoadedGlyph{
		{
			{Entry: Entry{ID: "000", Descent: 1}, Image: solid(3, 3, ink)},
			{Entry: Entry{ID: "001"}, Image: solid(2, 3, ink)},
		},
	}

	m, err := mk.Encode(rows, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, [][]Glyph{{
		{TL: Point{0, 0}, BR: Point{2, 2}, Descent: 1},
		{TL: Point{4, 0}, BR: Point{5, 2}},
	}}, mk.Decode(m).Rows())
	assert.Zero(t, DefaultMarkers.Decode(m).Len())
}
