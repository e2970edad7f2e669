package tga

import (
	"bufio"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
)

var errTooLarge = errors.New("tga: image is too large")

// Options are the encoding parameters.
type Options struct {
	// RLE enables run-length encoding of the pixel data.
	RLE bool
}

type encoder struct {
	w   *bufio.Writer
	m   image.Image
	rle bool
}

func (e *encoder) writeHeader() error {
	b := e.m.Bounds()

	var tmp [headerSize]byte
	tmp[2] = typeTrueColor
	if e.rle {
		tmp[2] = typeRLETrueColor
	}
	binary.LittleEndian.PutUint16(tmp[12:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(tmp[14:], uint16(b.Dy()))
	tmp[16] = 32
	tmp[17] = flagTopToBottom | alphaDepth

	_, err := e.w.Write(tmp[:])
	return err
}

// row returns one scanline as BGRA.
func (e *encoder) row(y int, buf []byte) []byte {
	b := e.m.Bounds()
	buf = buf[:0]

	if m, ok := e.m.(*image.NRGBA); ok {
		pix := m.Pix[m.PixOffset(b.Min.X, y) : m.PixOffset(b.Max.X-1, y)+4]
		for i := 0; i < len(pix); i += 4 {
			buf = append(buf, pix[i+2], pix[i+1], pix[i], pix[i+3])
		}
		return buf
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		c := color.NRGBAModel.Convert(e.m.At(x, y)).(color.NRGBA)
		buf = append(buf, c.B, c.G, c.R, c.A)
	}
	return buf
}

// writeRLE writes one scanline as run-length packets. Packets never cross
// scanlines.
func (e *encoder) writeRLE(pix []byte) error {
	const bpp = 4
	n := len(pix) / bpp
	same := func(i, j int) bool {
		return string(pix[i*bpp:(i+1)*bpp]) == string(pix[j*bpp:(j+1)*bpp])
	}

	for i := 0; i < n; {
		run := 1
		for i+run < n && run < maxPacket && same(i, i+run) {
			run++
		}
		if run > 1 {
			if err := e.w.WriteByte(0x80 | byte(run-1)); err != nil {
				return err
			}
			if _, err := e.w.Write(pix[i*bpp : (i+1)*bpp]); err != nil {
				return err
			}
			i += run
			continue
		}

		raw := 1
		for i+raw < n && raw < maxPacket && (i+raw+1 >= n || !same(i+raw, i+raw+1)) {
			raw++
		}
		if err := e.w.WriteByte(byte(raw - 1)); err != nil {
			return err
		}
		if _, err := e.w.Write(pix[i*bpp : (i+raw)*bpp]); err != nil {
			return err
		}
		i += raw
	}

	return nil
}

func (e *encoder) encode() error {
	if err := e.writeHeader(); err != nil {
		return err
	}

	b := e.m.Bounds()
	buf := make([]byte, 0, b.Dx()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		buf = e.row(y, buf)
		if e.rle {
			if err := e.writeRLE(buf); err != nil {
				return err
			}
			continue
		}
		if _, err := e.w.Write(buf); err != nil {
			return err
		}
	}

	return e.w.Flush()
}

// Encode writes the Image m to w in 32-bit TGA format. Non-NRGBA images are
// converted pixel by pixel. A nil *Options writes uncompressed pixel data.
func Encode(w io.Writer, m image.Image, o *Options) error {
	b := m.Bounds()
	if b.Dx() > maxSize || b.Dy() > maxSize {
		return errTooLarge
	}

	e := encoder{
		w: bufio.NewWriter(w),
		m: m,
	}
	if o != nil {
		e.rle = o.RLE
	}

	return e.encode()
}
