package tga

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
)

var (
	errNotEnough    = errors.New("tga: not enough image data")
	errUnsupported  = errors.New("tga: unsupported image type")
	errBadDepth     = errors.New("tga: unsupported pixel depth")
	errBadPacket    = errors.New("tga: run-length packet overruns image")
	errInvalidColor = errors.New("tga: invalid color map")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type header struct {
	idLength      uint8
	colorMapType  uint8
	imageType     uint8
	colorMapFirst uint16
	colorMapLen   uint16
	colorMapDepth uint8
	xOrigin       uint16
	yOrigin       uint16
	width         uint16
	height        uint16
	depth         uint8
	descriptor    uint8
}

func (h *header) rle() bool {
	return h.imageType == typeRLETrueColor || h.imageType == typeRLEGray
}

func (h *header) gray() bool {
	return h.imageType == typeGray || h.imageType == typeRLEGray
}

type decoder struct {
	r io.Reader
	h header

	image *image.NRGBA

	tmp [headerSize]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:]); err != nil {
		return err
	}

	b := d.tmp[:]
	d.h = header{
		idLength:      b[0],
		colorMapType:  b[1],
		imageType:     b[2],
		colorMapFirst: binary.LittleEndian.Uint16(b[3:]),
		colorMapLen:   binary.LittleEndian.Uint16(b[5:]),
		colorMapDepth: b[7],
		xOrigin:       binary.LittleEndian.Uint16(b[8:]),
		yOrigin:       binary.LittleEndian.Uint16(b[10:]),
		width:         binary.LittleEndian.Uint16(b[12:]),
		height:        binary.LittleEndian.Uint16(b[14:]),
		depth:         b[16],
		descriptor:    b[17],
	}

	switch d.h.imageType {
	case typeTrueColor, typeRLETrueColor:
		if d.h.depth != 24 && d.h.depth != 32 {
			return errBadDepth
		}
	case typeGray, typeRLEGray:
		if d.h.depth != 8 {
			return errBadDepth
		}
	default:
		return errUnsupported
	}

	if d.h.colorMapType > 1 {
		return errInvalidColor
	}

	return nil
}

// skip discards the image ID and any color map, neither of which true-color
// or grayscale images need.
func (d *decoder) skip() error {
	n := int64(d.h.idLength)
	if d.h.colorMapType == 1 {
		n += int64(d.h.colorMapLen) * int64((d.h.colorMapDepth+7)/8)
	}
	if _, err := io.CopyN(io.Discard, d.r, n); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// readPixels returns the pixel data in file order with any run-length
// encoding removed.
func (d *decoder) readPixels() ([]byte, error) {
	bpp := int(d.h.depth) / 8
	n := int(d.h.width) * int(d.h.height)
	pix := make([]byte, n*bpp)

	if !d.h.rle() {
		return pix, readFull(d.r, pix)
	}

	var packet [1]byte
	for i := 0; i < n; {
		if err := readFull(d.r, packet[:]); err != nil {
			return nil, err
		}
		count := int(packet[0]&0x7f) + 1
		if i+count > n {
			return nil, errBadPacket
		}

		run := pix[i*bpp : (i+count)*bpp]
		if packet[0]&0x80 == 0 {
			if err := readFull(d.r, run); err != nil {
				return nil, err
			}
		} else {
			if err := readFull(d.r, run[:bpp]); err != nil {
				return nil, err
			}
			for j := bpp; j < len(run); j += bpp {
				copy(run[j:j+bpp], run[:bpp])
			}
		}
		i += count
	}

	return pix, nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeader(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if configOnly {
		return nil
	}

	if err := d.skip(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	pix, err := d.readPixels()
	if err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	w, h := int(d.h.width), int(d.h.height)
	bpp := int(d.h.depth) / 8

	d.image = image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		dy := h - 1 - y
		if d.h.descriptor&flagTopToBottom != 0 {
			dy = y
		}
		for x := 0; x < w; x++ {
			dx := x
			if d.h.descriptor&flagRightToLeft != 0 {
				dx = w - 1 - x
			}

			src := pix[(y*w+x)*bpp:]
			dst := d.image.Pix[d.image.PixOffset(dx, dy):]

			switch {
			case d.h.gray():
				dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 0xff
			case bpp == 3:
				dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xff
			default:
				dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
			}
		}
	}

	return nil
}

// Decode reads a TGA image from r and returns it as an image.Image. The
// concrete type is always *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a TGA image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(d.h.width),
		Height:     int(d.h.height),
	}, nil
}
