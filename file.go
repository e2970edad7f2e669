package atlast

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/atlast/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var errUnknownFormat = errors.New("unknown image format")

// readImage decodes the image at path. TGA files are recognised by their
// extension as the format has no magic number.
func readImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tga":
		m, err = tga.Decode(f)
	default:
		m, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return toNRGBA(m), nil
}

// imageConfig returns the dimensions of the image at path without decoding
// all of it.
func imageConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	var c image.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tga":
		c, err = tga.DecodeConfig(f)
	default:
		c, _, err = image.DecodeConfig(f)
	}
	if err != nil {
		return image.Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return c, nil
}

// writeImage encodes m to path in the format implied by its extension. o is
// only used for TGA files and may be nil.
func writeImage(path string, m image.Image, o *tga.Options) (err error) {
	var encode func(*os.File, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tga":
		encode = func(f *os.File, m image.Image) error {
			return tga.Encode(f, m, o)
		}
	case ".png":
		encode = func(f *os.File, m image.Image) error {
			return png.Encode(f, m)
		}
	case ".bmp":
		encode = func(f *os.File, m image.Image) error {
			return bmp.Encode(f, m)
		}
	case ".tif", ".tiff":
		encode = func(f *os.File, m image.Image) error {
			return tiff.Encode(f, m, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("save %s: %w", path, errUnknownFormat)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := encode(f, m); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	return nil
}

// toNRGBA returns m as an *image.NRGBA with its origin at (0, 0), copying
// only if it has to. Pixels are converted one at a time rather than with
// image/draw so NRGBA colors, such as those in a PNG palette, keep their
// color when transparent.
func toNRGBA(m image.Image) *image.NRGBA {
	b := m.Bounds()
	if n, ok := m.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := m.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], n.Pix[i:i+b.Dx()*4])
		}
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA))
		}
	}
	return dst
}
