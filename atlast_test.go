package atlast

import (
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodgit/atlast/atlas"
	"github.com/bodgit/atlast/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return m
}

func glyph(id string, w, h int, descent uint32, c color.NRGBA) atlas.LoadedGlyph {
	return atlas.LoadedGlyph{
		Entry: atlas.Entry{ID: id, Descent: descent},
		Image: solid(w, h, c),
	}
}

// The first glyph of each row is the tallest.
func testRows() [][]atlas.LoadedGlyph {
	return [][]atlas.LoadedGlyph{
		{
			glyph("000", 3, 5, 1, color.NRGBA{0xc0, 0x10, 0x10, 0xff}),
			glyph("001", 4, 4, 0, color.NRGBA{0x10, 0xc0, 0x10, 0xff}),
			glyph("002", 2, 5, 2, color.NRGBA{0x10, 0x10, 0xc0, 0xff}),
		},
		{
			glyph("003", 5, 3, 0, color.NRGBA{0xf0, 0xf0, 0xf0, 0xff}),
		},
	}
}

var testEntries = [][]atlas.Entry{
	{{ID: "000", Descent: 1}, {ID: "001"}, {ID: "002", Descent: 2}},
	{{ID: "003"}},
}

func testAtlast() *Atlast {
	return New(atlas.DefaultMarkers, log.New(ioutil.Discard, "", 0))
}

func writeAtlas(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	m, err := atlas.Encode(testRows(), 0, 0)
	require.NoError(t, err)
	require.NoError(t, writeImage(path, m, nil))
	return m
}

func TestUnpackPack(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		opts UnpackOptions
	}{
		{"tga", ".tga", UnpackOptions{Jobs: 2}},
		{"png", ".png", UnpackOptions{Jobs: 1}},
		{"palette", ".tga", UnpackOptions{Colors: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "font"+tt.ext)
			original := writeAtlas(t, input)

			a := testAtlast()
			output := filepath.Join(dir, "font")
			require.NoError(t, a.Unpack(input, output, tt.opts))

			for _, id := range []string{"000", "001", "002", "003"} {
				assert.FileExists(t, filepath.Join(output, id+".png"))
			}

			mf, err := readManifest(filepath.Join(output, manifest.Filename))
			require.NoError(t, err)
			assert.Equal(t, testEntries, mf.Entries())

			packed := filepath.Join(dir, "packed"+tt.ext)
			require.NoError(t, a.Pack(output, packed, PackOptions{Jobs: 3}))

			m, err := readImage(packed)
			require.NoError(t, err)
			assert.Equal(t, original.Rect, m.Rect)
			assert.Equal(t, original.Pix, m.Pix)
		})
	}
}

func TestUnpackDryRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.tga")
	writeAtlas(t, input)

	output := filepath.Join(dir, "font")
	require.NoError(t, testAtlast().Unpack(input, output, UnpackOptions{DryRun: true}))
	assert.NoDirExists(t, output)
}

func TestUnpackSkipManifest(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.tga")
	writeAtlas(t, input)

	output := filepath.Join(dir, "font")
	require.NoError(t, testAtlast().Unpack(input, output, UnpackOptions{Manifest: ManifestSkip}))
	assert.FileExists(t, filepath.Join(output, "003.png"))
	assert.NoFileExists(t, filepath.Join(output, manifest.Filename))
}

func TestUnpackPatchManifest(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.tga")
	writeAtlas(t, input)

	output := filepath.Join(dir, "font")
	a := testAtlast()

	err := a.Unpack(input, output, UnpackOptions{Manifest: ManifestPatch})
	assert.ErrorIs(t, err, os.ErrNotExist)

	existing := `<html><body><h1>Hand edited</h1>
<div data-atlas="row"><img src="003.png" data-descent="9"><img src="extra.png" data-descent="4"></div>
<div data-atlas="row"><img src="000.png"><img src="001.png"><img src="002.png"></div>
</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(output, manifest.Filename), []byte(existing), 0o644))

	require.NoError(t, a.Unpack(input, output, UnpackOptions{Manifest: ManifestPatch}))

	b, err := os.ReadFile(filepath.Join(output, manifest.Filename))
	require.NoError(t, err)
	assert.Contains(t, string(b), "<h1>Hand edited</h1>")

	mf, err := manifest.Parse(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, [][]atlas.Entry{
		{{ID: "003"}, {ID: "extra", Descent: 4}},
		{{ID: "000", Descent: 1}, {ID: "001"}, {ID: "002", Descent: 2}},
	}, mf.Entries())
}

func TestUnpackMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := testAtlast().Unpack(filepath.Join(dir, "missing.tga"), filepath.Join(dir, "out"), UnpackOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPackOptions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.png")
	writeAtlas(t, input)

	a := testAtlast()
	output := filepath.Join(dir, "font")
	require.NoError(t, a.Unpack(input, output, UnpackOptions{}))

	packed := filepath.Join(dir, "packed.png")
	require.NoError(t, a.Pack(output, packed, PackOptions{DryRun: true}))
	assert.NoFileExists(t, packed)

	require.NoError(t, a.Pack(output, packed, PackOptions{Width: 32}))
	m, err := readImage(packed)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 10), m.Rect)
	assert.Equal(t, testEntries, manifest.New(atlas.Decode(m).Glyphs()).Entries())

	err = a.Pack(output, filepath.Join(dir, "packed.gif"), PackOptions{})
	assert.ErrorIs(t, err, errUnknownFormat)

	require.NoError(t, os.Remove(filepath.Join(output, "001.png")))
	err = a.Pack(output, packed, PackOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPackHandWrittenManifest(t *testing.T) {
	dir := t.TempDir()

	red := color.NRGBA{0xff, 0x00, 0x00, 0xff}
	blue := color.NRGBA{0x00, 0x00, 0xff, 0xff}
	grey := color.NRGBA{0x80, 0x80, 0x80, 0xff}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	for path, m := range map[string]*image.NRGBA{
		"a.PNG":       solid(2, 3, red),
		"b":           solid(1, 2, blue),
		"sub/c d.png": solid(3, 1, grey),
		"plain.tga":   solid(1, 1, red),
	} {
		ext := filepath.Ext(path)
		if ext == "" || ext == ".PNG" {
			f, err := os.Create(filepath.Join(dir, filepath.FromSlash(path)))
			require.NoError(t, err)
			require.NoError(t, png.Encode(f, m))
			require.NoError(t, f.Close())
			continue
		}
		require.NoError(t, writeImage(filepath.Join(dir, filepath.FromSlash(path)), m, nil))
	}

	html := `<div data-atlas="row"><img src="a.PNG" data-descent="1"><img src="b"></div>
<div data-atlas="row"><img src="sub/c%20d.png"><img src="plain.tga"></div>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), []byte(html), 0o644))

	packed := filepath.Join(dir, "packed.tga")
	require.NoError(t, testAtlast().Pack(dir, packed, PackOptions{}))

	m, err := readImage(packed)
	require.NoError(t, err)
	assert.Equal(t, [][]atlas.Entry{
		{{ID: "000", Descent: 1}, {ID: "001"}},
		{{ID: "002"}, {ID: "003"}},
	}, manifest.New(atlas.Decode(m).Glyphs()).Entries())
	assert.Equal(t, red, m.NRGBAAt(0, 0))
	assert.Equal(t, blue, m.NRGBAAt(3, 0))
	assert.Equal(t, grey, m.NRGBAAt(0, 4))
}

func TestPackRLE(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.tga")
	original := writeAtlas(t, input)

	a := testAtlast()
	output := filepath.Join(dir, "font")
	require.NoError(t, a.Unpack(input, output, UnpackOptions{}))

	raw := filepath.Join(dir, "raw.tga")
	require.NoError(t, a.Pack(output, raw, PackOptions{}))
	rle := filepath.Join(dir, "rle.tga")
	require.NoError(t, a.Pack(output, rle, PackOptions{RLE: true}))

	rawInfo, err := os.Stat(raw)
	require.NoError(t, err)
	rleInfo, err := os.Stat(rle)
	require.NoError(t, err)
	assert.Less(t, rleInfo.Size(), rawInfo.Size())

	m, err := readImage(rle)
	require.NoError(t, err)
	assert.Equal(t, original.Pix, m.Pix)
}

func TestPackBadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), []byte(`<div data-atlas="row"><img src="a.png" data-descent="x"></div>`), 0o644))

	err := testAtlast().Pack(dir, filepath.Join(dir, "out.tga"), PackOptions{})
	assert.EqualError(t, err, "parse "+filepath.Join(dir, manifest.Filename)+": manifest: expected non-negative integer, found: x")
}

func TestUnpackToDBPackFromDB(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "font.tga")
	original := writeAtlas(t, input)

	a := testAtlast()
	file := filepath.Join(dir, "glyphs.db")
	require.NoError(t, a.UnpackToDB(input, file, UnpackOptions{}))

	packed := filepath.Join(dir, "packed.tga")
	require.NoError(t, a.PackFromDB(file, packed, PackOptions{}))

	m, err := readImage(packed)
	require.NoError(t, err)
	assert.Equal(t, original.Pix, m.Pix)

	// Patching an unchanged atlas matches every glyph and changes nothing
	require.NoError(t, a.UnpackToDB(input, file, UnpackOptions{Manifest: ManifestPatch}))
	require.NoError(t, a.PackFromDB(file, packed, PackOptions{}))
	m, err = readImage(packed)
	require.NoError(t, err)
	assert.Equal(t, original.Pix, m.Pix)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, workers(3))
	assert.Positive(t, workers(0))
	assert.Positive(t, workers(-1))
}
