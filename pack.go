package atlast

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bodgit/atlast/atlas"
	"github.com/bodgit/atlast/manifest"
	"github.com/bodgit/atlast/tga"
	"golang.org/x/sync/errgroup"
)

// PackOptions are the parameters for Pack and PackFromDB.
type PackOptions struct {
	// DryRun composes the atlas but doesn't write it.
	DryRun bool
	// Width and Height fix the size of the atlas. A zero value is worked out
	// from the glyphs.
	Width, Height uint32
	// Jobs is the number of glyph images read at once, or the number of
	// CPUs if zero.
	Jobs int
	// RLE run-length encodes the atlas if it is written as TGA.
	RLE bool
}

func readManifest(path string) (*manifest.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	mf, err := manifest.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return mf, nil
}

func loadGlyphs(dir string, mf *manifest.Manifest, jobs int) ([][]atlas.LoadedGlyph, error) {
	g := new(errgroup.Group)
	g.SetLimit(workers(jobs))

	rows := make([][]atlas.LoadedGlyph, len(mf.Rows))
	for i, entries := range mf.Rows {
		rows[i] = make([]atlas.LoadedGlyph, len(entries))
		for j, e := range entries {
			g.Go(func() error {
				m, err := readImage(filepath.Join(dir, filepath.FromSlash(e.Path())))
				if err != nil {
					return err
				}
				rows[i][j] = atlas.LoadedGlyph{Entry: e.Entry, Image: m}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

// Pack composes the glyphs listed in the manifest in the input directory
// into a single atlas image written to output.
func (a *Atlast) Pack(input, output string, opts PackOptions) error {
	ts := new(stopwatch)

	path := filepath.Join(input, manifest.Filename)
	a.logger.Printf("%s reading %s", ts, path)
	mf, err := readManifest(path)
	if err != nil {
		return err
	}

	a.logger.Printf("%s loading %d glyphs from %s", ts, mf.Len(), input)
	rows, err := loadGlyphs(input, mf, opts.Jobs)
	if err != nil {
		return err
	}

	return a.pack(rows, output, opts, ts)
}

// PackFromDB composes the glyphs stored in the database file into a single
// atlas image written to output.
func (a *Atlast) PackFromDB(file, output string, opts PackOptions) error {
	ts := new(stopwatch)

	a.logger.Printf("%s loading glyphs from %s", ts, file)
	db, err := NewGlyphDB(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer db.Close()

	rows, err := db.Rows()
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	return a.pack(rows, output, opts, ts)
}

func (a *Atlast) pack(rows [][]atlas.LoadedGlyph, output string, opts PackOptions, ts *stopwatch) error {
	m, err := a.markers.Encode(rows, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	a.logger.Printf("%s packed atlas is %dx%d", ts, m.Bounds().Dx(), m.Bounds().Dy())

	if opts.DryRun {
		a.logger.Printf("%s dry run, not writing %s", ts, output)
		return nil
	}

	if err := writeImage(output, m, &tga.Options{RLE: opts.RLE}); err != nil {
		return err
	}

	a.logger.Printf("%s done packing to %s", ts, output)
	return nil
}
