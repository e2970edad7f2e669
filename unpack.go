package atlast

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bodgit/atlast/atlas"
	"github.com/bodgit/atlast/manifest"
)

// ManifestMode says what Unpack does with the manifest.
type ManifestMode int

const (
	// ManifestOverwrite writes a new manifest, replacing any existing one.
	ManifestOverwrite ManifestMode = iota
	// ManifestPatch updates the descent of matching glyphs in an existing
	// manifest and leaves the rest of it alone.
	ManifestPatch
	// ManifestSkip leaves the manifest untouched.
	ManifestSkip
)

// UnpackOptions are the parameters for Unpack and UnpackToDB.
type UnpackOptions struct {
	// DryRun decodes the atlas but doesn't write anything.
	DryRun bool
	// Manifest is ignored by UnpackToDB except for ManifestPatch, which
	// updates matching glyphs rather than replacing all of them.
	Manifest ManifestMode
	// Colors, if non-zero, reduces each glyph image to a palette of at most
	// this many colors.
	Colors int
	// Jobs is the number of glyph images written at once, or the number of
	// CPUs if zero.
	Jobs int
}

func (a *Atlast) decode(input string, ts *stopwatch) (*atlas.Atlas, error) {
	c, err := imageConfig(input)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("%s atlas is %dx%d", ts, c.Width, c.Height)

	m, err := readImage(input)
	if err != nil {
		return nil, err
	}

	at := a.markers.Decode(m)
	a.logger.Printf("%s found %d glyphs over %d rows", ts, at.Len(), at.RowCount())

	return at, nil
}

// Unpack splits the atlas in input into one PNG per glyph in the output
// directory, creating it if necessary, along with the manifest.
func (a *Atlast) Unpack(input, output string, opts UnpackOptions) error {
	ts := new(stopwatch)

	a.logger.Printf("%s loading %s to unpack to %s", ts, input, output)
	at, err := a.decode(input, ts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.logger.Printf("%s dry run, not saving glyphs to %s", ts, output)
		return nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}

	a.logger.Printf("%s saving to %s", ts, output)
	glyphs := at.Glyphs()
	if err := a.saveGlyphs(output, glyphs, opts.Colors, opts.Jobs); err != nil {
		return err
	}

	if err := a.writeManifest(filepath.Join(output, manifest.Filename), manifest.New(glyphs), opts.Manifest, ts); err != nil {
		return err
	}

	a.logger.Printf("%s done unpacking to %s", ts, output)
	return nil
}

func (a *Atlast) writeManifest(path string, mf *manifest.Manifest, mode ManifestMode, ts *stopwatch) error {
	var (
		b   []byte
		err error
	)

	switch mode {
	case ManifestSkip:
		return nil
	case ManifestPatch:
		a.logger.Printf("%s patching %s", ts, path)
		old, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		buf := new(bytes.Buffer)
		matched, err := mf.Patch(bytes.NewReader(old), buf)
		if err != nil {
			return fmt.Errorf("patch %s: %w", path, err)
		}
		a.logger.Printf("%s matched %d images", ts, matched)
		b = buf.Bytes()
	default:
		a.logger.Printf("%s writing %s", ts, path)
		if b, err = mf.MarshalText(); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// UnpackToDB splits the atlas in input into glyphs and stores them in the
// database file.
func (a *Atlast) UnpackToDB(input, file string, opts UnpackOptions) (err error) {
	ts := new(stopwatch)

	a.logger.Printf("%s loading %s to unpack to %s", ts, input, file)
	at, err := a.decode(input, ts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.logger.Printf("%s dry run, not saving glyphs to %s", ts, file)
		return nil
	}

	db, err := NewGlyphDB(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	glyphs := at.Glyphs()
	if opts.Manifest == ManifestPatch {
		matched, err := db.Update(glyphs)
		if err != nil {
			return fmt.Errorf("patch %s: %w", file, err)
		}
		a.logger.Printf("%s matched %d glyphs", ts, matched)
	} else {
		if err := db.Replace(glyphs); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}

	a.logger.Printf("%s done unpacking to %s", ts, file)
	return nil
}
