package atlast

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"

	"github.com/bodgit/atlast/atlas"
	"github.com/bodgit/atlast/manifest"
)

type glyphFile struct {
	path  string
	image *image.NRGBA
}

func (a *Atlast) emitGlyphs(ctx context.Context, dir string, rows [][]atlas.LoadedGlyph) (<-chan glyphFile, <-chan error, error) {
	out := make(chan glyphFile)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, row := range rows {
			for _, g := range row {
				select {
				case out <- glyphFile{filepath.Join(dir, manifest.Src(g.ID)), g.Image}:
				case <-ctx.Done():
					errc <- errors.New("save cancelled")
					return
				}
			}
		}
	}()
	return out, errc, nil
}

func (a *Atlast) glyphWorker(ctx context.Context, in <-chan glyphFile, colors int) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for g := range in {
			var m image.Image = g.image
			if colors > 0 {
				m = palettize(g.image, colors)
			}
			if err := writeImage(g.path, m, nil); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// saveGlyphs writes every glyph to dir as a PNG named after its identifier,
// using up to jobs workers. Files already written are left in place if any
// write fails.
func (a *Atlast) saveGlyphs(dir string, rows [][]atlas.LoadedGlyph, colors, jobs int) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	glyphs, errc, err := a.emitGlyphs(ctx, dir, rows)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers(jobs); i++ {
		errc, err := a.glyphWorker(ctx, glyphs, colors)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
