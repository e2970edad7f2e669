/*
Package atlast is a library for unpacking glyph atlases into individual glyph
images and packing them back together.

An unpacked atlas is a directory holding one PNG image per glyph and an
index.html manifest listing the glyphs row by row along with their descent,
or alternatively a single SQLite database holding the same.
*/
package atlast

import (
	"log"
	"runtime"

	"github.com/bodgit/atlast/atlas"
)

// Atlast unpacks and packs atlases using a given pair of marker colors.
type Atlast struct {
	markers atlas.Markers
	logger  *log.Logger
}

// New returns an Atlast that reports progress to logger.
func New(markers atlas.Markers, logger *log.Logger) *Atlast {
	return &Atlast{
		markers: markers,
		logger:  logger,
	}
}

func workers(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}
