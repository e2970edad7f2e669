package main

import (
	"errors"
	"fmt"
	"image/color"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/atlast"
	"github.com/bodgit/atlast/atlas"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/urfave/cli/v2"
)

const (
	defaultAtlas = "GameFont.tga"
	defaultDir   = "GameFont"
	defaultExt   = ".tga"
)

var errBadSize = errors.New("size must be WIDTHxHEIGHT, either side may be empty")

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// parseSize parses WxH where an empty or zero side means automatic.
func parseSize(s string) (uint32, uint32, error) {
	if s == "" {
		return 0, 0, nil
	}

	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errBadSize
	}

	var dims [2]uint32
	for i, v := range []string{w, h} {
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, errBadSize
		}
		dims[i] = uint32(n)
	}

	return dims[0], dims[1], nil
}

// parseColor parses a #rrggbb marker color. Markers are always fully
// transparent.
func parseColor(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0}, nil
}

func markers(c *cli.Context) (atlas.Markers, error) {
	mk := atlas.DefaultMarkers
	if s := c.String("frame-color"); s != "" {
		frame, err := parseColor(s)
		if err != nil {
			return mk, fmt.Errorf("frame color: %w", err)
		}
		mk.Frame = frame
	}
	if s := c.String("baseline-color"); s != "" {
		baseline, err := parseColor(s)
		if err != nil {
			return mk, fmt.Errorf("baseline color: %w", err)
		}
		mk.Baseline = baseline
	}
	if mk.Frame == mk.Baseline {
		return mk, errors.New("frame and baseline colors must differ")
	}
	return mk, nil
}

func newAtlast(c *cli.Context) (*atlast.Atlast, error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	mk, err := markers(c)
	if err != nil {
		return nil, err
	}

	return atlast.New(mk, logger), nil
}

// packOutput returns the default atlas written for the glyph directory dir,
// named after the directory itself.
func packOutput(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	switch name := filepath.Base(dir); name {
	case ".", "..", string(filepath.Separator):
		return defaultAtlas
	default:
		return name + defaultExt
	}
}

// stem returns the path without its extension.
func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func unpack(c *cli.Context) error {
	if c.NArg() > 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	input := defaultAtlas
	if c.NArg() == 1 {
		input = c.Args().First()
	}

	if c.Bool("patch-manifest") && c.Bool("skip-manifest") {
		return cli.Exit("--patch-manifest and --skip-manifest are mutually exclusive", 1)
	}

	colors := c.Int("colors")
	if colors != 0 && (colors < 2 || colors > atlast.MaxColors) {
		return cli.Exit(fmt.Sprintf("--colors must be between 2 and %d", atlast.MaxColors), 1)
	}

	a, err := newAtlast(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	opts := atlast.UnpackOptions{
		DryRun: c.Bool("dry-run"),
		Colors: colors,
		Jobs:   c.Int("jobs"),
	}
	switch {
	case c.Bool("patch-manifest"):
		opts.Manifest = atlast.ManifestPatch
	case c.Bool("skip-manifest"):
		opts.Manifest = atlast.ManifestSkip
	}

	if db := c.String("db"); db != "" {
		err = a.UnpackToDB(input, db, opts)
	} else {
		output := c.String("output")
		if output == "" {
			output = stem(input)
		}
		err = a.Unpack(input, output, opts)
	}
	if err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func pack(c *cli.Context) error {
	if c.NArg() > 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	input := defaultDir
	if c.NArg() == 1 {
		input = filepath.Clean(c.Args().First())
	}

	width, height, err := parseSize(c.String("size"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	a, err := newAtlast(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	output := c.String("output")
	if output == "" {
		output = packOutput(input)
	}

	opts := atlast.PackOptions{
		DryRun: c.Bool("dry-run"),
		Width:  width,
		Height: height,
		Jobs:   c.Int("jobs"),
		RLE:    c.Bool("rle"),
	}

	if db := c.String("db"); db != "" {
		err = a.PackFromDB(db, output, opts)
	} else {
		err = a.Pack(input, output, opts)
	}
	if err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		EnvVars: []string{"ATLAST_DB"},
		Usage:   "use a glyph database instead of a directory",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"n"},
		Usage:   "don't write anything",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "atlast"
	app.Usage = "Glyph atlas unpacking and packing utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:    "frame-color",
			EnvVars: []string{"ATLAST_FRAME_COLOR"},
			Usage:   "frame marker color as #rrggbb (default #ff00ff)",
		},
		&cli.StringFlag{
			Name:    "baseline-color",
			EnvVars: []string{"ATLAST_BASELINE_COLOR"},
			Usage:   "baseline marker color as #rrggbb (default #00ffff)",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			EnvVars: []string{"ATLAST_JOBS"},
			Usage:   "number of glyph images to read or write at once (default number of CPUs)",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "unpack",
			Usage:       "Split an atlas into glyph images",
			Description: "Writes one PNG per glyph and an index.html manifest to the output directory.",
			ArgsUsage:   "[ATLAS]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output directory (default atlas name without extension)",
				},
				&cli.BoolFlag{
					Name:  "patch-manifest",
					Usage: "update descents in the existing manifest rather than replacing it",
				},
				&cli.BoolFlag{
					Name:  "skip-manifest",
					Usage: "don't write the manifest",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "reduce each glyph image to at most this many colors",
				},
				dbFlag(),
				dryRunFlag(),
			},
			Action: unpack,
		},
		{
			Name:        "pack",
			Usage:       "Join glyph images into an atlas",
			Description: "Reads the glyphs listed in the index.html manifest of the directory.",
			ArgsUsage:   "[DIRECTORY]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output atlas (default directory name with .tga)",
				},
				&cli.StringFlag{
					Name:    "size",
					Aliases: []string{"s"},
					Usage:   "atlas size as WxH, an empty side is worked out from the glyphs",
				},
				&cli.BoolFlag{
					Name:  "rle",
					Usage: "run-length encode the atlas when writing TGA",
				},
				dbFlag(),
				dryRunFlag(),
			},
			Action: pack,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
