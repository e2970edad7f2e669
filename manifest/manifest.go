/*
Package manifest implements the index.html file written alongside the glyph
images of an unpacked atlas.

The file is an ordinary web page showing the glyphs in their atlas rows, so
it can be opened in a browser, and it is also the list of glyphs used to pack
the atlas again. Each row is an element with a data-atlas="row" attribute
containing one <img> per glyph:

	<div data-atlas="row">
	  <img src="000.png" data-descent="2">
	  <img src="001.png">
	</div>

The data-descent attribute is omitted when the descent is zero.
*/
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bodgit/atlast/atlas"
)

const (
	// Filename is the expected filename used when writing to disk
	Filename = "index.html"

	ext = ".png"
)

var errMissingSrc = errors.New("manifest: img missing src attribute")

// Src returns the image path written for the glyph with identifier id.
func Src(id string) string {
	return id + ext
}

// ID returns the glyph identifier for the image path src, which is src
// without any trailing ".png" in whatever case.
func ID(src string) string {
	if len(src) >= len(ext) && strings.EqualFold(src[len(src)-len(ext):], ext) {
		return src[:len(src)-len(ext)]
	}
	return src
}

// Entry is a glyph entry along with the image path it is listed under.
type Entry struct {
	atlas.Entry
	// Src is the image path relative to the manifest. If empty, Src(ID) is
	// used.
	Src string
}

// Path returns the image path of the entry.
func (e Entry) Path() string {
	if e.Src != "" {
		return e.Src
	}
	return Src(e.ID)
}

// escape turns an image path into the URL written to the src attribute.
// html/template leaves existing %XX escapes alone, so escaping here keeps
// names with spaces or percent signs intact through unescape.
func escape(p string) template.URL {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return template.URL(strings.Join(segments, "/"))
}

// unescape returns the image path referenced by a src attribute. Values
// that aren't valid escapes are taken as they are.
func unescape(src string) string {
	if p, err := url.PathUnescape(src); err == nil {
		return p
	}
	return src
}

// Manifest is the ordered list of glyph entries, one slice per atlas row. It
// implements the encoding.TextMarshaler and encoding.TextUnmarshaler
// interfaces.
type Manifest struct {
	Rows [][]Entry
}

// New returns a manifest describing the given glyphs.
func New(rows [][]atlas.LoadedGlyph) *Manifest {
	m := &Manifest{
		Rows: make([][]Entry, 0, len(rows)),
	}
	for _, row := range rows {
		entries := make([]Entry, 0, len(row))
		for _, g := range row {
			entries = append(entries, Entry{Entry: g.Entry})
		}
		m.Rows = append(m.Rows, entries)
	}
	return m
}

// Entries returns the glyph entries without their image paths.
func (m *Manifest) Entries() [][]atlas.Entry {
	rows := make([][]atlas.Entry, 0, len(m.Rows))
	for _, row := range m.Rows {
		entries := make([]atlas.Entry, 0, len(row))
		for _, e := range row {
			entries = append(entries, e.Entry)
		}
		rows = append(rows, entries)
	}
	return rows
}

// Len returns the number of entries
func (m *Manifest) Len() int {
	n := 0
	for _, row := range m.Rows {
		n += len(row)
	}
	return n
}

var page = template.Must(template.New(Filename).Funcs(template.FuncMap{
	"src": func(e Entry) template.URL {
		return escape(e.Path())
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width,initial-scale=1">
<script>
/* undo the browser scaling images up by the display pixel ratio */
document.documentElement.style.setProperty('--unscale', 1.0 / window.devicePixelRatio)
</script>
<style>
body
  { background: #282828 }
[data-atlas]
  { display: flex; gap: 1px }
[data-atlas='']
  { flex-direction: column;
    transform-origin: top left;
    scale: var(--unscale) }
</style>
</head>
<body>
<div data-atlas>
{{- range .Rows}}
  <div data-atlas="row">
  {{- range .}}
    <img src="{{src .}}"{{if .Descent}} data-descent="{{.Descent}}"{{end}}>
  {{- end}}
  </div>
{{- end}}
</div>
</body>
</html>
`))

// MarshalText renders the manifest as an HTML page.
func (m *Manifest) MarshalText() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := page.Execute(b, m); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalText parses an HTML page, replacing the contents of m.
func (m *Manifest) UnmarshalText(b []byte) error {
	p, err := Parse(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*m = *p
	return nil
}

// Parse reads the rows of glyph entries from an HTML page. Every <img> in a
// row needs a non-empty src and any data-descent must be a non-negative
// integer.
func Parse(r io.Reader) (*Manifest, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Rows: [][]Entry{},
	}

	doc.Find(`[data-atlas="row"]`).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		entries := []Entry{}
		row.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			var e Entry
			if e, err = entry(img); err != nil {
				return false
			}
			entries = append(entries, e)
			return true
		})
		if err != nil {
			return false
		}
		m.Rows = append(m.Rows, entries)
		return true
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func entry(img *goquery.Selection) (Entry, error) {
	src, ok := img.Attr("src")
	if !ok || src == "" {
		return Entry{}, errMissingSrc
	}

	p := unescape(src)
	e := Entry{
		Entry: atlas.Entry{ID: ID(p)},
		Src:   p,
	}

	if s, ok := img.Attr("data-descent"); ok {
		descent, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Entry{}, fmt.Errorf("manifest: expected non-negative integer, found: %s", s)
		}
		e.Descent = uint32(descent)
	}

	return e, nil
}

// Patch updates the page read from r with the entries in m and writes the
// result to w. Each <img> whose src has the identifier of an entry has its
// descent replaced; everything else on the page, including images with no matching
// entry, is left where it was. It returns the number of images updated.
func (m *Manifest) Patch(r io.Reader, w io.Writer) (int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, err
	}

	entries := make(map[string]atlas.Entry, m.Len())
	for _, row := range m.Rows {
		for _, e := range row {
			entries[e.ID] = e.Entry
		}
	}

	matched := 0
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		e, ok := entries[ID(unescape(src))]
		if !ok {
			return
		}
		if e.Descent > 0 {
			img.SetAttr("data-descent", strconv.FormatUint(uint64(e.Descent), 10))
		} else {
			img.RemoveAttr("data-descent")
		}
		matched++
	})

	html, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return 0, err
	}
	if _, err := io.WriteString(w, html); err != nil {
		return 0, err
	}

	return matched, nil
}
