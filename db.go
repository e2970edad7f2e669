package atlast

import (
	"database/sql"
	"fmt"
	"image"

	"github.com/bodgit/atlast/atlas"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// GlyphDB stores unpacked glyphs in a SQLite database. Pixels are stored as
// zstd-compressed NRGBA so transparent pixels keep their color.
type GlyphDB struct {
	db *sql.DB

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewGlyphDB opens or creates the database in file.
func NewGlyphDB(file string) (*GlyphDB, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS glyph (id TEXT PRIMARY KEY NOT NULL, row_index INTEGER NOT NULL, col_index INTEGER NOT NULL, descent INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, pixels BLOB NOT NULL, UNIQUE(row_index, col_index))"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &GlyphDB{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the database.
func (db *GlyphDB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}

func (db *GlyphDB) compress(m *image.NRGBA) []byte {
	b := m.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		pix = append(pix, m.Pix[i:i+b.Dx()*4]...)
	}
	return db.enc.EncodeAll(pix, nil)
}

func (db *GlyphDB) decompress(id string, width, height int, b []byte) (*image.NRGBA, error) {
	pix, err := db.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("glyph %s: %w", id, err)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("glyph %s: pixel data is %d bytes, want %d", id, len(pix), width*height*4)
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// Replace deletes every stored glyph and stores rows in their place.
func (db *GlyphDB) Replace(rows [][]atlas.LoadedGlyph) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM glyph"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO glyph (id, row_index, col_index, descent, width, height, pixels) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		for j, g := range row {
			b := g.Image.Bounds()
			if _, err := stmt.Exec(g.ID, i, j, g.Descent, b.Dx(), b.Dy(), db.compress(g.Image)); err != nil {
				return fmt.Errorf("glyph %s: %w", g.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Update replaces the descent and pixels of every stored glyph whose
// identifier matches one in rows, leaving its position and all other glyphs
// alone. It returns the number of glyphs updated.
func (db *GlyphDB) Update(rows [][]atlas.LoadedGlyph) (int, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE glyph SET descent = ?, width = ?, height = ?, pixels = ? WHERE id = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var matched int64
	for _, row := range rows {
		for _, g := range row {
			b := g.Image.Bounds()
			result, err := stmt.Exec(g.Descent, b.Dx(), b.Dy(), db.compress(g.Image), g.ID)
			if err != nil {
				return 0, fmt.Errorf("glyph %s: %w", g.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, err
			}
			matched += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int(matched), nil
}

// Rows returns every stored glyph grouped into rows, in atlas order.
func (db *GlyphDB) Rows() ([][]atlas.LoadedGlyph, error) {
	rs, err := db.db.Query("SELECT id, row_index, descent, width, height, pixels FROM glyph ORDER BY row_index, col_index")
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var (
		rows    [][]atlas.LoadedGlyph
		lastRow = -1
	)
	for rs.Next() {
		var (
			g             atlas.LoadedGlyph
			row           int
			width, height int
			pixels        []byte
		)
		if err := rs.Scan(&g.ID, &row, &g.Descent, &width, &height, &pixels); err != nil {
			return nil, err
		}
		if g.Image, err = db.decompress(g.ID, width, height, pixels); err != nil {
			return nil, err
		}

		if row != lastRow {
			rows = append(rows, nil)
			lastRow = row
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], g)
	}

	return rows, rs.Err()
}
