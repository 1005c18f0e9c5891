package share

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Column widths in millimetres; together they span the A4 text width.
const (
	colNo       = 20.0
	colItem     = 110.0
	colQuantity = 60.0
	rowHeight   = 9.0
)

const fontFamily = "shopmate"

// ErrUnsupportedText is returned when the PDF font has no glyph for a
// character of an entry.
var ErrUnsupportedText = errors.New("text is not covered by the pdf font")

// Font holds TrueType data used to set PDF text. Bold may be empty, in which
// case Regular is used for headings too.
type Font struct {
	Regular []byte
	Bold    []byte
}

// DefaultFont is the Go font family. It covers Latin, Greek and Cyrillic.
var DefaultFont = Font{Regular: goregular.TTF, Bold: gobold.TTF}

// LoadFont reads a TrueType font file for PDF rendering, e.g. one with
// Devanagari glyphs.
func LoadFont(path string) (Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Font{}, fmt.Errorf("reading font: %w", err)
	}
	if _, err := sfnt.Parse(data); err != nil {
		return Font{}, fmt.Errorf("parsing font %s: %w", path, err)
	}
	return Font{Regular: data}, nil
}

func (f Font) orDefault() Font {
	if len(f.Regular) == 0 {
		return DefaultFont
	}
	if len(f.Bold) == 0 {
		f.Bold = f.Regular
	}
	return f
}

// covers reports the first rune of texts the regular face has no glyph for.
func (f Font) covers(texts ...string) error {
	face, err := sfnt.Parse(f.Regular)
	if err != nil {
		return fmt.Errorf("parsing font: %w", err)
	}
	var buf sfnt.Buffer
	for _, s := range texts {
		for _, r := range s {
			if unicode.IsControl(r) {
				continue
			}
			idx, err := face.GlyphIndex(&buf, r)
			if err != nil {
				return fmt.Errorf("looking up glyph for %q: %w", r, err)
			}
			if idx == 0 {
				return fmt.Errorf("%w: %q in %q", ErrUnsupportedText, r, s)
			}
		}
	}
	return nil
}

// PDF writes the entries as an A4 document with a centered title and a
// No. / Item / Quantity table, set in font or DefaultFont when font is
// empty. Entries with characters the font lacks fail with
// ErrUnsupportedText and nothing is written.
func PDF(w io.Writer, entries []model.ShopListItem, font Font) error {
	return render(w, entries, font, true)
}

func render(w io.Writer, entries []model.ShopListItem, font Font, compress bool) error {
	font = font.orDefault()

	cells := make([]string, 0, 2*len(entries))
	for _, e := range entries {
		cells = append(cells, e.Name, Quantity(e.Item))
	}
	if err := font.covers(cells...); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.AddUTF8FontFromBytes(fontFamily, "", font.Regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", font.Bold)
	pdf.SetTitle(Title, true)
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 20)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(0, 14, Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetFillColor(242, 242, 242)
	pdf.SetDrawColor(221, 221, 221)
	for _, h := range []struct {
		label string
		width float64
	}{{"No.", colNo}, {"Item", colItem}, {"Quantity", colQuantity}} {
		pdf.CellFormat(h.width, rowHeight, h.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 12)
	for i := range entries {
		pdf.CellFormat(colNo, rowHeight, strconv.Itoa(i+1), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colItem, rowHeight, cells[2*i], "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQuantity, rowHeight, cells[2*i+1], "1", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
