package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/diewo77/go-deliberations/internal/document"
	"github.com/phpdave11/gofpdf"
)

// producedAt is stamped as creation date so identical input yields identical files.
var producedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type pdfCanvas struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPDFCanvas(title string) *pdfCanvas {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetCellMargin(0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(producedAt)
	pdf.SetCreator("go-deliberations", true)
	pdf.SetTitle(title, true)
	pdf.AddPage()
	// Core fonts are cp1252; accents are mapped through the translator.
	return &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *pdfCanvas) SetFont(family, style string, size float64) {
	c.pdf.SetFont(family, style, size)
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.tr(s))
}

func (c *pdfCanvas) Text(x, y float64, s string, align Align) {
	if s == "" {
		return
	}
	enc := c.tr(s)
	switch align {
	case AlignCenter:
		x -= c.pdf.GetStringWidth(enc) / 2
	case AlignRight:
		x -= c.pdf.GetStringWidth(enc)
	}
	c.pdf.Text(x, y, enc)
}

func (c *pdfCanvas) Image(img Image, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	if c.pdf.GetImageInfo(img.Name) == nil {
		c.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
	}
	c.pdf.ImageOptions(img.Name, x, y, w, h, false, opts, 0, "")
}

func (c *pdfCanvas) AddPage() { c.pdf.AddPage() }

// Render produces the two-page PDF for d. Missing seals fail before any drawing.
func Render(d *document.Document, a Assets) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if d == nil {
		d = &document.Document{}
	}
	c := newPDFCanvas("Délibération " + d.Identifier())
	Layout(c, d, a)

	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
