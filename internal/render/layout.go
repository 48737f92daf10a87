package render

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-deliberations/internal/document"
)

// A4 portrait geometry, millimetres.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 15.0
)

const (
	bodySize   = 12.0
	headerSize = 7.0
	clauseSize = 9.0
	lineFactor = 1.15
	ptToMM     = 25.4 / 72
)

type headerLine struct {
	dx   float64
	text string
}

var adminHeader = []headerLine{
	{0, "MINISTERE DE LA DECENTRALISATION ET"},
	{2, "DE L'AMENAGEMENT DU TERRITOIRE"},
	{18, "-------------------"},
	{8, "PREFECTURE DE MAHAJANGA"},
	{20.5, "-------------"},
	{17, "REGION BOENY"},
	{23, "-------"},
}

const (
	councilHeading  = "LE CONSEIL MUNICIPAL DE LA COMMUNE URBAINE DE MAHAJANGA"
	hearingLine     = "Entendu la présentation des membres de l'organe exécutif"
	decisionHeading = "LE CONSEIL, APRES EN AVOIR DELIBERE"
)

// lineHeight is the baseline-to-baseline distance of a wrapped block.
func lineHeight(size float64) float64 { return size * lineFactor * ptToMM }

func blockHeight(lines []string, size float64) float64 {
	return float64(len(lines)) * lineHeight(size)
}

// Wrap breaks text into lines no wider than width in the canvas' current font.
// Explicit newlines start a new line; a word longer than width stays whole.
func Wrap(c Canvas, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			candidate := cur + " " + w
			if c.StringWidth(candidate) > width {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur = candidate
		}
		lines = append(lines, cur)
	}
	return lines
}

type layout struct {
	c    Canvas
	y    float64
	size float64
}

func (l *layout) font(family, style string, size float64) {
	l.c.SetFont(family, style, size)
	l.size = size
}

// centered prints each wrapped line centred on the page, advancing step per line.
func (l *layout) centered(text string, step float64) {
	for _, line := range Wrap(l.c, text, PageWidth-2*Margin) {
		l.c.Text(PageWidth/2, l.y, line, AlignCenter)
		l.y += step
	}
}

// hanging prints each entry with a first-line indent of 15 and continuation indent of 10.
func (l *layout) hanging(entries []string) {
	for _, e := range entries {
		for i, line := range Wrap(l.c, e, PageWidth-(Margin+15+Margin)) {
			dx := 10.0
			if i == 0 {
				dx = 15
			}
			l.c.Text(Margin+dx, l.y, line, AlignLeft)
			l.y += 5
		}
	}
}

// paragraph indents the first line by 5 and advances 7 per line.
func (l *layout) paragraph(text string) {
	for i, line := range Wrap(l.c, text, PageWidth-(2*Margin+5)) {
		dx := 0.0
		if i == 0 {
			dx = 5
		}
		l.c.Text(Margin+dx, l.y, line, AlignLeft)
		l.y += 7
	}
}

// block prints a wrapped block at the cursor and advances by its height plus gap.
func (l *layout) block(text string, gap float64) {
	lines := Wrap(l.c, text, PageWidth-2*Margin)
	for i, line := range lines {
		l.c.Text(Margin, l.y+float64(i)*lineHeight(l.size), line, AlignLeft)
	}
	l.y += blockHeight(lines, l.size) + gap
}

func (l *layout) line(x float64, text string, align Align, advance float64) {
	l.c.Text(x, l.y, text, align)
	l.y += advance
}

// Layout draws d on c. Both pages are always produced.
func Layout(c Canvas, d *document.Document, a Assets) {
	l := &layout{c: c}

	// Page one: seals, administrative header, roll call, convening paragraph.
	c.Image(a.Seal, PageWidth/2-25, 10, 50, 20)

	l.font(FontHelvetica, StyleRegular, headerSize)
	l.y = 35
	for i, h := range adminHeader {
		if i > 0 {
			l.y += 4
		}
		c.Text(Margin+h.dx, l.y, h.text, AlignLeft)
	}
	l.y += 5
	c.Image(a.Commune, Margin+17, l.y, 20, 20)
	l.y += 20 + 10

	l.font(FontTimes, StyleBold, bodySize)
	l.centered(d.FirstPageTitle(), 7)
	l.y += 5

	l.font(FontTimes, StyleRegular, bodySize)
	l.line(Margin, "Nombre des Conseillers en exercice : "+d.Exercice.String(), AlignLeft, 7)
	l.line(Margin, fmt.Sprintf("Etaient présents : %d", len(d.ConseillersPresents)), AlignLeft, 7)
	l.line(Margin+7, "MM. :", AlignLeft, 7)
	l.hanging(d.ConseillerLines())
	l.y += 3

	l.line(Margin, fmt.Sprintf("Etaient représentés : %d", len(d.Representes)), AlignLeft, 7)
	l.hanging(d.RepresenteLines())
	l.y += 10

	l.paragraph(d.Intro())
	l.y += 3
	l.paragraph(document.QuorumSentence)

	// Page two: the deliberation itself.
	c.AddPage()
	l.y = Margin

	l.font(FontTimes, StyleBold, bodySize)
	l.centered(d.SecondPageTitle(), 7)
	l.y += 5

	l.font(FontTimes, StyleRegular, bodySize)
	l.line(PageWidth/2, councilHeading, AlignCenter, 10)

	l.font(FontTimes, StyleItalic, clauseSize)
	for _, clause := range d.Clauses() {
		l.block(clause, 3)
	}
	l.y += 5

	l.font(FontTimes, StyleRegular, bodySize)
	l.line(Margin, hearingLine, AlignLeft, 10)

	l.font(FontTimes, StyleBold, bodySize)
	l.line(PageWidth/2, decisionHeading, AlignCenter, 10)

	l.font(FontTimes, StyleRegular, bodySize)
	for _, article := range d.ArticleLines() {
		l.block(article, 5)
	}
	l.block(document.ClosingSentence, 5)

	// Signatures share one baseline; names sit 20mm below.
	l.font(FontTimes, StyleBold, bodySize)
	c.Text(Margin, l.y, "LE RAPPORTEUR,", AlignLeft)
	c.Text(PageWidth-Margin, l.y, "LE PRESIDENT", AlignRight)
	l.font(FontTimes, StyleRegular, bodySize)
	c.Text(Margin, l.y+20, d.Rapporteur.String(), AlignLeft)
	c.Text(PageWidth-Margin, l.y+20, d.PresidentNom.String(), AlignRight)
	l.y += 27

	l.line(Margin, d.VoteSummary(), AlignLeft, 7)
	l.line(Margin, "Affichée le,", AlignLeft, 0)
}
