package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// Fixed statutory clauses printed before the letter's own legal references.
var StatutoryClauses = []string{
	"-Vu la Constitution de la IVème République;",
	"-Vu la loi organique n°2014-018 du 12 septembre 2014, complétée par la loi n°2016-030 du 23 août 2016, régissant les compétences, les modalités d'organisation et de fonctionnement des Collectivités territoriales décentralisées ainsi que celles de la gestion de leurs propres affaires;",
	"-Vu la loi n°2014-020 du 27 septembre 2014, modifiée par la loi n°2015-008 du 1er avril 2015, relative aux ressources des Collectivités territoriales décentralisées, aux modalités d'élections ainsi qu'à l'organisation, au fonctionnement et aux attributions de leurs organes;",
	"-Vu la loi n°2014-021 du 12 septembre 2014 relative à la représentation de l'État;",
	"-Vu le jugement n° 01/EL du 20 Janvier 2025 portant proclamation des résultats des élections municipales et communales du11/12/2024 pour la province de Mahajanga;",
}

const (
	QuorumSentence  = "Ayant constaté que le quorum exigé par la loi pour délibérer valablement est atteint."
	ClosingSentence = "Délibéré et adopté à Mahajanga les jour, mois et année ci-dessus avec la signature du registre par tous les membres présents ;"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts the date shapes produced by HTML date inputs and ISO timestamps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// YearSuffix returns the last two digits of the year of date, or "XX".
func YearSuffix(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return "XX"
	}
	return fmt.Sprintf("%02d", t.Year()%100)
}

// LongDate formats date as "vendredi 14 mars 2025". Unparsable input is returned as is.
func LongDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return strings.TrimSpace(date)
	}
	return monday.Format(t, "Monday 2 January 2006", monday.LocaleFrFR)
}

// ShortDate formats date as "14 mars 2025". Unparsable input is returned as is.
func ShortDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return strings.TrimSpace(date)
	}
	return monday.Format(t, "2 January 2006", monday.LocaleFrFR)
}

// Identifier is "{numero}-{yy}".
func (d *Document) Identifier() string {
	return string(d.Numero) + "-" + YearSuffix(string(d.Date))
}

func (d *Document) FirstPageTitle() string {
	return fmt.Sprintf("DELIBERATION N° %s/CU/MGA/CM Prise par les membres du Conseil Municipal de la Commune Urbaine de Mahajanga lors de la session extraordinaire en date du %s",
		d.Identifier(), d.SessionDate)
}

func (d *Document) SecondPageTitle() string {
	return fmt.Sprintf("DELIBERATION N° %s/CU/MGA/CM RELATIVE A %s", d.Identifier(), d.TitreDeliberation)
}

// ConseillerLines renders present members as "{nom}, {fonction}", or "{nom}" without a fonction.
func (d *Document) ConseillerLines() []string {
	out := make([]string, 0, len(d.ConseillersPresents))
	for _, c := range d.ConseillersPresents {
		if c.Fonction == "" {
			out = append(out, string(c.Nom))
			continue
		}
		out = append(out, string(c.Nom)+", "+string(c.Fonction))
	}
	return out
}

func (d *Document) RepresenteLines() []string {
	out := make([]string, 0, len(d.Representes))
	for _, r := range d.Representes {
		out = append(out, string(r.Represente)+" représenté par "+string(r.Representant))
	}
	return out
}

// Intro is the convening paragraph of page one.
func (d *Document) Intro() string {
	return fmt.Sprintf("Le %s à %s H, le Conseil municipal régulièrement convoqué par lettre du Président du Conseil Municipal n°%s du %s, s'est réuni en session extraordinaire sous la présidence de M. %s.",
		LongDate(string(d.Date)), d.Heure, d.Convocation, ShortDate(string(d.DateConvocation)), d.President)
}

// Clauses returns the statutory clauses followed by every non-blank legal reference.
func (d *Document) Clauses() []string {
	out := make([]string, 0, len(StatutoryClauses)+len(d.LignesJuridiques))
	out = append(out, StatutoryClauses...)
	for _, l := range d.LignesJuridiques {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// ArticleLines returns "Article {n}. {text}" for every non-blank article.
// n is the raw position in Articles, so skipped entries leave gaps.
func (d *Document) ArticleLines() []string {
	var out []string
	for i, a := range d.Articles {
		if strings.TrimSpace(a) == "" {
			continue
		}
		out = append(out, fmt.Sprintf("Article %d. %s", i+1, a))
	}
	return out
}

// VotesFor is VoixPour, falling back to the legacy Voix field.
func (d *Document) VotesFor() Text {
	if d.VoixPour.Blank() {
		return d.Voix
	}
	return d.VoixPour
}

// VoteSummary is "Adopté par {n} Voix pour, {n} Voix contre, {n} Voix abstention"
// with blank counts left out, or "Adopté par vote unanime".
func (d *Document) VoteSummary() string {
	var parts []string
	if v := d.VotesFor(); !v.Blank() {
		parts = append(parts, string(v)+" Voix pour")
	}
	if !d.VoixContre.Blank() {
		parts = append(parts, string(d.VoixContre)+" Voix contre")
	}
	if !d.VoixAbstention.Blank() {
		parts = append(parts, string(d.VoixAbstention)+" Voix abstention")
	}
	if len(parts) == 0 {
		return "Adopté par vote unanime"
	}
	return "Adopté par " + strings.Join(parts, ", ")
}
