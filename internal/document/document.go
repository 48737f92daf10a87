// Package document models the content of a deliberation letter and the text
// derived from it (identifiers, dates, vote summary, clauses and articles).
package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// CurrentVersion is written by clients that tag their payloads.
// Untagged content is treated as version 1.
const CurrentVersion = 1

//go:embed schema.json
var schemaJSON []byte

var contentSchema = mustCompile(schemaJSON)

func mustCompile(b []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(b)
	if err != nil {
		panic(fmt.Sprintf("document: compile schema: %v", err))
	}
	return schema
}

// ErrInvalidContent is wrapped by every ValidationError.
var ErrInvalidContent = errors.New("document: invalid content")

// ValidationError lists the schema problems found in a payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "document: invalid content: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidContent }

func invalid(problems ...string) error { return &ValidationError{Problems: problems} }

// Text is a scalar that clients send either as a string or as a number.
// null decodes to the empty string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("document: expected string or number, got %s", b)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Blank reports whether t is empty after trimming.
func (t Text) Blank() bool { return strings.TrimSpace(string(t)) == "" }

// Fonction values accepted for a present council member.
const (
	FonctionNone          = ""
	FonctionPresident     = "Président"
	FonctionVicePresident = "Vice-président"
	FonctionRapporteur    = "Rapporteur"
	FonctionMembre        = "Membre"
)

type Conseiller struct {
	Nom      Text `json:"nom"`
	Fonction Text `json:"fonction"`
}

type Represente struct {
	Represente   Text `json:"represente"`
	Representant Text `json:"representant"`
}

// Document is the structured content of one deliberation.
// Empty entries in LignesJuridiques and Articles are kept as typed;
// they are only skipped when text is derived for rendering.
type Document struct {
	Version int `json:"version,omitempty"`

	Numero            Text `json:"numero"`
	SessionDate       Text `json:"sessionDate"`
	Exercice          Text `json:"exercice"`
	Rapporteur        Text `json:"rapporteur"`
	President         Text `json:"president"`
	PresidentNom      Text `json:"presidentNom"`
	Date              Text `json:"date"`
	Heure             Text `json:"heure"`
	Convocation       Text `json:"convocation"`
	DateConvocation   Text `json:"dateConvocation"`
	VoixPour          Text `json:"voixPour"`
	VoixContre        Text `json:"voixContre"`
	VoixAbstention    Text `json:"voixAbstention"`
	TitreDeliberation Text `json:"titreDeliberation"`

	// Voix is the pre-split vote field; read as VoixPour when that is empty.
	Voix Text `json:"voix,omitempty"`

	ConseillersPresents []Conseiller `json:"conseillersPresents"`
	Representes         []Represente `json:"representes"`
	LignesJuridiques    []string     `json:"lignesJuridiques"`
	Articles            []string     `json:"articles"`
}

// Normalize validates raw content and returns its compact JSON object form.
// raw may be a JSON object or a JSON string holding one; empty input and
// null become "{}".
func Normalize(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}"), nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, invalid("content: " + err.Error())
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return []byte("{}"), nil
		}
		trimmed = []byte(s)
	}

	var instance any
	if err := json.Unmarshal(trimmed, &instance); err != nil {
		return nil, invalid("content: " + err.Error())
	}
	if _, ok := instance.(map[string]any); !ok {
		return nil, invalid("content: expected a JSON object")
	}
	result := contentSchema.Validate(instance)
	if !result.IsValid() {
		problems := make([]string, 0, len(result.Errors))
		for field, evalErr := range result.Errors {
			problems = append(problems, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(problems)
		return nil, invalid(problems...)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, invalid("content: " + err.Error())
	}
	return buf.Bytes(), nil
}

// Decode validates raw content and decodes it into a Document.
func Decode(raw []byte) (*Document, error) {
	norm, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	var d Document
	if err := json.Unmarshal(norm, &d); err != nil {
		return nil, invalid("content: " + err.Error())
	}
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	return &d, nil
}
