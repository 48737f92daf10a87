package validation

import (
	"regexp"
	"sort"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe   = regexp.MustCompile(`^\d*$`)
)

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Username accepts letters, digits, dash and underscore. Empty is left to Required.
func Username(field, value string, v Violations) {
	if value != "" && !usernameRe.MatchString(value) {
		v[field] = "invalid_username"
	}
}

func Email(field, value string, v Violations) {
	if value != "" && !emailRe.MatchString(value) {
		v[field] = "invalid_email"
	}
}

func Digits(field, value string, v Violations) {
	if !digitsRe.MatchString(value) {
		v[field] = "digits_only"
	}
}

// Field pairs a name with whether a value was supplied.
type Field struct {
	Name    string
	Present bool
}

// MissingFields returns the names of absent fields, in declaration order.
func MissingFields(fields ...Field) []string {
	var missing []string
	for _, f := range fields {
		if !f.Present {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
