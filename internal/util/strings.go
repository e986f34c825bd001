package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titler capitalizes the first letter of each word without lowering the rest,
// so camelCase input keeps its interior capitals.
var titler = cases.Title(language.English, cases.NoLower)

// goKeywords are identifiers that cannot be used verbatim in generated code.
var goKeywords = map[string]struct{}{
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {},
	"default": {}, "defer": {}, "else": {}, "fallthrough": {}, "for": {},
	"func": {}, "go": {}, "goto": {}, "if": {}, "import": {},
	"interface": {}, "map": {}, "package": {}, "range": {}, "return": {},
	"select": {}, "struct": {}, "switch": {}, "type": {}, "var": {},
}

// ExportName converts a model identifier (camelCase, snake_case, kebab-case
// or dotted) into an exported Go identifier. Interior capitals survive:
// "chanceOfRain" becomes "ChanceOfRain", "chance_of_rain" likewise.
func ExportName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	out := strings.Join(parts, "")
	if out == "" {
		return out
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "Value" + out
	}
	return out
}

// SafeName appends an underscore when the identifier collides with a Go
// keyword, leaving everything else untouched.
func SafeName(name string) string {
	if _, reserved := goKeywords[name]; reserved {
		return name + "_"
	}
	return name
}

// LowerFirst lowercases the leading rune, used for unexported helper names
// derived from exported ones.
func LowerFirst(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
