// Package naming contains the pure identifier transformations used to derive
// model and relation names from table and column names.
package naming

import (
	"strings"
	"unicode"
)

// ToPascalCase converts a string to PascalCase.
//
// Characters other than ASCII letters, digits and whitespace are dropped
// before splitting, underscores included. Words are split on whitespace and
// before every uppercase letter; each word keeps its first character
// uppercased and the rest lowercased. "GUID" stays "GUID", "last_name"
// becomes "Lastname".
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, word := range splitWords(s) {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase.
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return pascal
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// Singularize strips a plural suffix using three ordered rules:
// "ies" becomes "y", "es" is dropped, and a trailing "s" (but not "ss") is
// dropped. Only the first matching rule applies. Irregular plurals such as
// "Children" are returned unchanged.
func Singularize(word string) string {
	switch {
	case word == "":
		return word
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "es"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

// ModelName returns the entity name for a (plural) table name.
func ModelName(table string) string {
	return ToPascalCase(Singularize(table))
}

// splitWords returns the non-empty words of s. Only ASCII letters and digits
// survive; separators end the current word and an uppercase letter starts
// a new one.
func splitWords(s string) []string {
	var (
		words   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			current.WriteRune(r)
		default:
			// punctuation, underscores and non-ASCII letters are
			// dropped without ending the word
		}
	}
	flush()

	return words
}
