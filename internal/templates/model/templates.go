// Package model embeds the CFWheels component template.
package model

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed *.tmpl
var modelTemplates embed.FS

// GetModelTemplate returns the content of the model component template.
func GetModelTemplate() (string, error) {
	content, err := modelTemplates.ReadFile("model.cfc.tmpl")
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// TemplateFuncs returns the template function map for the model template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"quote":     quote,
		"quoteList": quoteList,
		"join":      strings.Join,
	}
}

// quote wraps s in double quotes. CFML has no backslash escapes, so embedded
// quotes are doubled.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteList formats names as a comma separated list of quoted strings.
// e.g., ["A", "B"] -> `"A", "B"`
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
