package duckdb

import (
	"regexp"
	"strings"
)

// ConstraintKind distinguishes the constraint texts this package understands.
type ConstraintKind int

const (
	PrimaryKey ConstraintKind = iota + 1
	ForeignKey
)

// Constraint is a parsed duckdb_constraints() text.
type Constraint struct {
	Kind       ConstraintKind
	Columns    []string
	RefTable   string
	RefColumns []string
}

var (
	primaryKeyText = regexp.MustCompile(`(?is)^\s*PRIMARY\s+KEY\s*\((.*)\)\s*$`)
	foreignKeyText = regexp.MustCompile(`(?is)^\s*FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+("(?:[^"]|"")+"|[^\s(]+)\s*\(([^)]*)\)\s*$`)
)

// ParseConstraint parses texts such as `PRIMARY KEY(Id)` and
// `FOREIGN KEY (RegionId) REFERENCES Regions(Id)`. Other constraint kinds
// are reported as not ok.
func ParseConstraint(text string) (Constraint, bool) {
	if m := primaryKeyText.FindStringSubmatch(text); m != nil {
		cols := splitIdentifiers(m[1])
		return Constraint{Kind: PrimaryKey, Columns: cols}, len(cols) > 0
	}
	if m := foreignKeyText.FindStringSubmatch(text); m != nil {
		c := Constraint{
			Kind:       ForeignKey,
			Columns:    splitIdentifiers(m[1]),
			RefTable:   unquote(lastPart(m[2])),
			RefColumns: splitIdentifiers(m[3]),
		}
		return c, len(c.Columns) > 0 && c.RefTable != ""
	}
	return Constraint{}, false
}

// splitIdentifiers splits a comma separated identifier list, honoring
// double-quoted identifiers that contain commas.
func splitIdentifiers(list string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if id := unquote(strings.TrimSpace(cur.String())); id != "" {
			out = append(out, id)
		}
		cur.Reset()
	}
	for _, r := range list {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// lastPart drops a schema qualifier from a table reference.
func lastPart(ref string) string {
	if strings.HasPrefix(ref, `"`) {
		return ref
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func unquote(id string) string {
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		return strings.ReplaceAll(id[1:len(id)-1], `""`, `"`)
	}
	return id
}
