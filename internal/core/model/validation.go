package model

import (
	"fmt"
	"strings"
)

// SemanticType is the validation category a raw SQL type maps onto.
type SemanticType string

const (
	Numeric  SemanticType = "numeric"
	String   SemanticType = "string"
	DateTime SemanticType = "datetime"
	Date     SemanticType = "date"
	Time     SemanticType = "time"
	Boolean  SemanticType = "boolean"
	GUID     SemanticType = "guid"
	Binary   SemanticType = "binary"

	// Any documents a column whose type is not in the validation map.
	Any SemanticType = "any"
)

var semanticTypes = []SemanticType{Numeric, String, DateTime, Date, Time, Boolean, GUID, Binary}

// ParseSemanticType validates a semantic type name read from configuration.
func ParseSemanticType(s string) (SemanticType, error) {
	want := SemanticType(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range semanticTypes {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown semantic type %q", s)
}

// ValidationMap maps lowercased base SQL types to semantic types.
type ValidationMap map[string]SemanticType

// DefaultValidationMap returns the SQL Server type table along with the
// common ANSI, PostgreSQL, SQLite and DuckDB spellings.
func DefaultValidationMap() ValidationMap {
	return ValidationMap{
		// SQL Server
		"int":              Numeric,
		"bigint":           Numeric,
		"smallint":         Numeric,
		"tinyint":          Numeric,
		"decimal":          Numeric,
		"numeric":          Numeric,
		"float":            Numeric,
		"real":             Numeric,
		"money":            Numeric,
		"smallmoney":       Numeric,
		"datetime":         DateTime,
		"datetime2":        DateTime,
		"datetimeoffset":   DateTime,
		"smalldatetime":    DateTime,
		"date":             Date,
		"time":             Time,
		"char":             String,
		"varchar":          String,
		"text":             String,
		"nchar":            String,
		"nvarchar":         String,
		"ntext":            String,
		"xml":              String,
		"binary":           Binary,
		"varbinary":        Binary,
		"image":            Binary,
		"uniqueidentifier": GUID,
		"bit":              Boolean,

		// ANSI, PostgreSQL, SQLite, DuckDB
		"integer":                     Numeric,
		"int2":                        Numeric,
		"int4":                        Numeric,
		"int8":                        Numeric,
		"hugeint":                     Numeric,
		"serial":                      Numeric,
		"bigserial":                   Numeric,
		"double":                      Numeric,
		"double precision":            Numeric,
		"float4":                      Numeric,
		"float8":                      Numeric,
		"timestamp":                   DateTime,
		"timestamptz":                 DateTime,
		"timestamp with time zone":    DateTime,
		"timestamp without time zone": DateTime,
		"time with time zone":         Time,
		"time without time zone":      Time,
		"character":                   String,
		"character varying":           String,
		"clob":                        String,
		"json":                        String,
		"jsonb":                       String,
		"bytea":                       Binary,
		"blob":                        Binary,
		"uuid":                        GUID,
		"boolean":                     Boolean,
		"bool":                        Boolean,
	}
}

// With returns a copy of m with overrides applied.
func (m ValidationMap) With(overrides map[string]SemanticType) ValidationMap {
	out := make(ValidationMap, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		out[BaseType(k)] = v
	}
	return out
}

// Lookup resolves a raw SQL type through the map.
func (m ValidationMap) Lookup(sqlType string) (SemanticType, bool) {
	st, ok := m[BaseType(sqlType)]
	return st, ok
}

// BaseType strips any parenthesized precision suffix and lowercases the rest.
// "NVARCHAR(255)" becomes "nvarchar" and "character varying(20)" becomes
// "character varying".
func BaseType(sqlType string) string {
	if i := strings.IndexByte(sqlType, '('); i >= 0 {
		sqlType = sqlType[:i]
	}
	return strings.ToLower(strings.Join(strings.Fields(sqlType), " "))
}

// BoundedStringTypes are the base types that carry a maximum length.
var BoundedStringTypes = map[string]bool{
	"char":              true,
	"varchar":           true,
	"nchar":             true,
	"nvarchar":          true,
	"character":         true,
	"character varying": true,
}

// IsBoundedString reports whether sqlType is a length-limited string type.
func IsBoundedString(sqlType string) bool {
	return BoundedStringTypes[BaseType(sqlType)]
}
