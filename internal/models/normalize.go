package models

import (
	"strconv"
	"strings"
)

// NormalizeMaxLength maps vendor length values to the descriptor form.
// SQL Server reports -1 for (max) columns; zero and negatives mean unbounded.
func NormalizeMaxLength(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

// ParseMaxLength parses a textual length. "", "N/A", "-1", "max" and any
// non-numeric value are treated as unbounded.
func ParseMaxLength(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") || strings.EqualFold(s, "max") {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return NormalizeMaxLength(n)
}

// NormalizeDefault returns nil for an empty default or the NULL sentinel.
func NormalizeDefault(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NULL") {
		return nil
	}
	return &s
}

// LengthFromType extracts the first length argument of a declared type such
// as "varchar(50)" or "decimal(10,2)".
func LengthFromType(sqlType string) *int {
	open := strings.IndexByte(sqlType, '(')
	if open < 0 {
		return nil
	}
	rest := sqlType[open+1:]
	end := strings.IndexAny(rest, ",)")
	if end < 0 {
		return nil
	}
	return ParseMaxLength(rest[:end])
}
