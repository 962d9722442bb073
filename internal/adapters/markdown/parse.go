package markdown

import (
	"errors"
	"regexp"
	"strings"

	"github.com/example/modelgen/internal/models"
)

// ErrNoColumnsTable is returned when a table response has no column table.
var ErrNoColumnsTable = errors.New("columns table not found")

var decoration = regexp.MustCompile(`^[:-]+$`)

// ParseTableList extracts table names from a listing. Lines may be plain
// names or rows of a markdown table; a leading "Table Name" header and
// separator rows are skipped.
func ParseTableList(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 && strings.Contains(lines[0], "Table Name") {
		lines = lines[1:]
	}

	var names []string
	for _, line := range lines {
		if strings.HasPrefix(line, "-") {
			continue
		}
		if !strings.Contains(line, "|") {
			names = append(names, line)
			continue
		}
		for _, part := range strings.Split(line, "|") {
			part = strings.TrimSpace(part)
			if part != "" && !decoration.MatchString(part) {
				names = append(names, part)
				break
			}
		}
	}
	return names
}

// ParseTableDetails reads one table response: the column table, then the
// optional "## Primary Key" bullet list and "## Foreign Keys" table. Foreign
// key edges are returned in the order they appear.
func ParseTableDetails(name, content string) (*models.Table, []models.ForeignKey, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	header := -1
	for i, line := range lines {
		if strings.Contains(line, "Column Name") && strings.Contains(line, "Data Type") {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, nil, ErrNoColumnsTable
	}

	table := &models.Table{Name: name}
	for _, line := range lines[min(header+2, len(lines)):] {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		cells, ok := row(line)
		if !ok || len(cells) < 5 {
			continue
		}
		table.Columns = append(table.Columns, models.Column{
			Name:      cells[0],
			SQLType:   cells[1],
			MaxLength: models.ParseMaxLength(cells[2]),
			Nullable:  strings.EqualFold(cells[3], "YES"),
			Default:   models.NormalizeDefault(cells[4]),
		})
	}

	var edges []models.ForeignKey
	section := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			section = strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "#")))
			continue
		}
		switch section {
		case "primary key", "primary keys":
			if item, ok := strings.CutPrefix(line, "- "); ok {
				table.PrimaryKey = append(table.PrimaryKey, strings.Trim(strings.TrimSpace(item), "`"))
			}
		case "foreign keys":
			cells, ok := row(line)
			if !ok || len(cells) < 3 || isSeparator(cells) || strings.EqualFold(cells[0], "Column") {
				continue
			}
			edges = append(edges, models.ForeignKey{
				FromTable:  name,
				FromColumn: cells[0],
				ToTable:    cells[1],
				ToColumn:   cells[2],
			})
		}
	}
	return table, edges, nil
}

// row splits a "| a | b |" line into trimmed cells, keeping empty cells in
// position.
func row(line string) ([]string, bool) {
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
		return nil, false
	}
	parts := strings.Split(line[1:len(line)-1], "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if c != "" && !decoration.MatchString(c) {
			return false
		}
	}
	return true
}
