package model

import (
	"bytes"
	"fmt"
	"regexp"
	"sync"
	"text/template"

	"github.com/example/modelgen/internal/models"
	modeltmpl "github.com/example/modelgen/internal/templates/model"
)

// Extension is the file extension of generated components.
const Extension = ".cfc"

// Model is one rendered component.
type Model struct {
	Name      string
	Table     string
	FileStem  string
	Extension string
	Content   string
}

// FileName returns the suggested file name of the component.
func (m *Model) FileName() string {
	return m.FileStem + m.Extension
}

var (
	parsedOnce sync.Once
	parsed     *template.Template
	parseErr   error
)

func modelTemplate() (*template.Template, error) {
	parsedOnce.Do(func() {
		content, err := modeltmpl.GetModelTemplate()
		if err != nil {
			parseErr = fmt.Errorf("failed to load model template: %w", err)
			return
		}
		parsed, parseErr = template.New("model").Funcs(modeltmpl.TemplateFuncs()).Parse(content)
		if parseErr != nil {
			parseErr = fmt.Errorf("failed to parse model template: %w", parseErr)
		}
	})
	return parsed, parseErr
}

// Render renders a planned definition to component source.
func Render(def *Definition) (string, error) {
	tmpl, err := modelTemplate()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, def); err != nil {
		return "", fmt.Errorf("failed to render model %s: %w", def.ModelName, err)
	}
	return buf.String(), nil
}

// Synthesize plans and renders the model for table.
func Synthesize(table *models.Table, graph *models.Graph, opts Options) (*Model, error) {
	def, err := Plan(table, graph, opts)
	if err != nil {
		return nil, err
	}

	content, err := Render(def)
	if err != nil {
		return nil, err
	}

	return &Model{
		Name:      def.ModelName,
		Table:     def.Table,
		FileStem:  def.ModelName,
		Extension: Extension,
		Content:   content,
	}, nil
}

var dateLine = regexp.MustCompile(`(?m)^ \* Date: .*\n`)

// StripTimestamp removes the informational Date line from the header.
func StripTimestamp(content string) string {
	return dateLine.ReplaceAllString(content, "")
}
