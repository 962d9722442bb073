package primary

import (
	"context"
	"time"

	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/models"
)

// GenerateService defines the primary port for model generation.
type GenerateService interface {
	// ListTables returns the tables the source reports, minus exclusions.
	ListTables(ctx context.Context) ([]string, error)

	// LoadSchema describes the requested tables and the foreign key graph.
	LoadSchema(ctx context.Context, tables []string) (*Schema, error)

	// RenderModel renders a single table without writing it.
	RenderModel(ctx context.Context, table string) (*ModelPreview, error)

	// Generate renders and writes models for a batch of tables.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest contains parameters for a generation run.
type GenerateRequest struct {
	Tables   []string // empty means every table the source reports
	Exclude  []string // merged with the configured exclusions
	DryRun   bool
	Manifest bool
	Workers  int
}

// GenerateResponse contains the result of a generation run.
type GenerateResponse struct {
	RunID        string
	GeneratedAt  time.Time
	Results      []TableResult
	ManifestPath string
}

// Generated returns the number of tables that produced a model.
func (r *GenerateResponse) Generated() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results that did not produce a model.
func (r *GenerateResponse) Failed() []TableResult {
	var failed []TableResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// TableResult is the outcome of generating one table.
type TableResult struct {
	Table    string
	Model    string
	FileName string
	Path     string // empty on dry runs
	Content  string
	Err      error
}

// ModelPreview is a rendered model returned for display.
type ModelPreview struct {
	Table      string            `json:"table"`
	Model      string            `json:"model"`
	FileName   string            `json:"file_name"`
	Content    string            `json:"content"`
	Definition *model.Definition `json:"definition"`
}

// Schema is the described subset of a schema.
type Schema struct {
	Tables []*models.Table     `json:"tables"`
	Edges  []models.ForeignKey `json:"foreign_keys"`
}
