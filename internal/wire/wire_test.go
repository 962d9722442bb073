package wire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/logging"
	"github.com/example/modelgen/internal/ports/primary"
)

const schemaYAML = `
tables:
  - name: Regions
    primaryKey: [RegionId]
    columns:
      - {name: RegionId, type: int}
      - {name: Name, type: nvarchar, length: 100}
`

func TestNewSchemaSource_UnknownKind(t *testing.T) {
	_, err := NewSchemaSource(context.Background(), config.SourceConfig{Kind: "oracle"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewSchemaSource_MissingPath(t *testing.T) {
	_, err := NewSchemaSource(context.Background(), config.SourceConfig{
		Kind: config.SourceMarkdown,
		Path: filepath.Join(t.TempDir(), "missing"),
	})
	assert.Error(t, err)
}

func TestNewApp_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o644))

	cfg := &config.Config{
		Source: config.SourceConfig{Kind: config.SourceSchemaFile, Path: path},
		Output: config.OutputConfig{Dir: filepath.Join(dir, "models")},
		Generation: config.GenerationConfig{
			Workers:   2,
			Generator: "Test Generator",
		},
	}

	a, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.Service.Generate(context.Background(), primary.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Generated())

	_, err = os.Stat(filepath.Join(dir, "models", "Region.cfc"))
	assert.NoError(t, err)
}
