package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/primary"
	"github.com/example/modelgen/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockSchemaSource implements secondary.SchemaSource for testing.
type mockSchemaSource struct {
	mu          sync.Mutex
	order       []string
	tables      map[string]*models.Table
	edges       []models.ForeignKey
	listErr     error
	fkErr       error
	describeErr map[string]error
	described   []string
}

func newMockSchemaSource() *mockSchemaSource {
	return &mockSchemaSource{
		tables:      make(map[string]*models.Table),
		describeErr: make(map[string]error),
	}
}

func (m *mockSchemaSource) add(table *models.Table) {
	m.order = append(m.order, table.Name)
	m.tables[table.Name] = table
}

func (m *mockSchemaSource) ListTables(ctx context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.order...), nil
}

func (m *mockSchemaSource) DescribeTable(ctx context.Context, name string) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.described = append(m.described, name)
	if err := m.describeErr[name]; err != nil {
		return nil, err
	}
	table, ok := m.tables[name]
	if !ok {
		return nil, secondary.ErrTableNotFound
	}
	return table, nil
}

func (m *mockSchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	if m.fkErr != nil {
		return nil, m.fkErr
	}
	return m.edges, nil
}

func (m *mockSchemaSource) Close() error { return nil }

// mockModelWriter implements secondary.ModelWriter for testing.
type mockModelWriter struct {
	files       map[string]string
	manifest    *secondary.Manifest
	writeErr    map[string]error
	manifestErr error
}

func newMockModelWriter() *mockModelWriter {
	return &mockModelWriter{files: make(map[string]string), writeErr: make(map[string]error)}
}

func (m *mockModelWriter) WriteModel(ctx context.Context, stem, ext, content string) (string, error) {
	if err := m.writeErr[stem]; err != nil {
		return "", err
	}
	path := "out/" + stem + ext
	m.files[path] = content
	return path, nil
}

func (m *mockModelWriter) WriteManifest(ctx context.Context, manifest *secondary.Manifest) (string, error) {
	if m.manifestErr != nil {
		return "", m.manifestErr
	}
	m.manifest = manifest
	return "out/manifest.json", nil
}

// ============================================================================
// Fixtures
// ============================================================================

func regionSchema() *mockSchemaSource {
	src := newMockSchemaSource()
	src.add(&models.Table{Name: "Regions", Columns: []models.Column{
		{Name: "Id", SQLType: "int"},
		{Name: "Name", SQLType: "nvarchar"},
	}, PrimaryKey: []string{"Id"}})
	src.add(&models.Table{Name: "Clusters", Columns: []models.Column{
		{Name: "Id", SQLType: "int"},
		{Name: "RegionId", SQLType: "int"},
	}, PrimaryKey: []string{"Id"}})
	src.add(&models.Table{Name: "sysdiagrams", Columns: []models.Column{{Name: "diagram_id", SQLType: "int"}}})
	src.edges = []models.ForeignKey{
		{FromTable: "Clusters", FromColumn: "RegionId", ToTable: "Regions", ToColumn: "Id"},
	}
	return src
}

func newTestService(src *mockSchemaSource, w *mockModelWriter) *GenerateServiceImpl {
	svc := NewGenerateService(src, w, model.Options{}, GenerateConfig{
		Exclude:    []string{"SysDiagrams"},
		Workers:    2,
		SourceName: "mock",
	})
	svc.newRunID = func() string { return "run-1" }
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return svc
}

// ============================================================================
// Tests
// ============================================================================

func TestListTablesAppliesExclusions(t *testing.T) {
	svc := newTestService(regionSchema(), newMockModelWriter())

	tables, err := svc.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Regions", "Clusters"}, tables)
}

func TestListTablesError(t *testing.T) {
	src := regionSchema()
	src.listErr = errors.New("connection refused")
	svc := newTestService(src, newMockModelWriter())

	_, err := svc.ListTables(context.Background())
	assert.ErrorContains(t, err, "failed to list tables")
}

func TestGenerateWritesEveryModel(t *testing.T) {
	src := regionSchema()
	w := newMockModelWriter()
	svc := newTestService(src, w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{Manifest: true})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 2, resp.Generated())
	assert.Empty(t, resp.Failed())
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Regions", resp.Results[0].Table)
	assert.Equal(t, "Region", resp.Results[0].Model)
	assert.Equal(t, "out/Region.cfc", resp.Results[0].Path)
	assert.Equal(t, "Clusters", resp.Results[1].Table)

	assert.Contains(t, w.files["out/Region.cfc"], `hasMany("clusters", foreignKey="RegionId");`)
	assert.Contains(t, w.files["out/Cluster.cfc"], `belongsTo("region", foreignKey="RegionId");`)
	assert.Contains(t, w.files["out/Cluster.cfc"], " * Date: 2024-05-06T07:08:09.000Z\n")
	assert.NotContains(t, src.described, "sysdiagrams")

	require.NotNil(t, w.manifest)
	assert.Equal(t, "out/manifest.json", resp.ManifestPath)
	assert.Equal(t, "run-1", w.manifest.RunID)
	assert.Equal(t, "mock", w.manifest.Source)
	assert.Equal(t, "2024-05-06T07:08:09Z", w.manifest.GeneratedAt)
	assert.Equal(t, []secondary.ManifestEntry{
		{Table: "Regions", Model: "Region", File: "Region.cfc"},
		{Table: "Clusters", Model: "Cluster", File: "Cluster.cfc"},
	}, w.manifest.Models)
}

func TestGenerateExplicitTables(t *testing.T) {
	src := regionSchema()
	w := newMockModelWriter()
	svc := newTestService(src, w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{
		Tables: []string{"Clusters", "Clusters", " "},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Cluster", resp.Results[0].Model)
	assert.Len(t, w.files, 1)
}

func TestGenerateRequestExclusions(t *testing.T) {
	svc := newTestService(regionSchema(), newMockModelWriter())

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{Exclude: []string{"regions"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Clusters", resp.Results[0].Table)
}

func TestGenerateNoTables(t *testing.T) {
	src := newMockSchemaSource()
	svc := newTestService(src, newMockModelWriter())

	_, err := svc.Generate(context.Background(), primary.GenerateRequest{})
	assert.True(t, errors.Is(err, ErrNoTables))

	_, err = svc.Generate(context.Background(), primary.GenerateRequest{Tables: []string{"sysdiagrams"}})
	assert.True(t, errors.Is(err, ErrNoTables))
}

func TestGenerateContinuesPastFailures(t *testing.T) {
	src := regionSchema()
	src.add(&models.Table{Name: "Empties"})
	src.describeErr["Regions"] = errors.New("timeout")
	w := newMockModelWriter()
	svc := newTestService(src, w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{
		Tables: []string{"Regions", "Clusters", "Empties", "Missing"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, 1, resp.Generated())

	byTable := map[string]primary.TableResult{}
	for _, r := range resp.Results {
		byTable[r.Table] = r
	}
	assert.ErrorContains(t, byTable["Regions"].Err, "timeout")
	assert.NoError(t, byTable["Clusters"].Err)
	assert.True(t, errors.Is(byTable["Empties"].Err, model.ErrNoColumns))
	assert.True(t, errors.Is(byTable["Missing"].Err, secondary.ErrTableNotFound))
	assert.Len(t, w.files, 1)
	assert.Equal(t, []string{"Regions", "Clusters", "Empties", "Missing"}, []string{
		resp.Results[0].Table, resp.Results[1].Table, resp.Results[2].Table, resp.Results[3].Table,
	})
}

func TestGenerateWriteFailure(t *testing.T) {
	src := regionSchema()
	w := newMockModelWriter()
	w.writeErr["Region"] = errors.New("disk full")
	svc := newTestService(src, w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Generated())
	assert.ErrorContains(t, resp.Results[0].Err, "disk full")
}

func TestGenerateDryRunSkipsWriter(t *testing.T) {
	w := newMockModelWriter()
	svc := newTestService(regionSchema(), w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{DryRun: true, Manifest: true})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Generated())
	assert.Empty(t, w.files)
	assert.Nil(t, w.manifest)
	assert.Empty(t, resp.Results[0].Path)
	assert.True(t, strings.HasPrefix(resp.Results[0].Content, "/**\n * Model: Region\n"))
}

func TestGenerateDetectsStemCollision(t *testing.T) {
	src := newMockSchemaSource()
	src.add(&models.Table{Name: "Regions", Columns: []models.Column{{Name: "Id", SQLType: "int"}}})
	src.add(&models.Table{Name: "Region", Columns: []models.Column{{Name: "Id", SQLType: "int"}}})
	w := newMockModelWriter()
	svc := newTestService(src, w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{})
	require.NoError(t, err)
	assert.NoError(t, resp.Results[0].Err)
	assert.ErrorContains(t, resp.Results[1].Err, "collides with table Regions")
	assert.Len(t, w.files, 1)
}

func TestGenerateForeignKeyFailureAbortsRun(t *testing.T) {
	src := regionSchema()
	src.fkErr = errors.New("permission denied")
	svc := newTestService(src, newMockModelWriter())

	_, err := svc.Generate(context.Background(), primary.GenerateRequest{})
	assert.ErrorContains(t, err, "failed to read foreign keys")
}

func TestGenerateManifestFailure(t *testing.T) {
	w := newMockModelWriter()
	w.manifestErr = errors.New("read-only")
	svc := newTestService(regionSchema(), w)

	resp, err := svc.Generate(context.Background(), primary.GenerateRequest{Manifest: true})
	assert.ErrorContains(t, err, "failed to write manifest")
	require.NotNil(t, resp)
	assert.Equal(t, 2, resp.Generated())
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(regionSchema(), newMockModelWriter())

	_, err := svc.Generate(ctx, primary.GenerateRequest{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRenderModel(t *testing.T) {
	svc := newTestService(regionSchema(), nil)

	preview, err := svc.RenderModel(context.Background(), "Regions")
	require.NoError(t, err)
	assert.Equal(t, "Region", preview.Model)
	assert.Equal(t, "Region.cfc", preview.FileName)
	require.Len(t, preview.Definition.HasMany, 1)
	assert.Equal(t, "clusters", preview.Definition.HasMany[0].Name)
	assert.Contains(t, preview.Content, `table("Regions");`)

	_, err = svc.RenderModel(context.Background(), "Nope")
	assert.True(t, errors.Is(err, secondary.ErrTableNotFound))
}

func TestLoadSchema(t *testing.T) {
	svc := newTestService(regionSchema(), nil)

	schema, err := svc.LoadSchema(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Regions", "Clusters"}, models.TableNames(derefTables(schema.Tables)))
	assert.Len(t, schema.Edges, 1)
}

func derefTables(tables []*models.Table) []models.Table {
	out := make([]models.Table, len(tables))
	for i, t := range tables {
		out[i] = *t
	}
	return out
}
