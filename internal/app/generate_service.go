package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/ctxutil"
	"github.com/example/modelgen/internal/logging"
	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/primary"
	"github.com/example/modelgen/internal/ports/secondary"
)

// ErrNoTables is returned when no table is left to generate after exclusions.
var ErrNoTables = errors.New("no tables to generate")

// DefaultWorkers bounds concurrent table descriptions when none is configured.
const DefaultWorkers = 4

// GenerateConfig configures the generation service.
type GenerateConfig struct {
	Exclude    []string // table names skipped case-insensitively
	Workers    int
	SourceName string // recorded in the manifest
	Logger     logrus.FieldLogger
}

// GenerateServiceImpl implements the GenerateService interface.
type GenerateServiceImpl struct {
	source   secondary.SchemaSource
	writer   secondary.ModelWriter
	opts     model.Options
	cfg      GenerateConfig
	logger   logrus.FieldLogger
	newRunID func() string
	now      func() time.Time
}

// NewGenerateService creates a new GenerateService with injected dependencies.
// writer may be nil when the service is only used for previews.
func NewGenerateService(source secondary.SchemaSource, writer secondary.ModelWriter, opts model.Options, cfg GenerateConfig) *GenerateServiceImpl {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &GenerateServiceImpl{
		source:   source,
		writer:   writer,
		opts:     opts,
		cfg:      cfg,
		logger:   logger,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// ListTables returns the tables the source reports, minus exclusions.
func (s *GenerateServiceImpl) ListTables(ctx context.Context) ([]string, error) {
	names, err := s.source.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return filterExcluded(names, s.cfg.Exclude), nil
}

// LoadSchema describes the requested tables, or every table when none is
// given, together with the foreign key graph.
func (s *GenerateServiceImpl) LoadSchema(ctx context.Context, tables []string) (*primary.Schema, error) {
	names, err := s.resolveTables(ctx, tables, nil)
	if err != nil {
		return nil, err
	}

	schema := &primary.Schema{}
	for _, name := range names {
		table, err := s.source.DescribeTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, table)
	}

	schema.Edges, err = s.source.ForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	return schema, nil
}

// RenderModel renders one table without writing it.
func (s *GenerateServiceImpl) RenderModel(ctx context.Context, name string) (*primary.ModelPreview, error) {
	table, err := s.source.DescribeTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}

	graph, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}

	def, err := model.Plan(table, graph, s.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to plan model for %s: %w", name, err)
	}
	content, err := model.Render(def)
	if err != nil {
		return nil, err
	}

	return &primary.ModelPreview{
		Table:      def.Table,
		Model:      def.ModelName,
		FileName:   def.ModelName + model.Extension,
		Content:    content,
		Definition: def,
	}, nil
}

// Generate renders and writes models for a batch of tables. Tables are
// described and synthesized concurrently; a table that fails is recorded in
// its result and does not stop the others.
func (s *GenerateServiceImpl) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	runID := s.newRunID()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := logging.FromContext(ctx, s.logger)

	names, err := s.resolveTables(ctx, req.Tables, req.Exclude)
	if err != nil {
		return nil, err
	}

	graph, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}

	// Every model of a run carries the same header timestamp.
	startedAt := s.now()
	opts := s.opts
	if opts.Now == nil {
		opts.Now = func() time.Time { return startedAt }
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.cfg.Workers
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	log.WithFields(logrus.Fields{"tables": len(names), "edges": graph.Len(), "workers": workers}).
		Info("generating models")

	synthesized := make([]*model.Model, len(names))
	results := make([]primary.TableResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		results[i].Table = name
		g.Go(func() error {
			m, err := s.synthesize(gctx, name, graph, opts)
			if err != nil {
				results[i].Err = err
				return nil
			}
			synthesized[i] = m
			return nil
		})
	}
	// Per-table errors live in results; the group itself never fails.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stems := make(map[string]string)
	for i, m := range synthesized {
		if m == nil {
			continue
		}
		results[i].Model = m.Name
		results[i].FileName = m.FileName()
		results[i].Content = m.Content

		key := strings.ToLower(m.FileName())
		if other, dup := stems[key]; dup {
			results[i].Err = fmt.Errorf("model %s of table %s collides with table %s", m.Name, m.Table, other)
			continue
		}
		stems[key] = m.Table

		if req.DryRun || s.writer == nil {
			continue
		}
		path, err := s.writer.WriteModel(ctx, m.FileStem, m.Extension, m.Content)
		if err != nil {
			results[i].Err = fmt.Errorf("failed to write model %s: %w", m.Name, err)
			continue
		}
		results[i].Path = path
	}

	resp := &primary.GenerateResponse{
		RunID:       runID,
		GeneratedAt: startedAt,
		Results:     results,
	}

	for _, res := range resp.Failed() {
		log.WithField("table", res.Table).WithError(res.Err).Warn("model not generated")
	}
	log.WithFields(logrus.Fields{"generated": resp.Generated(), "total": len(results)}).Info("generation finished")

	if req.Manifest && !req.DryRun && s.writer != nil {
		path, err := s.writer.WriteManifest(ctx, s.manifest(resp))
		if err != nil {
			return resp, fmt.Errorf("failed to write manifest: %w", err)
		}
		resp.ManifestPath = path
	}

	return resp, nil
}

func (s *GenerateServiceImpl) synthesize(ctx context.Context, name string, graph *models.Graph, opts model.Options) (*model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = ctxutil.WithTable(ctx, name)

	table, err := s.source.DescribeTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	logging.FromContext(ctx, s.logger).WithField("columns", len(table.Columns)).Debug("described table")

	m, err := model.Synthesize(table, graph, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize %s: %w", name, err)
	}
	return m, nil
}

// resolveTables returns the explicit table list or the source's list, with
// configured and per-request exclusions removed.
func (s *GenerateServiceImpl) resolveTables(ctx context.Context, tables, exclude []string) ([]string, error) {
	names := tables
	if len(names) == 0 {
		var err error
		names, err = s.source.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
	}

	excluded := append(append([]string(nil), s.cfg.Exclude...), exclude...)
	names = filterExcluded(dedupe(names), excluded)
	if len(names) == 0 {
		return nil, ErrNoTables
	}
	return names, nil
}

// loadGraph reads the foreign key edges once per call.
func (s *GenerateServiceImpl) loadGraph(ctx context.Context) (*models.Graph, error) {
	edges, err := s.source.ForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	return models.NewGraph(edges), nil
}

func (s *GenerateServiceImpl) manifest(resp *primary.GenerateResponse) *secondary.Manifest {
	m := &secondary.Manifest{
		RunID:       resp.RunID,
		GeneratedAt: resp.GeneratedAt.UTC().Format(time.RFC3339),
		Source:      s.cfg.SourceName,
	}
	for _, res := range resp.Results {
		entry := secondary.ManifestEntry{Table: res.Table, Model: res.Model, File: res.FileName}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		m.Models = append(m.Models, entry)
	}
	return m
}

func filterExcluded(names, excluded []string) []string {
	var out []string
	for _, name := range names {
		skip := false
		for _, ex := range excluded {
			if models.EqualFold(name, ex) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, name)
		}
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
