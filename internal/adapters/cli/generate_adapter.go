// Package cli contains the console adapters that translate CLI operations to
// service calls and present the results.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/example/modelgen/internal/ports/primary"
)

// GenerateAdapter is a thin adapter that translates CLI operations to GenerateService calls.
// It depends only on the GenerateService interface, enabling easy testing with mocks.
type GenerateAdapter struct {
	service primary.GenerateService
	out     io.Writer
	quiet   bool
	spin    bool
}

// NewGenerateAdapter creates a new GenerateAdapter with the given service.
// The spinner is shown on stderr only when stderr is a terminal.
func NewGenerateAdapter(service primary.GenerateService, out io.Writer, quiet bool) *GenerateAdapter {
	return &GenerateAdapter{
		service: service,
		out:     out,
		quiet:   quiet,
		spin:    !quiet && isTerminal(os.Stderr),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Generate runs a generation and reports each table.
func (a *GenerateAdapter) Generate(ctx context.Context, req primary.GenerateRequest, outputDir string) (*primary.GenerateResponse, error) {
	stop := a.startSpinner("Reading schema...")
	resp, err := a.service.Generate(ctx, req)
	stop()
	if err != nil && resp == nil {
		return nil, err
	}

	ok := color.New(color.FgGreen).Sprint("✓")
	fail := color.New(color.FgRed).Sprint("✗")

	for _, res := range resp.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(a.out, "%s %s: %v\n", fail, res.Table, res.Err)
		case req.DryRun:
			if !a.quiet {
				fmt.Fprintln(a.out, color.New(color.FgCyan).Sprintf("--- %s (%s) ---", res.FileName, res.Table))
				fmt.Fprintln(a.out, res.Content)
			}
		default:
			if !a.quiet {
				fmt.Fprintf(a.out, "%s Generated model: %s\n", ok, res.Model)
			}
		}
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Generated %d of %d models\n", resp.Generated(), len(resp.Results))
	if !req.DryRun {
		fmt.Fprintf(a.out, "Output directory: %s\n", outputDir)
	}
	if resp.ManifestPath != "" {
		fmt.Fprintf(a.out, "Manifest: %s\n", resp.ManifestPath)
	}

	return resp, err
}

// ListTables prints the tables that would be generated.
func (a *GenerateAdapter) ListTables(ctx context.Context) ([]string, error) {
	stop := a.startSpinner("Listing tables...")
	tables, err := a.service.ListTables(ctx)
	stop()
	if err != nil {
		return nil, err
	}

	if len(tables) == 0 {
		fmt.Fprintln(a.out, "No tables found.")
		return tables, nil
	}

	for _, t := range tables {
		fmt.Fprintln(a.out, t)
	}
	if !a.quiet {
		fmt.Fprintf(a.out, "\n%d tables\n", len(tables))
	}
	return tables, nil
}

// Show prints one rendered model.
func (a *GenerateAdapter) Show(ctx context.Context, table string) (*primary.ModelPreview, error) {
	preview, err := a.service.RenderModel(ctx, table)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(a.out, preview.Content)
	return preview, nil
}

// DumpSchema prints the described schema as a Go value dump for debugging
// a source adapter, followed by a table of the relationships.
func (a *GenerateAdapter) DumpSchema(ctx context.Context, tables []string) (*primary.Schema, error) {
	stop := a.startSpinner("Reading schema...")
	schema, err := a.service.LoadSchema(ctx, tables)
	stop()
	if err != nil {
		return nil, err
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	cfg.Fdump(a.out, schema.Tables)

	if len(schema.Edges) > 0 {
		fmt.Fprintln(a.out)
		w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CHILD\tCOLUMN\tPARENT\tCOLUMN")
		fmt.Fprintln(w, "-----\t------\t------\t------")
		for _, e := range schema.Edges {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.FromTable, e.FromColumn, e.ToTable, e.ToColumn)
		}
		w.Flush()
	}
	return schema, nil
}

func (a *GenerateAdapter) startSpinner(suffix string) func() {
	if !a.spin {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
