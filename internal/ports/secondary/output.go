package secondary

import "context"

// ModelWriter defines the secondary port for persisting generated models.
type ModelWriter interface {
	// WriteModel stores content under stem+ext and returns the written path.
	WriteModel(ctx context.Context, stem, ext, content string) (string, error)

	// WriteManifest stores the run manifest and returns the written path.
	WriteManifest(ctx context.Context, manifest *Manifest) (string, error)
}

// Manifest records what a generation run produced.
type Manifest struct {
	RunID       string          `json:"run_id"`
	GeneratedAt string          `json:"generated_at"`
	Source      string          `json:"source"`
	Models      []ManifestEntry `json:"models"`
}

// ManifestEntry is one table of the manifest.
type ManifestEntry struct {
	Table string `json:"table"`
	Model string `json:"model,omitempty"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`
}
