package formatter

import (
	"fmt"
	"os"
	"time"
)

// ManifestEntry records the outcome of writing one export format.
type ManifestEntry struct {
	Format  string `json:"format"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Manifest summarizes one export run.
type Manifest struct {
	RunID             string          `json:"run_id"`
	ExportedAt        time.Time       `json:"exported_at"`
	ItemCount         int             `json:"item_count"`
	OutputDirectory   string          `json:"output_directory"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Entries           []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
