// package tasks implements long-running operations over the receipt and warranty store.
//
// The core abstraction is Engine, which orchestrates exports, imports and reminder planning.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

// FormatResult is the outcome of writing a single export format.
type FormatResult struct {
	Format  string // Export format name
	Path    string // Written file (empty on failure)
	Size    int64  // File size in bytes
	Success bool
	Error   error
}

// ExportResult contains all data from an export run.
type ExportResult struct {
	ItemCount         int            // Records in the snapshot
	OutputDirectory   string         // Directory holding every written file
	Results           []FormatResult // One entry per requested format, in request order
	SuccessfulExports int
	FailedExports     int
	ManifestPath      string // export_manifest.json (empty if it could not be written)
}

// ImportFailure records a parsed item that could not be stored.
type ImportFailure struct {
	Index int    // Position in the input file
	Title string // Title as read
	Error error
}

// ImportResult contains the counts from an import run.
type ImportResult struct {
	Parsed   int             // Items read from the file
	Imported int             // Items inserted
	Skipped  int             // Items already present (same title, company and purchase date)
	Failed   []ImportFailure // Items rejected by validation or the store
}

// Importer is the slice of the store an import needs.
type Importer interface {
	FindByUniqueFields(ctx context.Context, title, company string, purchaseDate *int64) (*models.ReceiptWarranty, error)
	Insert(ctx context.Context, r *models.ReceiptWarranty) (int64, error)
}

// Engine runs export, import and reminder operations against a store.
type Engine struct {
	reader   models.Reader
	importer Importer
	logger   *log.Logger
}

// NewEngine creates a new Engine. importer may be nil for read-only use.
func NewEngine(reader models.Reader, importer Importer, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{reader: reader, importer: importer, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) requireReader() error {
	if e.reader == nil {
		return fmt.Errorf("%w: record reader not initialized", shared.ErrMissingArgument)
	}
	return nil
}
