package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

// ManifestName is the file written next to the exports summarizing the run.
const ManifestName = "export_manifest.json"

// ExportOpts contains configuration for exports.
type ExportOpts struct {
	OutputDir  string   // Base output directory (default: receipts_export_{epoch})
	Formats    []string // Any of [shared.ExportFormats] (default: csv)
	NumWorkers int      // Concurrent format writers (default: 2, capped at len(Formats))
	BaseName   string   // File name without extension (default: receipts)
	Now        int64    // Instant used for warranty status in Markdown (default: now)
}

type formatJob struct {
	index  int
	format string
}

type indexedResult struct {
	index int
	FormatResult
}

// Export takes one snapshot of every record and writes it in each requested format concurrently.
//
// A failing format does not stop the others. The manifest is written once all formats finish.
func (e *Engine) Export(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if err := e.requireReader(); err != nil {
		return nil, err
	}

	if len(opts.Formats) == 0 {
		opts.Formats = []string{"csv"}
	}
	for _, format := range opts.Formats {
		if !slices.Contains(shared.ExportFormats, format) {
			return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
		}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("receipts_export_%d", time.Now().Unix())
	}
	if opts.BaseName == "" {
		opts.BaseName = "receipts"
	}
	if opts.Now == 0 {
		opts.Now = models.NowMillis()
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > len(opts.Formats) {
		opts.NumWorkers = len(opts.Formats)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	e.sendProgress(prog, fetchingRecordsUpdate())
	items, err := e.reader.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	e.sendProgress(prog, foundRecordsUpdate(len(items)))

	result := &ExportResult{
		ItemCount:       len(items),
		OutputDirectory: opts.OutputDir,
		Results:         make([]FormatResult, len(opts.Formats)),
	}

	jobs := make(chan formatJob, len(opts.Formats))
	results := make(chan indexedResult, len(opts.Formats))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, items, opts)
	}

	for i, format := range opts.Formats {
		jobs <- formatJob{index: i, format: format}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results[res.index] = res.FormatResult

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, formatCompletedUpdate(completed, len(opts.Formats), res.FormatResult))
		} else {
			result.FailedExports++
			e.sendProgress(prog, formatFailedUpdate(completed, len(opts.Formats), res.FormatResult))
			e.logger.Warn("export format failed", "format", res.Format, "error", res.Error)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(buildManifest(result, opts.Now), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("export finished",
		"items", result.ItemCount,
		"succeeded", result.SuccessfulExports,
		"failed", result.FailedExports,
		"dir", result.OutputDirectory,
	)
	return result, nil
}

// exportWorker writes formats from the jobs channel until it closes or ctx ends.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan formatJob,
	results chan<- indexedResult,
	items []models.ReceiptWarranty,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- indexedResult{index: job.index, FormatResult: e.exportFormat(job.format, items, opts)}
	}
}

// exportFormat writes a single format into the output directory.
func (e *Engine) exportFormat(format string, items []models.ReceiptWarranty, opts ExportOpts) FormatResult {
	result := FormatResult{Format: format}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", opts.BaseName, formatter.Extension(format)))
	written, err := formatter.WriteExport(format, items, opts.Now, path)
	if err != nil {
		result.Error = err
		return result
	}

	info, err := os.Stat(written)
	if err != nil {
		result.Error = fmt.Errorf("failed to stat %s: %w", written, err)
		return result
	}

	result.Path = written
	result.Size = info.Size()
	result.Success = true
	return result
}

func buildManifest(result *ExportResult, now int64) *formatter.Manifest {
	m := &formatter.Manifest{
		RunID:             shared.GenerateID(),
		ExportedAt:        models.FromMillis(now),
		ItemCount:         result.ItemCount,
		OutputDirectory:   result.OutputDirectory,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Entries:           make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.ManifestEntry{
			Format:  res.Format,
			Path:    res.Path,
			Size:    res.Size,
			Success: res.Success,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}
