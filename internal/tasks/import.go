package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

// Import reads a JSON or YAML export and inserts every record not already stored.
//
// A record counts as already stored when title, company and purchase date match an existing row.
// Imported records get fresh ids; a missing createdAt is set to now.
func (e *Engine) Import(ctx context.Context, prog chan<- ProgressUpdate, path string, r io.Reader) (*ImportResult, error) {
	if e.importer == nil {
		return nil, fmt.Errorf("%w: importer not initialized", shared.ErrMissingArgument)
	}

	e.sendProgress(prog, parseInputUpdate(path))
	items, err := formatter.ParseFile(path, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Parsed: len(items)}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import cancelled: %w", err)
		}

		item := items[i]
		outcome, err := e.importOne(ctx, &item)
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Index: i, Title: item.Title, Error: err})
			e.logger.Warn("import item failed", "index", i, "title", item.Title, "error", err)
			e.sendProgress(prog, importItemUpdate(i+1, len(items), item.Title, "failed"))
			continue
		}

		switch outcome {
		case "skipped":
			result.Skipped++
		case "imported":
			result.Imported++
		}
		e.sendProgress(prog, importItemUpdate(i+1, len(items), item.Title, outcome))
	}

	e.logger.Info("import finished",
		"path", path,
		"parsed", result.Parsed,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (e *Engine) importOne(ctx context.Context, item *models.ReceiptWarranty) (string, error) {
	item.ID = 0
	if item.CreatedAt == 0 {
		item.CreatedAt = models.NowMillis()
	}
	if err := item.Validate(); err != nil {
		return "", err
	}

	existing, err := e.importer.FindByUniqueFields(ctx, item.Title, item.Company, item.PurchaseDate)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "skipped", nil
	}

	if _, err := e.importer.Insert(ctx, item); err != nil {
		return "", err
	}
	return "imported", nil
}
