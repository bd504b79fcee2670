package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/receipts/internal/shared"
	"github.com/desertthunder/receipts/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes every record to the output directory in each requested format, plus a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ExportOpts{
		OutputDir:  r.config.Export.OutputDir,
		Formats:    r.config.Export.Formats,
		NumWorkers: r.config.Export.Workers,
		Now:        r.now(),
	}
	if cmd.IsSet("format") {
		opts.Formats = cmd.StringSlice("format")
	}
	if cmd.IsSet("output") {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	progress, done := r.printProgress(cmd.Bool("quiet"))
	result, err := r.engine.Export(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainln("Exported %d records to %s", result.ItemCount, result.OutputDirectory)
	for _, res := range result.Results {
		if res.Success {
			r.writePlain("  ✓ %-8s %s (%d bytes)\n", res.Format, res.Path, res.Size)
		} else {
			r.writePlain("  ✗ %-8s %v\n", res.Format, res.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		return fmt.Errorf("%d of %d formats failed", result.FailedExports, len(result.Results))
	}
	return nil
}

// Import reads records from a JSON or YAML export and stores the ones not already present.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a .json or .yaml export", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	if err := r.open(ctx); err != nil {
		return err
	}

	progress, done := r.printProgress(cmd.Bool("quiet"))
	result, err := r.engine.Import(ctx, progress, path, f)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("Parsed %d, imported %d, skipped %d, failed %d\n",
		result.Parsed, result.Imported, result.Skipped, len(result.Failed))
	for _, failure := range result.Failed {
		r.writePlain("  ✗ #%d %q: %v\n", failure.Index, failure.Title, failure.Error)
	}
	return nil
}

// printProgress drains a progress channel onto the output until it is closed, then closes done.
func (r *Runner) printProgress(quiet bool) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if quiet {
				continue
			}
			if update.Total > 0 {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	return progress, done
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every record to files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "csv, json, yaml, markdown or txt; repeatable (default: export.formats)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: export.output_dir or receipts_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Formats written concurrently (default: export.workers)",
			},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide progress"},
			&cli.BoolFlag{Name: "json", Usage: "Output the result as JSON"},
		},
		Action: r.Export,
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import records from a JSON or YAML export",
		ArgsUsage: "<path>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide progress"},
			&cli.BoolFlag{Name: "json", Usage: "Output the result as JSON"},
		},
		Action: r.Import,
	}
}
