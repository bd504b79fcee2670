package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/receipts/internal/shared"
	"github.com/desertthunder/receipts/internal/tasks"
	"github.com/desertthunder/receipts/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing records.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.TUIPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.open(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.repo, r.engine, ui.Opts{
		Threshold: r.config.Thresholds.ExpiringSoon(),
		Export: tasks.ExportOpts{
			OutputDir:  r.config.Export.OutputDir,
			Formats:    r.config.Export.Formats,
			NumWorkers: r.config.Export.Workers,
		},
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse receipts and warranties interactively",
		Action: r.TUI,
	}
}
