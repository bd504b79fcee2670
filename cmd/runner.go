package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/repositories"
	"github.com/desertthunder/receipts/internal/shared"
	"github.com/desertthunder/receipts/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database is opened lazily by the first command that needs it and stays open until [Runner.Close].
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	now        func() int64
	db         *sql.DB
	schema     *shared.Schema
	tracker    *live.Tracker
	repo       *repositories.ReceiptWarrantyRepository
	engine     *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Now        func() int64 // Clock used for status and expiry windows (default: wall clock)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = models.NowMillis
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand,
		addCommand, updateCommand, getCommand, deleteCommand,
		listCommand, companiesCommand, categoriesCommand,
		statsCommand, expiringCommand, remindersCommand,
		exportCommand, importCommand,
		watchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command. A fresh tree is built per run.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "receipts",
		Usage:    "Track receipts and warranties",
		Version:  "0.1.0",
		Writer:   r.output,
		Commands: r.register(),
	}
}

// open connects to the configured database and brings its schema up to date.
func (r *Runner) open(ctx context.Context) error {
	if r.repo != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	if r.config.Database.Path != shared.MemoryPath {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	schema, err := shared.NewSchema(db, shared.SchemaOpts{
		Logger:           r.logger,
		AllowDestructive: r.config.Database.AllowDestructive,
		Callbacks: []shared.SchemaCallback{{
			OnDestructiveMigration: func(ctx context.Context, db *sql.DB) {
				r.logger.Warn("database was recreated; previous records are gone", "path", r.config.Database.Path)
			},
		}},
	})
	if err != nil {
		db.Close()
		return err
	}

	if err := schema.Open(ctx); err != nil {
		db.Close()
		if errors.Is(err, shared.ErrMigrationRequired) {
			return fmt.Errorf("%w (set database.allow_destructive or run 'receipts setup reset')", err)
		}
		return err
	}

	r.db = db
	r.schema = schema
	r.tracker = live.NewTracker(live.TrackerOpts{
		Logger:              r.logger,
		MaxRefreshPerSecond: r.config.Live.MaxRefreshPerSecond,
	})
	r.repo = repositories.NewReceiptWarrantyRepository(db, r.tracker, r.logger)
	r.engine = tasks.NewEngine(r.repo, r.repo, r.logger)
	return nil
}

// Close releases the database. Safe to call when nothing was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.schema, r.tracker, r.repo, r.engine = nil, nil, nil, nil, nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
