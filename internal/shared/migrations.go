package shared

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

const (
	// ReceiptWarrantyTable is the single table owned by the schema.
	ReceiptWarrantyTable = "receipt_warranty"

	// IdentityHash fingerprints the current column layout of [ReceiptWarrantyTable].
	// Any column change must mint a new hash alongside a numbered migration.
	IdentityHash = "aa824ba839617ae1232a58c948717347"

	// legacyIdentityHash is accepted in place of IdentityHash for databases stamped by older builds.
	legacyIdentityHash = "c770b7d3e97f94d54f37bbce4daff333"

	identityTable = "schema_identity"
	identityRowID = 42
)

// Migration represents a database migration with up and down SQL.
//
// The lowest version is the baseline: it creates the schema from nothing.
// Every later version upgrades from the version before it.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations reads all migration files from the embedded filesystem and returns them sorted by version.
//
// Files are named "NNNN_description_up.sql" / "NNNN_description_down.sql".
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := migrationFiles.ReadFile(filepath.Join("sql", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version}
			byVersion[version] = m
		}

		switch {
		case strings.HasSuffix(name, "_up.sql"):
			m.Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}

	if len(migrations) == 0 {
		return nil, fmt.Errorf("no migrations found")
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// SchemaCallback hooks into schema lifecycle events. Nil fields are skipped.
type SchemaCallback struct {
	OnCreate               func(ctx context.Context, db *sql.DB)
	OnOpen                 func(ctx context.Context, db *sql.DB)
	OnDestructiveMigration func(ctx context.Context, db *sql.DB)
}

// SchemaOpts configures a [Schema].
type SchemaOpts struct {
	Logger           *log.Logger
	AllowDestructive bool // drop and recreate when no migration path exists
	Callbacks        []SchemaCallback
}

// Schema owns the lifecycle of [ReceiptWarrantyTable]: creation, identity and shape checks on open,
// upgrades through registered migrations and destructive resets.
//
// The stored schema version lives in PRAGMA user_version; the identity hash lives in a one-row metadata table.
type Schema struct {
	db               *sql.DB
	logger           *log.Logger
	allowDestructive bool
	callbacks        []SchemaCallback
	migrations       []Migration
}

// NewSchema loads the embedded migrations and returns a [Schema] bound to db.
func NewSchema(db *sql.DB, opts SchemaOpts) (*Schema, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Schema{
		db:               db,
		logger:           WithLogger(logger, "component", "schema"),
		allowDestructive: opts.AllowDestructive,
		callbacks:        opts.Callbacks,
		migrations:       migrations,
	}, nil
}

// RunMigrations opens the schema on db with default options: create when empty, upgrade when a path exists, then verify.
func RunMigrations(db *sql.DB) error {
	schema, err := NewSchema(db, SchemaOpts{})
	if err != nil {
		return err
	}
	return schema.Open(context.Background())
}

// Version is the schema version this build expects.
func (s *Schema) Version() int {
	return s.migrations[len(s.migrations)-1].Version
}

// StoredVersion reads the version recorded in the database file. 0 means the schema was never created.
func (s *Schema) StoredVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Open brings the database to [Schema.Version] and verifies it.
//
// An empty database is created. A database at another version is upgraded through registered
// migrations; without a path it is recreated when AllowDestructive is set and rejected with
// [ErrMigrationRequired] otherwise. The identity hash and the live table shape are checked on every open.
func (s *Schema) Open(ctx context.Context) error {
	stored, err := s.StoredVersion(ctx)
	if err != nil {
		return err
	}

	target := s.Version()
	switch {
	case stored == 0:
		if err := s.create(ctx); err != nil {
			return err
		}
		s.logger.Info("created schema", "version", target)
		s.notify(ctx, func(cb SchemaCallback) func(context.Context, *sql.DB) { return cb.OnCreate })
	case stored != target:
		if err := s.migrate(ctx, stored, target); err != nil {
			return err
		}
	}

	if err := s.checkIdentity(ctx); err != nil {
		return err
	}

	if err := s.Validate(ctx); err != nil {
		return err
	}

	s.logger.Debug("opened schema", "version", target)
	s.notify(ctx, func(cb SchemaCallback) func(context.Context, *sql.DB) { return cb.OnOpen })
	return nil
}

// Validate compares the live table against [ExpectedReceiptWarrantyTable].
// A difference is reported as a [*SchemaMismatchError].
func (s *Schema) Validate(ctx context.Context) error {
	found, err := ReadTableInfo(ctx, s.db, ReceiptWarrantyTable)
	if err != nil {
		return err
	}

	expected := ExpectedReceiptWarrantyTable()
	if !expected.Equal(found) {
		return &SchemaMismatchError{Expected: expected, Found: found}
	}
	return nil
}

// DropAllTables runs every down script, newest first, resets the stored version and
// then notifies OnDestructiveMigration callbacks. The next [Schema.Open] recreates the schema.
func (s *Schema) DropAllTables(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(s.migrations) - 1; i >= 0; i-- {
		if err := execScript(ctx, tx, s.migrations[i].Down); err != nil {
			return fmt.Errorf("failed to drop migration %d: %w", s.migrations[i].Version, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", identityTable)); err != nil {
		return fmt.Errorf("failed to drop identity table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "PRAGMA user_version = 0"); err != nil {
		return fmt.Errorf("failed to reset schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit drop: %w", err)
	}

	s.logger.Warn("dropped all tables")
	s.notify(ctx, func(cb SchemaCallback) func(context.Context, *sql.DB) { return cb.OnDestructiveMigration })
	return nil
}

// Reset drops and recreates the schema. Every stored record is lost.
func (s *Schema) Reset(ctx context.Context) error {
	if err := s.DropAllTables(ctx); err != nil {
		return err
	}
	if err := s.create(ctx); err != nil {
		return err
	}
	s.logger.Info("recreated schema", "version", s.Version())
	s.notify(ctx, func(cb SchemaCallback) func(context.Context, *sql.DB) { return cb.OnCreate })
	return nil
}

// create applies every migration in order, stamps the identity hash and records the version, in one transaction.
func (s *Schema) create(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range s.migrations {
		if err := execScript(ctx, tx, m.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}

	if err := stampIdentity(ctx, tx); err != nil {
		return err
	}

	if err := setVersion(ctx, tx, s.Version()); err != nil {
		return err
	}

	return tx.Commit()
}

// migrate upgrades from one stored version to another through registered migrations.
func (s *Schema) migrate(ctx context.Context, from, to int) error {
	path, ok := s.migrationPath(from, to)
	if !ok {
		if !s.allowDestructive {
			return fmt.Errorf("%w: no migration path from version %d to %d", ErrMigrationRequired, from, to)
		}
		s.logger.Warn("no migration path, recreating schema", "from", from, "to", to)
		return s.Reset(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range path {
		if err := execScript(ctx, tx, m.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
		s.logger.Info("applied migration", "version", m.Version)
	}

	if err := stampIdentity(ctx, tx); err != nil {
		return err
	}

	if err := setVersion(ctx, tx, to); err != nil {
		return err
	}

	return tx.Commit()
}

// migrationPath returns the migrations that upgrade from -> to.
//
// Only versions after the baseline count as upgrade steps, so a database older than the baseline
// or newer than this build has no path.
func (s *Schema) migrationPath(from, to int) ([]Migration, bool) {
	baseline := s.migrations[0].Version
	if from < baseline || from >= to {
		return nil, false
	}

	var path []Migration
	for _, m := range s.migrations[1:] {
		if m.Version > from && m.Version <= to {
			path = append(path, m)
		}
	}
	return path, len(path) > 0
}

// checkIdentity verifies the stored identity hash. A database without the identity table is
// validated first and stamped only when its shape matches.
func (s *Schema) checkIdentity(ctx context.Context) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)", identityTable,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check identity table: %w", err)
	}

	if !exists {
		if err := s.Validate(ctx); err != nil {
			return err
		}
		return stampIdentity(ctx, s.db)
	}

	var hash sql.NullString
	query := fmt.Sprintf("SELECT identity_hash FROM %s WHERE id = ?", identityTable)
	err = s.db.QueryRowContext(ctx, query, identityRowID).Scan(&hash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read identity hash: %w", err)
	}

	if hash.String != IdentityHash && hash.String != legacyIdentityHash {
		found := hash.String
		if found == "" {
			found = "<none>"
		}
		return fmt.Errorf("%w: expected %s, found %s", ErrIdentityMismatch, IdentityHash, found)
	}
	return nil
}

func (s *Schema) notify(ctx context.Context, pick func(SchemaCallback) func(context.Context, *sql.DB)) {
	for _, cb := range s.callbacks {
		if fn := pick(cb); fn != nil {
			fn(ctx, s.db)
		}
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func stampIdentity(ctx context.Context, ex execer) error {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, identity_hash TEXT)", identityTable)
	if _, err := ex.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create identity table: %w", err)
	}

	insert := fmt.Sprintf("INSERT OR REPLACE INTO %s (id, identity_hash) VALUES (?, ?)", identityTable)
	if _, err := ex.ExecContext(ctx, insert, identityRowID, IdentityHash); err != nil {
		return fmt.Errorf("failed to write identity hash: %w", err)
	}
	return nil
}

func setVersion(ctx context.Context, ex execer, version int) error {
	if _, err := ex.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// execScript executes each statement of a migration script separately.
func execScript(ctx context.Context, ex execer, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(removeComments(stmt))
		if stmt == "" {
			continue
		}
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// removeComments removes SQL comments from a statement.
func removeComments(sql string) string {
	lines := strings.Split(sql, "\n")
	var result []string
	for _, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
