package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertRow(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("INSERT INTO receipt_warranty (type, title, company, createdAt) VALUES ('RECEIPT', 'Laptop', 'Acme', 1)")
	if err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}
}

func rowCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM receipt_warranty").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		got := removeComments("-- header\nCREATE TABLE t (id INTEGER) -- trailing\n\n")
		if got != "CREATE TABLE t (id INTEGER)" {
			t.Errorf("unexpected result: %q", got)
		}
	})

	t.Run("RunMigrations creates schema", func(t *testing.T) {
		db := openMemory(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var version int
		if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 2 {
			t.Errorf("expected version 2, got %d", version)
		}

		var hash string
		err := db.QueryRow("SELECT identity_hash FROM schema_identity WHERE id = 42").Scan(&hash)
		if err != nil {
			t.Fatalf("failed to read identity hash: %v", err)
		}
		if hash != IdentityHash {
			t.Errorf("expected hash %s, got %s", IdentityHash, hash)
		}

		if rowCount(t, db) != 0 {
			t.Error("new table should be empty")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db := openMemory(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		insertRow(t, db)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		if rowCount(t, db) != 1 {
			t.Error("reopening should keep existing rows")
		}
	})
}

func TestSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("Callbacks", func(t *testing.T) {
		db := openMemory(t)
		var created, opened int
		opts := SchemaOpts{Callbacks: []SchemaCallback{{
			OnCreate: func(context.Context, *sql.DB) { created++ },
			OnOpen:   func(context.Context, *sql.DB) { opened++ },
		}}}

		schema, err := NewSchema(db, opts)
		if err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}

		for range 2 {
			if err := schema.Open(ctx); err != nil {
				t.Fatalf("failed to open schema: %v", err)
			}
		}

		if created != 1 {
			t.Errorf("expected OnCreate once, got %d", created)
		}
		if opened != 2 {
			t.Errorf("expected OnOpen twice, got %d", opened)
		}
	})

	t.Run("Version", func(t *testing.T) {
		schema, err := NewSchema(openMemory(t), SchemaOpts{})
		if err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
		if schema.Version() != 2 {
			t.Errorf("expected version 2, got %d", schema.Version())
		}

		stored, err := schema.StoredVersion(ctx)
		if err != nil {
			t.Fatalf("failed to read stored version: %v", err)
		}
		if stored != 0 {
			t.Errorf("expected stored version 0 before open, got %d", stored)
		}
	})

	t.Run("Identity Mismatch", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("UPDATE schema_identity SET identity_hash = 'bogus' WHERE id = 42"); err != nil {
			t.Fatalf("failed to tamper hash: %v", err)
		}

		err := RunMigrations(db)
		if !errors.Is(err, ErrIdentityMismatch) {
			t.Errorf("expected ErrIdentityMismatch, got %v", err)
		}
	})

	t.Run("Missing Identity Row", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("DELETE FROM schema_identity"); err != nil {
			t.Fatalf("failed to delete identity row: %v", err)
		}

		if err := RunMigrations(db); !errors.Is(err, ErrIdentityMismatch) {
			t.Errorf("expected ErrIdentityMismatch, got %v", err)
		}
	})

	t.Run("Legacy Identity Accepted", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		_, err := db.Exec("UPDATE schema_identity SET identity_hash = ? WHERE id = 42", legacyIdentityHash)
		if err != nil {
			t.Fatalf("failed to write legacy hash: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Errorf("legacy hash should be accepted: %v", err)
		}
	})

	t.Run("Missing Identity Table Is Stamped", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("DROP TABLE schema_identity"); err != nil {
			t.Fatalf("failed to drop identity table: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("expected open to stamp identity: %v", err)
		}

		var hash string
		if err := db.QueryRow("SELECT identity_hash FROM schema_identity WHERE id = 42").Scan(&hash); err != nil {
			t.Fatalf("failed to read identity hash: %v", err)
		}
		if hash != IdentityHash {
			t.Errorf("expected hash %s, got %s", IdentityHash, hash)
		}
	})

	t.Run("Schema Mismatch", func(t *testing.T) {
		db := openMemory(t)
		if _, err := db.Exec("CREATE TABLE receipt_warranty (id INTEGER PRIMARY KEY, title TEXT)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		if _, err := db.Exec("PRAGMA user_version = 2"); err != nil {
			t.Fatalf("failed to set version: %v", err)
		}

		err := RunMigrations(db)
		if !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("expected ErrSchemaMismatch, got %v", err)
		}

		var mismatch *SchemaMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected *SchemaMismatchError, got %T", err)
		}
		if len(mismatch.Found.Columns) != 2 {
			t.Errorf("expected 2 found columns, got %d", len(mismatch.Found.Columns))
		}
		if len(mismatch.Expected.Columns) != 11 {
			t.Errorf("expected 11 expected columns, got %d", len(mismatch.Expected.Columns))
		}
	})

	t.Run("No Migration Path", func(t *testing.T) {
		for _, version := range []int{1, 3} {
			db := openMemory(t)
			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}
			if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
				t.Fatalf("failed to set version: %v", err)
			}

			if err := RunMigrations(db); !errors.Is(err, ErrMigrationRequired) {
				t.Errorf("version %d: expected ErrMigrationRequired, got %v", version, err)
			}
		}
	})

	t.Run("Destructive Fallback", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		insertRow(t, db)
		if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
			t.Fatalf("failed to set version: %v", err)
		}

		var destroyed, created int
		schema, err := NewSchema(db, SchemaOpts{
			AllowDestructive: true,
			Callbacks: []SchemaCallback{{
				OnCreate:               func(context.Context, *sql.DB) { created++ },
				OnDestructiveMigration: func(context.Context, *sql.DB) { destroyed++ },
			}},
		})
		if err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}

		if err := schema.Open(ctx); err != nil {
			t.Fatalf("destructive open failed: %v", err)
		}

		if destroyed != 1 || created != 1 {
			t.Errorf("expected one destructive and one create callback, got %d and %d", destroyed, created)
		}
		if rowCount(t, db) != 0 {
			t.Error("destructive fallback should drop existing rows")
		}

		stored, err := schema.StoredVersion(ctx)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if stored != 2 {
			t.Errorf("expected version 2 after recreate, got %d", stored)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		db := openMemory(t)
		schema, err := NewSchema(db, SchemaOpts{})
		if err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
		if err := schema.Open(ctx); err != nil {
			t.Fatalf("failed to open schema: %v", err)
		}
		insertRow(t, db)

		if err := schema.Reset(ctx); err != nil {
			t.Fatalf("failed to reset: %v", err)
		}

		if rowCount(t, db) != 0 {
			t.Error("reset should drop existing rows")
		}
		if err := schema.Open(ctx); err != nil {
			t.Errorf("schema should open cleanly after reset: %v", err)
		}
	})

	t.Run("DropAllTables", func(t *testing.T) {
		db := openMemory(t)
		schema, err := NewSchema(db, SchemaOpts{})
		if err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
		if err := schema.Open(ctx); err != nil {
			t.Fatalf("failed to open schema: %v", err)
		}

		if err := schema.DropAllTables(ctx); err != nil {
			t.Fatalf("failed to drop tables: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM receipt_warranty"); err == nil {
			t.Error("receipt_warranty should not exist after drop")
		}

		stored, _ := schema.StoredVersion(ctx)
		if stored != 0 {
			t.Errorf("expected version 0 after drop, got %d", stored)
		}
	})
}

func TestTableInfo(t *testing.T) {
	t.Run("Affinity", func(t *testing.T) {
		tests := map[string]string{
			"INTEGER":      "INTEGER",
			"bigint":       "INTEGER",
			"VARCHAR(20)":  "TEXT",
			"TEXT":         "TEXT",
			"":             "BLOB",
			"DOUBLE":       "REAL",
			"DECIMAL(5,2)": "NUMERIC",
		}
		for declared, want := range tests {
			if got := Affinity(declared); got != want {
				t.Errorf("Affinity(%q) = %s, want %s", declared, got, want)
			}
		}
	})

	t.Run("Equal", func(t *testing.T) {
		a := ExpectedReceiptWarrantyTable()
		b := ExpectedReceiptWarrantyTable()
		if !a.Equal(b) {
			t.Error("identical tables should be equal")
		}

		delete(b.Columns, "notes")
		if a.Equal(b) {
			t.Error("tables with different columns should not be equal")
		}
	})

	t.Run("ReadTableInfo matches expected", func(t *testing.T) {
		db := openMemory(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		found, err := ReadTableInfo(context.Background(), db, ReceiptWarrantyTable)
		if err != nil {
			t.Fatalf("failed to read table info: %v", err)
		}
		if !ExpectedReceiptWarrantyTable().Equal(found) {
			t.Errorf("table mismatch:\n%s\n%s", ExpectedReceiptWarrantyTable(), found)
		}
	})
}
