package db

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupMigrationTestDB opens a database without running migrations.
func setupMigrationTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupTestMigrations creates a temporary directory with test migration files
// and returns it as an fs.FS
func setupTestMigrations(t *testing.T) fs.FS {
	t.Helper()
	tmpDir := filepath.Join(t.TempDir(), "migrations")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		t.Fatalf("failed to create temp migrations dir: %v", err)
	}

	migrations := map[string]string{
		"000001_create_test_table.up.sql": `
			CREATE TABLE IF NOT EXISTS test_table (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL
			);
		`,
		"000001_create_test_table.down.sql": `
			DROP TABLE IF EXISTS test_table;
		`,
		"000002_add_test_column.up.sql": `
			ALTER TABLE test_table ADD COLUMN description TEXT;
		`,
		"000002_add_test_column.down.sql": `
			ALTER TABLE test_table DROP COLUMN description;
		`,
	}

	for filename, content := range migrations {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write migration file %s: %v", filename, err)
		}
	}

	return os.DirFS(tmpDir)
}

func columnExists(t *testing.T, db *DB, table, column string) bool {
	t.Helper()
	var exists bool
	err := db.QueryRow(`SELECT COUNT(*) > 0 FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check %s.%s: %v", table, column, err)
	}
	return exists
}

func TestMigrateUp(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful migration")
	}
	if !columnExists(t, db, "test_table", "description") {
		t.Error("description column should exist after second migration")
	}

	// Running again is a no-op.
	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := db.MigrateDown(migrationsFS); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, _, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}
	if columnExists(t, db, "test_table", "description") {
		t.Error("description column should be gone after rollback")
	}
}

func TestMigrateVersion_NoMigrations(t *testing.T) {
	db := setupMigrationTestDB(t)

	version, dirty, err := db.MigrateVersion(setupTestMigrations(t))
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("got version %d dirty %v, want 0 clean", version, dirty)
	}
}

func TestMigrateToAndForce(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	if err := db.MigrateTo(migrationsFS, 1); err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}
	if columnExists(t, db, "test_table", "description") {
		t.Error("description column should not exist at version 1")
	}

	if err := db.MigrateForce(migrationsFS, 2); err != nil {
		t.Fatalf("MigrateForce failed: %v", err)
	}
	version, _, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected forced version 2, got %d", version)
	}
}

func TestEmbeddedMigrationsFullCycle(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := MigrationsFS()

	latest, err := LatestMigrationVersion(migrationsFS)
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if latest != 2 {
		t.Errorf("latest embedded migration = %d, want 2", latest)
	}

	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if !columnExists(t, db, "networks", "ie_data") {
		t.Error("ie_data column should exist at latest version")
	}

	for i := 0; i < int(latest); i++ {
		if err := db.MigrateDown(migrationsFS); err != nil {
			t.Fatalf("MigrateDown %d failed: %v", i, err)
		}
	}

	var tables int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('captures', 'networks', 'samples')`).Scan(&tables); err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if tables != 0 {
		t.Errorf("%d capture tables remain after full rollback", tables)
	}
}

func TestLatestMigrationVersionEmpty(t *testing.T) {
	if _, err := LatestMigrationVersion(os.DirFS(t.TempDir())); err == nil {
		t.Error("expected an error for a directory without migrations")
	}
}

func TestRunMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	if err := RunMigrateCommand(&out, []string{"up"}, dbPath); err != nil {
		t.Fatalf("migrate up failed: %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 2") {
		t.Errorf("unexpected status output:\n%s", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand(&out, []string{"to", "1"}, dbPath); err != nil {
		t.Fatalf("migrate to 1 failed: %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 1") {
		t.Errorf("unexpected status output:\n%s", out.String())
	}

	for _, args := range [][]string{nil, {"sideways"}, {"to"}, {"force", "x"}} {
		out.Reset()
		if err := RunMigrateCommand(&out, args, dbPath); err == nil {
			t.Errorf("RunMigrateCommand(%q) should fail", args)
		}
	}
}
