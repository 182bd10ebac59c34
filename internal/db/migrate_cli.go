package db

import (
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/ns1kit/internal/monitoring"
)

// RunMigrateCommand handles the 'migrate' subcommand against the embedded
// migrations.
func RunMigrateCommand(w io.Writer, args []string, dbPath string) error {
	if len(args) < 1 {
		PrintMigrateHelp(w)
		return fmt.Errorf("missing migrate action")
	}

	// Open without migrating; this command manages the schema itself.
	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	migrationsFS := MigrationsFS()

	switch action := args[0]; action {
	case "up":
		monitoring.Logf("Running migrations...")
		if err := database.MigrateUp(migrationsFS); err != nil {
			return err
		}
	case "down":
		monitoring.Logf("Rolling back one migration...")
		if err := database.MigrateDown(migrationsFS); err != nil {
			return err
		}
	case "to", "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: ns1tool migrate %s <version>", action)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil || version < 0 {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		if action == "to" {
			err = database.MigrateTo(migrationsFS, uint(version))
		} else {
			err = database.MigrateForce(migrationsFS, version)
		}
		if err != nil {
			return err
		}
	case "status":
	case "help":
		PrintMigrateHelp(w)
		return nil
	default:
		PrintMigrateHelp(w)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	return printMigrateStatus(w, database)
}

func printMigrateStatus(w io.Writer, database *DB) error {
	migrationsFS := MigrationsFS()
	version, dirty, err := database.MigrateVersion(migrationsFS)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := LatestMigrationVersion(migrationsFS)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Current version: %d\n", version)
	fmt.Fprintf(w, "Latest version: %d\n", latest)
	fmt.Fprintf(w, "Dirty: %v\n", dirty)
	if dirty {
		fmt.Fprintln(w, "A migration failed mid-execution. Inspect the database, then run: ns1tool migrate force <version>")
	}
	return nil
}

// PrintMigrateHelp prints usage for the migrate subcommand.
func PrintMigrateHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: ns1tool migrate [-db path] <action> [version]

Actions:
  up          Apply all pending migrations
  down        Roll back the most recent migration
  status      Show the current and latest schema versions
  to N        Migrate up or down to version N
  force N     Set the recorded version to N without running migrations
  help        Show this message
`)
}
