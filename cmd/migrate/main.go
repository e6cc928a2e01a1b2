// Package main provides a CLI tool for database migrations.
// Migrations are embedded in the binary and applied through golang-migrate;
// the current version is tracked in the schema_migrations table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/welldanyogia/auth-ledger/internal/config"
	"github.com/welldanyogia/auth-ledger/internal/repository"
)

// Version is set at build time
var Version = "dev"

func main() {
	var (
		engine  = flag.String("engine", getEnv("DB_ENGINE", "sqlite"), "Database engine (sqlite or postgres)")
		dryRun  = flag.Bool("dry-run", false, "Show what would be done without executing")
		version = flag.Bool("version", false, "Print version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Database Migration Tool\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  up [N]       Apply all or N up migrations\n")
		fmt.Fprintf(os.Stderr, "  down [N]     Apply all or N down migrations\n")
		fmt.Fprintf(os.Stderr, "  goto V       Migrate to version V\n")
		fmt.Fprintf(os.Stderr, "  force V      Set version V without running migrations (use with caution)\n")
		fmt.Fprintf(os.Stderr, "  version      Print current migration version\n")
		fmt.Fprintf(os.Stderr, "  drop         Drop all tables (use with extreme caution)\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DB_ENGINE    Database engine: sqlite or postgres (default: sqlite)\n")
		fmt.Fprintf(os.Stderr, "  DB_PATH      SQLite database file (default: users.db)\n")
		fmt.Fprintf(os.Stderr, "  DB_HOST      Postgres host (default: localhost)\n")
		fmt.Fprintf(os.Stderr, "  DB_PORT      Postgres port (default: 5432)\n")
		fmt.Fprintf(os.Stderr, "  DB_USER      Postgres user (default: postgres)\n")
		fmt.Fprintf(os.Stderr, "  DB_PASSWORD  Postgres password\n")
		fmt.Fprintf(os.Stderr, "  DB_NAME      Postgres database name (default: auth_ledger)\n")
		fmt.Fprintf(os.Stderr, "  DB_SSLMODE   Postgres SSL mode (default: disable)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s up                  # Apply all pending migrations\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s down 1              # Rollback last migration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -engine postgres up # Migrate the postgres database\n", os.Args[0])
	}

	flag.Parse()

	if *version {
		fmt.Printf("migrate version %s\n", Version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	cfg.Database.Engine = *engine

	if err := runCommand(cfg, *dryRun, args[0], args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runCommand executes the specified migration command
func runCommand(cfg *config.Config, dryRun bool, cmd string, args []string) error {
	switch cmd {
	case "version":
		return withMigrator(cfg, showVersion)
	case "up":
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		if dryRun {
			log.Printf("[DRY RUN] Would apply %d up migrations (0 = all)", steps)
			return nil
		}
		return withMigrator(cfg, func(m *migrate.Migrate) error {
			return migrateUp(m, steps)
		})
	case "down":
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		if dryRun {
			log.Printf("[DRY RUN] Would apply %d down migrations (0 = all)", steps)
			return nil
		}
		return withMigrator(cfg, func(m *migrate.Migrate) error {
			return migrateDown(m, steps)
		})
	case "goto":
		if len(args) < 1 {
			return fmt.Errorf("goto requires a version number")
		}
		var target uint
		if _, err := fmt.Sscanf(args[0], "%d", &target); err != nil {
			return fmt.Errorf("invalid version: %s", args[0])
		}
		if dryRun {
			log.Printf("[DRY RUN] Would migrate to version %d", target)
			return nil
		}
		return withMigrator(cfg, func(m *migrate.Migrate) error {
			return migrateGoto(m, target)
		})
	case "force":
		if len(args) < 1 {
			return fmt.Errorf("force requires a version number")
		}
		var target int
		if _, err := fmt.Sscanf(args[0], "%d", &target); err != nil {
			return fmt.Errorf("invalid version: %s", args[0])
		}
		if dryRun {
			log.Printf("[DRY RUN] Would force version to %d", target)
			return nil
		}
		return withMigrator(cfg, func(m *migrate.Migrate) error {
			log.Printf("Forcing version to %d (no migrations will be run)...", target)
			if err := m.Force(target); err != nil {
				return fmt.Errorf("force failed: %w", err)
			}
			log.Printf("Version forced to %d", target)
			return nil
		})
	case "drop":
		if dryRun {
			log.Println("[DRY RUN] Would drop all tables")
			return nil
		}
		return migrateDrop(cfg)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// withMigrator opens the configured database, builds the migrator, runs fn
// and cleans up.
func withMigrator(cfg *config.Config, fn func(*migrate.Migrate) error) error {
	db, err := repository.Open(cfg.Database.Engine, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := repository.NewMigrator(db, cfg.Database.Engine)
	if err != nil {
		return err
	}

	return fn(m)
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	var steps int
	if _, err := fmt.Sscanf(args[0], "%d", &steps); err != nil {
		return 0, fmt.Errorf("invalid number of steps: %s", args[0])
	}
	return steps, nil
}

// showVersion displays the current migration version
func showVersion(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("No migrations have been applied yet")
			return nil
		}
		return fmt.Errorf("failed to get version: %w", err)
	}

	status := ""
	if dirty {
		status = " (dirty)"
	}
	log.Printf("Current migration version: %d%s", version, status)

	return nil
}

// migrateUp applies up migrations
func migrateUp(m *migrate.Migrate, steps int) error {
	currentVersion, _, _ := m.Version()
	log.Printf("Starting migration up from version %d...", currentVersion)

	var err error
	if steps > 0 {
		err = m.Steps(steps)
	} else {
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	log.Printf("Migration completed: %d -> %d", currentVersion, newVersion)

	return nil
}

// migrateDown applies down migrations
func migrateDown(m *migrate.Migrate, steps int) error {
	currentVersion, _, _ := m.Version()
	log.Printf("Starting migration down from version %d...", currentVersion)

	var err error
	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No migrations to rollback")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	log.Printf("Migration completed: %d -> %d", currentVersion, newVersion)

	return nil
}

// migrateGoto migrates to a specific version
func migrateGoto(m *migrate.Migrate, target uint) error {
	currentVersion, _, _ := m.Version()
	log.Printf("Migrating from version %d to %d...", currentVersion, target)

	if err := m.Migrate(target); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Printf("Already at version %d", target)
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Printf("Migration completed: %d -> %d", currentVersion, target)

	return nil
}

// migrateDrop drops all tables after an interactive confirmation
func migrateDrop(cfg *config.Config) error {
	log.Println("WARNING: This will drop ALL tables in the database!")
	log.Println("Type 'yes' to confirm:")

	var confirm string
	if _, err := fmt.Scanln(&confirm); err != nil || confirm != "yes" {
		log.Println("Aborted")
		return nil
	}

	return withMigrator(cfg, func(m *migrate.Migrate) error {
		log.Println("Dropping all tables...")
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop failed: %w", err)
		}
		log.Println("All tables dropped")
		return nil
	})
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
