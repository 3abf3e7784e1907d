package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	logs "github.com/brunoeugeniodev/NaLojaTem/internal/infra/log"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence/migrations"

	"github.com/pkg/errors"
)

// Supported subcommands:
// - up:   apply every pending migration
// - down: roll back the last N migrations

func main() {
	upCmd := flag.NewFlagSet("up", flag.ExitOnError)
	upDSN := upCmd.String("dsn", "", "Database URL (defaults to migration.dsn)")

	downCmd := flag.NewFlagSet("down", flag.ExitOnError)
	downDSN := downCmd.String("dsn", "", "Database URL (defaults to migration.dsn)")
	downSteps := downCmd.Int("steps", 1, "Number of migrations to roll back")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "up":
		if err := upCmd.Parse(os.Args[2:]); err != nil {
			exit(logger, err)
		}
		err = migrations.Up(resolveDSN(cfg, *upDSN), logger)
	case "down":
		if err := downCmd.Parse(os.Args[2:]); err != nil {
			exit(logger, err)
		}
		err = migrations.Down(resolveDSN(cfg, *downDSN), *downSteps, logger)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		exit(logger, err)
	}
}

func resolveDSN(cfg *config.Config, flagDSN string) string {
	if flagDSN != "" {
		return flagDSN
	}
	if cfg.Migration != nil {
		return cfg.Migration.DSN
	}

	return ""
}

func exit(logger *slog.Logger, err error) {
	logger.Error("Migration failed", slog.Any("error", errors.WithStack(err)))
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: migrate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up     Apply every pending migration")
	fmt.Println("  down   Roll back migrations (-steps N)")
}
