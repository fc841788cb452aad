package main

import (
	"context"
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/subcommands"

	"wealthsync/internal/config"
	"wealthsync/internal/database"
	"wealthsync/internal/logger"
)

// sourceFlag is shared by every migration command.
type sourceFlag struct {
	source string
}

func (s *sourceFlag) register(f *flag.FlagSet) {
	f.StringVar(&s.source, "source", database.DefaultMigrationsSource, "Location of the SQL migration files.")
}

// withMigrator loads configuration, opens a migrator and runs fn with it.
func (s *sourceFlag) withMigrator(fn func(*migrate.Migrate) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Errorf("Failed to load config: %v", err)
		return subcommands.ExitFailure
	}

	mig, closeFn, err := database.NewMigrator(database.NewConfig(cfg).URL(), s.source)
	if err != nil {
		logger.Get().Errorf("Migration error: %v", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := fn(mig); err != nil {
		logger.Get().Errorf("Migration error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type upCmd struct {
	sourceFlag
}

func (*upCmd) Name() string     { return "up" }
func (*upCmd) Synopsis() string { return "apply all pending migrations" }
func (*upCmd) Usage() string {
	return `migrate up [-source file://migrations]

  Applies every migration that has not been applied yet.
`
}

func (c *upCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *upCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.withMigrator(func(mig *migrate.Migrate) error {
		if err := database.Up(mig); err != nil {
			return err
		}
		logger.Get().Info("Migrations applied successfully")
		return nil
	})
}

type downCmd struct {
	sourceFlag
	steps int
}

func (*downCmd) Name() string     { return "down" }
func (*downCmd) Synopsis() string { return "roll back applied migrations" }
func (*downCmd) Usage() string {
	return `migrate down [-n <steps>] [-source file://migrations]

  Rolls back the most recent migrations, one by default.
`
}

func (c *downCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.steps, "n", 1, "Number of migrations to roll back.")
}

func (c *downCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.steps <= 0 {
		logger.Get().Errorf("invalid step count %d", c.steps)
		return subcommands.ExitUsageError
	}
	return c.withMigrator(func(mig *migrate.Migrate) error {
		if err := database.Down(mig, c.steps); err != nil {
			return err
		}
		logger.Get().Infof("Rolled back %d migration(s)", c.steps)
		return nil
	})
}

type versionCmd struct {
	sourceFlag
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print the current schema version" }
func (*versionCmd) Usage() string {
	return `migrate version [-source file://migrations]

  Prints the applied schema version and whether the last migration left it dirty.
`
}

func (c *versionCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.withMigrator(func(mig *migrate.Migrate) error {
		version, dirty, err := mig.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Get().Info("No migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
		return nil
	})
}
