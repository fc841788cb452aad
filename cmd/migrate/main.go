package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"wealthsync/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&upCmd{}, "migrations")
	commander.Register(&downCmd{}, "migrations")
	commander.Register(&versionCmd{}, "migrations")

	flag.Parse()
	status := commander.Execute(context.Background())
	logger.Sync()
	os.Exit(int(status))
}
