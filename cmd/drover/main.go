package main

import (
	"fmt"
	"os"

	app "github.com/drover-cli/drover/internal"
	"github.com/drover-cli/drover/internal/cli"
	"github.com/drover-cli/drover/internal/storage"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	stateRoot := storage.ResolveStateRoot()

	if _, err := app.NewApp(stateRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing drover: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
