// Package internal provides the App struct that wires drover's services
// together and initializes the CLI layer.
package internal

import (
	"os"

	"github.com/drover-cli/drover/internal/cli"
	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/storage"
)

// App holds the service dependencies for a drover invocation.
type App struct {
	StateRoot string

	ConfigMgr core.ConfigurationManager
	Store     storage.StateStore
}

// NewApp creates and wires drover's services. stateRoot is where per-project
// state lives ($DROVER_HOME or ~/.drover); configuration is read from the
// working directory's .drover.yaml.
func NewApp(stateRoot string) (*App, error) {
	app := &App{StateRoot: stateRoot}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	app.ConfigMgr = core.NewConfigurationManager(workDir)
	app.Store = storage.NewStateStore(stateRoot)

	// Expose services to the CLI layer.
	cli.Store = app.Store
	cli.ConfigMgr = app.ConfigMgr
	cli.StateRoot = stateRoot

	return app, nil
}
