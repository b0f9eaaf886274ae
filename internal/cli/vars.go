package cli

import (
	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Store     storage.StateStore
	ConfigMgr core.ConfigurationManager
)

// StateRoot is the resolved state directory, set during app initialization.
var StateRoot string
