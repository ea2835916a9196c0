package leadflow

import (
	_ "embed"
)

// Version is the release version of the module, read from the VERSION file.
//
//go:embed VERSION
var Version string
