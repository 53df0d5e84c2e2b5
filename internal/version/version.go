// Package version exposes build metadata set through -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Populated at build time, e.g. -X github.com/faizmokh/tanda/internal/version.Version=v1.2.0.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the version, commit, and build date in one line.
func Info() string {
	return fmt.Sprintf("%s (commit %s, built %s)", resolved(), Commit, Date)
}

// resolved prefers the ldflags version and falls back to the module version
// recorded by `go install`.
func resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}
