// Package buildinfo exposes the binary's version metadata.
package buildinfo

import "runtime/debug"

// Injected via ldflags for release binaries; empty for dev builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Resolve returns the effective version string, falling back to the module
// version recorded by the Go toolchain ("go install" builds) and then to
// "dev".
func Resolve() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
