package version

import "runtime/debug"

// Version is set at build time with
// -ldflags "-X github.com/flyhq/baike-mcp/internal/version.Version=...".
var Version = "devel"

// Builds made with `go install github.com/flyhq/baike-mcp@latest` carry no
// -ldflags, so fall back to the module version recorded in the binary.
// Plain `go build` records "(devel)", which leaves Version unchanged.
func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	mainVersion := info.Main.Version
	if mainVersion != "" && mainVersion != "(devel)" {
		Version = mainVersion
	}
}
