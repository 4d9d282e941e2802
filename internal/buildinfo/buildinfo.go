// Package buildinfo holds release identifiers stamped at link time.
package buildinfo

// Release builds inject these via -ldflags; local builds leave them
// empty and the version command falls back to debug.ReadBuildInfo.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
