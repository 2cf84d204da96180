// Package version holds the build-time version string, overridden via
// -ldflags at build time (e.g. -X zonys/version.Version=1.2.3).
package version

var Version = "unknown"
