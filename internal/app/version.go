package app

import "xeromcp/internal/domain"

// Build is the git commit hash or build identifier, set at build time via -ldflags.
var Build = "unknown"

// VersionString renders the version reported by --version.
func VersionString() string {
	return domain.Version + " (" + Build + ")"
}
