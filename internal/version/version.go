package version

import (
	"github.com/earthboundkid/versioninfo/v2"
)

// Set with -ldflags "-X github.com/shindakun/urlshort/internal/version.version=v1.2.3"
var version string

// GetVersion returns the release version, or the VCS revision stamped into
// the binary by the Go toolchain
func GetVersion() string {
	if version != "" {
		return version
	}
	return versioninfo.Short()
}

// GetFullVersion returns version with commit info
func GetFullVersion() string {
	ver := GetVersion()
	if versioninfo.Revision == "unknown" || versioninfo.Revision == "" {
		return ver
	}

	commit := versioninfo.Revision
	if len(commit) > 7 {
		commit = commit[:7]
	}
	full := ver + " (commit: " + commit
	if versioninfo.DirtyBuild {
		full += ", modified"
	}
	return full + ")"
}
