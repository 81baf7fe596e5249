// Package version carries build metadata for the running binary.
package version

import (
	"os"
	"strings"
)

// Set at build time via -ldflags "-X github.com/uniyx/unibot/pkg/version.Version=... -X github.com/uniyx/unibot/pkg/version.Commit=...".
var (
	Version = "dev"
	Commit  = ""
)

// Info describes the release the binary was built from.
type Info struct {
	Version     string
	ShortCommit string
	FullCommit  string
}

// Resolve returns release metadata. Environment variables win over values
// injected at build time so a deployment can pin what /status reports.
func Resolve() Info {
	info := Info{
		Version:    strings.TrimSpace(os.Getenv("UNIBOT_VERSION")),
		FullCommit: strings.TrimSpace(os.Getenv("GIT_SHA")),
	}
	if info.FullCommit == "" {
		info.FullCommit = strings.TrimSpace(os.Getenv("COMMIT_SHA"))
	}
	if info.Version == "" {
		info.Version = Version
	}
	if info.FullCommit == "" {
		info.FullCommit = Commit
	}
	if len(info.FullCommit) >= 7 {
		info.ShortCommit = info.FullCommit[:7]
	} else {
		info.ShortCommit = info.FullCommit
	}
	return info
}
