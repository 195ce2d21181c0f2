// Package version defines ann-tools version.
package version

import (
	"fmt"
	"time"
)

var (
	// GitCommit is the git commit on build.
	GitCommit = ""
	// ReleaseVersion is the release version.
	ReleaseVersion = ""
	// BuildTime is the build timestamp.
	BuildTime = ""
)

func init() {
	now := time.Now()
	if ReleaseVersion == "" {
		ReleaseVersion = now.Format("200601021504")
	}
	if BuildTime == "" {
		BuildTime = now.String()
	}
}

// String returns the version lines printed by the "version" commands.
func String() string {
	return fmt.Sprintf("GitCommit: %s\nReleaseVersion: %s\nBuildTime: %s\n", GitCommit, ReleaseVersion, BuildTime)
}
