// Package version exposes build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/sean-rowe/weather-lookup/internal/version.Version=1.2.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// Info is the build description served on /version.
type Info struct {
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	BuildDate time.Time `json:"build_date,omitempty"`
}

// Get returns the build description of the running binary.
func Get() Info {
	var built time.Time

	// BuildTime stays "unknown" for local builds.
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		built = t
	}

	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildDate: built,
	}
}

// UserAgent identifies this build to upstream providers.
func UserAgent() string {
	return "WeatherLookup/" + Version
}

// String renders the one-line form printed by -version flags.
func (i Info) String() string {
	commit := i.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return fmt.Sprintf("weather-lookup %s (%s, %s, %s)", i.Version, commit, i.GoVersion, i.Platform)
}
