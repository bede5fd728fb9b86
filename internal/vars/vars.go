// Package vars holds build-time variables populated via the linker (ldflags):
//
//	-X .../internal/vars.Version=v1.0.0 -X .../internal/vars.Commit=$(git rev-parse HEAD)
//	-X .../internal/vars._revision=$(git rev-list --count HEAD) -X .../internal/vars._buildTime=$(date -u +%FT%TZ)
package vars

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// License of the project
const License = "MIT"

var (
	// Name of the project
	Name = "xfor"

	// Version of application (git tag), e.g. v1.2.3
	Version = "dev"

	// Commit is the full or short git SHA
	Commit = "unknown"

	// Revision is the count of commits
	Revision = 0

	// BuildTime in UTC
	BuildTime = time.Unix(0, 0).UTC()

	// URL to repository
	URL = "https://github.com/xploitforceofficial-stack/xfor-discord"

	_revision  string
	_buildTime string
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	// betteralign:ignore

	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	CommitShort string    `json:"commit_short,omitempty"`
	Revision    int       `json:"revision,omitempty"`
	BuildTime   time.Time `json:"build_time,omitempty"`
	URL         string    `json:"url,omitempty"`
	License     string    `json:"license,omitempty"`
}

func init() {
	if n, err := strconv.Atoi(_revision); err == nil {
		Revision = n
	}
	if t, err := time.Parse(time.RFC3339, _buildTime); err == nil {
		BuildTime = t.UTC()
	}
}

// Print writes the build information to the standard output.
func Print() {
	Fprint(os.Stdout)
}

// Fprint writes the build information to w, one field per line.
func Fprint(w io.Writer) {
	info := Info()
	rows := [][2]string{
		{"name", info.Name},
		{"url", info.URL},
		{"file", os.Args[0]},
		{"version", info.Version},
		{"commit", info.Commit},
		{"revision", strconv.Itoa(info.Revision)},
		{"built", info.BuildTime.Format(time.RFC3339)},
		{"license", info.License},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%-9s %s\n", row[0]+":", row[1])
	}
}

// Info returns the full build metadata.
func Info() BuildInfo {
	info := Ver()
	info.CommitShort = CommitShort()
	info.BuildTime = BuildTime
	info.URL = URL
	info.License = License
	return info
}

// Ver returns the versioning subset of the build metadata.
func Ver() BuildInfo {
	return BuildInfo{
		Name:     Name,
		Version:  Version,
		Commit:   Commit,
		Revision: Revision,
	}
}

// CommitShort returns the first 7 characters of the git commit hash.
func CommitShort() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
