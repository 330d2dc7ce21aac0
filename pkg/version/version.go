// Package version reports the notesync build and the on-disk formats it
// works with.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set via ldflags, e.g.
// -X github.com/Aman-CERP/notesync/pkg/version.Version=$(VERSION)
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Formats names what a store written by this build contains. Two builds
// with different Formats cannot share a store without a resync.
type Formats struct {
	StoreSchema int    `json:"store_schema"`
	Embedder    string `json:"embedder"`
}

// Info is the output of `notesync version`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Formats
}

// Get returns the running build with f attached.
func Get(f Formats) Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Formats:   f,
	}
}

// String renders i on two lines: the build, then the formats.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "notesync %s (commit %s, built %s, %s %s)\n",
		i.Version, shortCommit(i.Commit), i.Date, i.GoVersion, i.Platform)
	fmt.Fprintf(&b, "store schema v%d, embedder %s", i.StoreSchema, i.Embedder)
	return b.String()
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
