// Package build reports the version and VCS metadata the binary was built with.
package build

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Version is set with -ldflags "-X github.com/amp-labs/lottie-interactivity/build.Version=v1.2.3".
var Version = "dev" //nolint:gochecknoglobals

// Info contains build metadata.
type Info struct {
	Version      string            `json:"version"`
	GitCommit    string            `json:"git_commit,omitempty"` //nolint:tagliatelle
	GitDate      string            `json:"git_date,omitempty"`   //nolint:tagliatelle
	Dirty        bool              `json:"dirty,omitempty"`
	GoVersion    string            `json:"go_version,omitempty"` //nolint:tagliatelle
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Read returns the running binary's build metadata.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: Version}
	}

	return fromBuildInfo(bi, Version)
}

func fromBuildInfo(bi *debug.BuildInfo, version string) Info {
	info := Info{
		Version:      version,
		GoVersion:    bi.GoVersion,
		Dependencies: make(map[string]string, len(bi.Deps)),
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.time":
			info.GitDate = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}

	for _, dep := range bi.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}

		info.Dependencies[dep.Path] = dep.Version
	}

	return info
}

// String renders the version line, e.g. "v1.2.0 (abc1234, dirty) go1.25.0".
func (i Info) String() string {
	var details []string

	if i.GitCommit != "" {
		commit := i.GitCommit
		if len(commit) > 7 { //nolint:mnd // short hash
			commit = commit[:7]
		}

		details = append(details, commit)
	}

	if i.Dirty {
		details = append(details, "dirty")
	}

	out := i.Version
	if len(details) > 0 {
		out += " (" + strings.Join(details, ", ") + ")"
	}

	if i.GoVersion != "" {
		out = fmt.Sprintf("%s %s", out, i.GoVersion)
	}

	return out
}
