package buildinfo

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X ilds/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"builtAt":   BuiltAt,
		"goVersion": runtime.Version(),
	}
}

// String is the one-line form logged at startup.
func String() string {
	commit := Commit
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("version=%s commit=%s go=%s", Version, commit, runtime.Version())
}
