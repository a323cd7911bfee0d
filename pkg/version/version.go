package version

import "fmt"

// Application version information, set with -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

// String renders the version line printed by the CLI.
func String() string {
	if Commit == "" {
		return Version
	}
	short := Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s)", Version, short)
}
