package dataset

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// unsafeFilenameChars matches characters that are reserved on common
// filesystems plus every ASCII control character.
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// Sanitize replaces reserved and control characters in a client-supplied
// filename with underscores. It never fails and is idempotent.
func Sanitize(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// normalizeName sanitizes name and folds it to NFC so that visually equal
// names recorded in metadata compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(Sanitize(name))
}
