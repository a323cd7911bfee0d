package dataset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// VideoDirName holds the video side of every dataset.
	VideoDirName = "videos"
	// DataDirName holds the structured-data side of every dataset.
	DataDirName = "json_data"
	// MetaDirName holds one metadata sidecar per dataset.
	MetaDirName = "meta"

	// VideoExt is forced onto every stored video.
	VideoExt = ".mp4"
	// DataExt is the extension of stored data and metadata files.
	DataExt = ".json"

	// maxSuffix bounds the collision search for a single key.
	maxSuffix = 10000
)

var collisionSuffix = regexp.MustCompile(`^_[0-9]+$`)

// storedName is a directory entry that follows the naming convention.
type storedName struct {
	Name   string
	ID     string
	Key    string
	Legacy bool
}

// parseStoredName recognizes "{key}{ext}", "{key}_{n}{ext}" and the legacy
// "{key}-{original}{ext}" form. Legacy entries take the bare key as their ID.
func parseStoredName(name, ext string) (storedName, bool) {
	if !strings.HasSuffix(name, ext) {
		return storedName{}, false
	}
	stem := strings.TrimSuffix(name, ext)

	key, ok := ParseKey(stem)
	if !ok {
		return storedName{}, false
	}

	rest := stem[len(key):]
	switch {
	case rest == "":
		return storedName{Name: name, ID: key, Key: key}, true
	case collisionSuffix.MatchString(rest):
		return storedName{Name: name, ID: stem, Key: key}, true
	case strings.HasPrefix(rest, "-") && len(rest) > 1:
		return storedName{Name: name, ID: key, Key: key, Legacy: true}, true
	default:
		return storedName{}, false
	}
}

// candidateID returns the n-th ID tried for key: key, key_1, key_2, ...
func candidateID(key string, n int) string {
	if n == 0 {
		return key
	}
	return fmt.Sprintf("%s_%d", key, n)
}

// validID reports whether id can be used as a bare file stem.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return false
	}
	return Sanitize(id) == id
}

// videoDisplayName applies the upload naming rule to a client video name:
// sanitize, then force the .mp4 extension.
func videoDisplayName(original string) string {
	name := normalizeName(original)
	if strings.HasSuffix(strings.ToLower(name), VideoExt) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + VideoExt
}
