package dataset

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Meta is the sidecar record kept next to every dataset. It carries what the
// stored names no longer do: the client's original filenames.
type Meta struct {
	ID                string       `json:"id"`
	Key               string       `json:"key"`
	VideoName         string       `json:"videoName"`
	DataName          string       `json:"dataName"`
	VideoContentType  string       `json:"videoContentType"`
	DataContentType   string       `json:"dataContentType"`
	VideoDetectedType string       `json:"videoDetectedType,omitempty"`
	DataDetectedType  string       `json:"dataDetectedType,omitempty"`
	VideoSize         int64        `json:"videoSize"`
	DataSize          int64        `json:"dataSize"`
	Outcome           WriteOutcome `json:"outcome"`
	CreatedAt         time.Time    `json:"createdAt"`
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.metaDir, id+DataExt)
}

func (s *Store) writeMeta(meta *Meta) error {
	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return afero.WriteFile(s.fs, s.metaPath(meta.ID), content, 0o644)
}

// ReadMeta loads the sidecar of a dataset. Datasets written by older
// versions have none; callers get an error wrapping fs.ErrNotExist.
func (s *Store) ReadMeta(id string) (*Meta, error) {
	if !validID(id) {
		return nil, fmt.Errorf("invalid dataset id %q", id)
	}
	content, err := afero.ReadFile(s.fs, s.metaPath(id))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}
	return &meta, nil
}
