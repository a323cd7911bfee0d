package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/messages"
)

// Reasons attached to incomplete datasets.
const (
	ReasonMissingData  = "Missing JSON"
	ReasonMissingVideo = "Missing video"
	ReasonAmbiguous    = "Ambiguous pairing"
)

// Pair is a complete dataset resolved on disk.
type Pair struct {
	ID        string `json:"id"`
	VideoName string `json:"videoName"`
	DataName  string `json:"dataName"`
	VideoPath string `json:"videoPath"`
	DataPath  string `json:"dataPath"`
	Size      int64  `json:"size"`
}

// IncompleteDataset is a dataset with only one side on disk, or one whose
// sides cannot be matched unambiguously.
type IncompleteDataset struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Resolution is the outcome of pairing every dataset in the store.
type Resolution struct {
	Pairs      []Pair
	Incomplete []IncompleteDataset
}

// Stats summarizes the store contents.
type Stats struct {
	Complete   int   `json:"complete"`
	Incomplete int   `json:"incomplete"`
	TotalBytes int64 `json:"totalBytes"`
}

type entry struct {
	storedName
	Size int64
}

// scan lists the entries of dir that follow the naming convention, in name order.
func (s *Store) scan(ctx context.Context, dir, ext string) ([]entry, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, domain.NewStorageError(messages.ErrReadDirectory, err).WithDetails("dir", dir)
	}

	entries := make([]entry, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		name, ok := parseStoredName(info.Name(), ext)
		if !ok {
			s.logger.Debug(messages.MsgSkippingUnknownEntry, "dir", dir, "name", info.Name())
			continue
		}
		entries = append(entries, entry{storedName: name, Size: info.Size()})
	}
	return entries, nil
}

func groupByID(entries []entry) map[string][]entry {
	grouped := make(map[string][]entry, len(entries))
	for _, e := range entries {
		grouped[e.ID] = append(grouped[e.ID], e)
	}
	return grouped
}

// List returns the ID of every stored video, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	videos, err := s.scan(ctx, s.videoDir, VideoExt)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		ids = append(ids, v.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ResolvePair finds the video and data file of one dataset. The video side is
// checked first; a missing side yields a not-found error naming that file.
func (s *Store) ResolvePair(ctx context.Context, id string) (*Pair, error) {
	if !validID(id) {
		return nil, domain.NewValidationError(messages.ErrInvalidDatasetID).WithDetails("id", id)
	}

	video, err := s.locate(ctx, s.videoDir, id, VideoExt)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf(messages.ErrVideoFileNotFound, id+VideoExt))
	}

	data, err := s.locate(ctx, s.dataDir, id, DataExt)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf(messages.ErrJSONFileNotFound, id+DataExt))
	}

	return s.newPair(id, *video, *data), nil
}

// locate finds the single entry of dir whose ID is id. "{id}{ext}" is tried
// directly; bare keys also match exactly one legacy entry.
func (s *Store) locate(ctx context.Context, dir, id, ext string) (*entry, error) {
	info, err := s.fs.Stat(filepath.Join(dir, id+ext))
	if err == nil && !info.IsDir() {
		return &entry{storedName: storedName{Name: id + ext, ID: id, Key: id}, Size: info.Size()}, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewStorageError(messages.ErrReadDirectory, err).WithDetails("dir", dir)
	}

	if key, ok := ParseKey(id); !ok || key != id {
		return nil, nil
	}

	entries, err := s.scan(ctx, dir, ext)
	if err != nil {
		return nil, err
	}
	matches := groupByID(entries)[id]
	if len(matches) != 1 {
		return nil, nil
	}
	return &matches[0], nil
}

func (s *Store) newPair(id string, video, data entry) *Pair {
	return &Pair{
		ID:        id,
		VideoName: video.Name,
		DataName:  data.Name,
		VideoPath: filepath.Join(s.videoDir, video.Name),
		DataPath:  filepath.Join(s.dataDir, data.Name),
		Size:      video.Size + data.Size,
	}
}

// ResolveAllPairs pairs every video with the data file of exactly the same ID.
// Datasets missing a side, or with several candidates for a side, are
// reported as incomplete instead of guessed at.
func (s *Store) ResolveAllPairs(ctx context.Context) (*Resolution, error) {
	videos, err := s.scan(ctx, s.videoDir, VideoExt)
	if err != nil {
		return nil, err
	}
	data, err := s.scan(ctx, s.dataDir, DataExt)
	if err != nil {
		return nil, err
	}

	videoByID := groupByID(videos)
	dataByID := groupByID(data)

	ids := make([]string, 0, len(videoByID)+len(dataByID))
	for id := range videoByID {
		ids = append(ids, id)
	}
	for id := range dataByID {
		if _, ok := videoByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	res := &Resolution{Pairs: []Pair{}, Incomplete: []IncompleteDataset{}}
	for _, id := range ids {
		v, d := videoByID[id], dataByID[id]
		switch {
		case len(v) == 0:
			res.Incomplete = append(res.Incomplete, IncompleteDataset{ID: id, Reason: ReasonMissingVideo})
		case len(d) == 0:
			res.Incomplete = append(res.Incomplete, IncompleteDataset{ID: id, Reason: ReasonMissingData})
		case len(v) > 1 || len(d) > 1:
			res.Incomplete = append(res.Incomplete, IncompleteDataset{ID: id, Reason: ReasonAmbiguous})
		default:
			res.Pairs = append(res.Pairs, *s.newPair(id, v[0], d[0]))
		}
	}

	for _, inc := range res.Incomplete {
		s.logger.Debug(messages.MsgIncompleteDataset, "id", inc.ID, "reason", inc.Reason)
	}
	return res, nil
}

// DeleteAll removes every video, data and metadata file that follows the
// naming convention and returns how many dataset IDs were affected. Other
// files are left alone. Running it on an empty store returns 0.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	sides := []struct{ dir, ext string }{
		{s.videoDir, VideoExt},
		{s.dataDir, DataExt},
		{s.metaDir, DataExt},
	}

	removed := make(map[string]struct{})
	for _, side := range sides {
		entries, err := s.scan(ctx, side.dir, side.ext)
		if err != nil {
			return len(removed), err
		}
		for _, e := range entries {
			path := filepath.Join(side.dir, e.Name)
			if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return len(removed), domain.NewStorageError(messages.ErrDeleteDataset, err).WithDetails("path", path)
			}
			removed[e.ID] = struct{}{}
		}
	}

	s.logger.Info(messages.MsgDatasetsDeleted, "count", len(removed))
	return len(removed), nil
}

// Stats counts complete and incomplete datasets and their bytes on disk.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	res, err := s.ResolveAllPairs(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Complete: len(res.Pairs), Incomplete: len(res.Incomplete)}
	for _, p := range res.Pairs {
		stats.TotalBytes += p.Size
	}
	return stats, nil
}
