// Package dataset owns the on-disk layout of paired video and sensor-data
// uploads: how a dataset is named, how its two halves are written, and how
// the pairs are found again for listing, bundling and purging.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

const (
	// ContentTypeVideo is the only accepted declared type for the video part.
	ContentTypeVideo = "video/mp4"
	// ContentTypeData is the only accepted declared type for the data part.
	ContentTypeData = "application/json"
)

var emptyArray = json.RawMessage("[]")

// StoreConfig carries everything a Store needs from the outside.
type StoreConfig struct {
	// Root holds the videos/, json_data/ and meta/ directories.
	Root string
	// Clock stamps new datasets. Defaults to UTCClock.
	Clock Clock
}

// Store persists datasets on an afero filesystem. It is safe for concurrent use.
type Store struct {
	fs       afero.Fs
	root     string
	videoDir string
	dataDir  string
	metaDir  string
	clock    Clock
	logger   *logging.Logger

	// claimMu serializes ID selection; O_EXCL guards against other processes.
	claimMu sync.Mutex
}

// Part is one uploaded file as declared by the client.
type Part struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CreateRequest is the pair of parts making up one upload.
type CreateRequest struct {
	Video *Part
	Data  *Part
}

// Dataset describes where a dataset lives.
type Dataset struct {
	ID            string `json:"id"`
	Key           string `json:"key"`
	VideoFileName string `json:"videoFileName"`
	DataFileName  string `json:"dataFileName"`
	VideoPath     string `json:"videoPath"`
	DataPath      string `json:"dataPath"`
}

// CreateResult is returned by Create whenever an ID was claimed, including
// alongside partial-write and data-format errors.
type CreateResult struct {
	Dataset           Dataset
	Outcome           WriteOutcome
	VideoRelPath      string
	GyroscopeData     json.RawMessage
	AccelerometerData json.RawMessage
}

// NewStore prepares the dataset directories under cfg.Root.
func NewStore(fs afero.Fs, cfg StoreConfig, logger *logging.Logger) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("dataset store root is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = UTCClock
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	s := &Store{
		fs:       fs,
		root:     cfg.Root,
		videoDir: filepath.Join(cfg.Root, VideoDirName),
		dataDir:  filepath.Join(cfg.Root, DataDirName),
		metaDir:  filepath.Join(cfg.Root, MetaDirName),
		clock:    cfg.Clock,
		logger:   logger,
	}

	for _, dir := range []string{s.videoDir, s.dataDir, s.metaDir} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.NewStorageError("failed to create dataset directory", err)
		}
	}

	logger.Debug(messages.MsgStoreDirsReady, "root", cfg.Root)
	return s, nil
}

// Fs returns the filesystem the store writes to.
func (s *Store) Fs() afero.Fs { return s.fs }

// Root returns the upload root.
func (s *Store) Root() string { return s.root }

// VideoDir returns the directory holding videos.
func (s *Store) VideoDir() string { return s.videoDir }

// DataDir returns the directory holding data files.
func (s *Store) DataDir() string { return s.dataDir }

// Create validates and writes one dataset. Nothing is written when validation
// fails. Both halves are always attempted; anything short of BothSucceeded is
// a storage error and is not rolled back.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	createdAt := s.clock()
	key := NewKey(createdAt)

	id, videoFile, videoErr := s.claim(key)
	ds := Dataset{
		ID:            id,
		Key:           key,
		VideoFileName: id + VideoExt,
		DataFileName:  id + DataExt,
		VideoPath:     filepath.Join(s.videoDir, id+VideoExt),
		DataPath:      filepath.Join(s.dataDir, id+DataExt),
	}

	if videoErr == nil {
		videoErr = writeAndClose(videoFile, req.Video.Content)
	}
	dataErr := s.writeExclusive(ds.DataPath, req.Data.Content)

	result := &CreateResult{
		Dataset:      ds,
		Outcome:      outcomeOf(videoErr, dataErr),
		VideoRelPath: filepath.ToSlash(filepath.Join(VideoDirName, ds.VideoFileName)),
	}

	if result.Outcome != BothFailed {
		s.recordMeta(ds, req, result.Outcome, createdAt)
	}

	if result.Outcome != BothSucceeded {
		s.logger.Error(messages.MsgDatasetPartialWrite,
			"id", id, "outcome", result.Outcome, "videoError", videoErr, "dataError", dataErr)
		return result, domain.NewStorageError(messages.ErrSaveFiles, errors.Join(videoErr, dataErr)).
			WithDetails("id", id).
			WithDetails("outcome", result.Outcome.String())
	}

	s.logger.Info(messages.MsgDatasetCreated,
		"id", id,
		"video", humanize.Bytes(uint64(len(req.Video.Content))),
		"data", humanize.Bytes(uint64(len(req.Data.Content))))

	gyro, accel, err := extractSensorData(req.Data.Content)
	if err != nil {
		return result, domain.NewDataFormatError(messages.ErrJSONParse, err).WithDetails("id", id)
	}
	result.GyroscopeData = gyro
	result.AccelerometerData = accel

	return result, nil
}

func validateCreate(req CreateRequest) error {
	switch {
	case req.Video == nil || req.Data == nil:
		return domain.NewValidationError(messages.ErrVideoAndJSONRequired)
	case req.Video.Filename == "":
		return domain.NewValidationError(messages.ErrNoVideoFile)
	case req.Data.Filename == "":
		return domain.NewValidationError(messages.ErrNoJSONFile)
	case mediaType(req.Video.ContentType) != ContentTypeVideo:
		return domain.NewValidationError(messages.ErrVideoNotMP4).
			WithDetails("contentType", req.Video.ContentType)
	case mediaType(req.Data.ContentType) != ContentTypeData:
		return domain.NewValidationError(messages.ErrJSONNotJSON).
			WithDetails("contentType", req.Data.ContentType)
	}
	return nil
}

// mediaType drops parameters such as "; charset=utf-8".
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// claim picks the first free ID for key and reserves it by exclusively
// creating the video file. On a non-collision error the chosen ID is still
// returned so the data half can be written under it.
func (s *Store) claim(key string) (string, afero.File, error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	for n := 0; n < maxSuffix; n++ {
		id := candidateID(key, n)
		if s.taken(id, n == 0) {
			s.logger.Debug(messages.MsgDatasetIDCollision, "id", id)
			continue
		}

		f, err := s.fs.OpenFile(filepath.Join(s.videoDir, id+VideoExt), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return id, nil, fmt.Errorf("failed to create video file: %w", err)
		}
		return id, f, nil
	}

	id := candidateID(key, maxSuffix)
	return id, nil, fmt.Errorf("no free dataset id for key %s", key)
}

// taken reports whether any file already uses id. The bare key is also
// taken by legacy "{key}-{name}" entries.
func (s *Store) taken(id string, bare bool) bool {
	paths := []string{
		filepath.Join(s.videoDir, id+VideoExt),
		filepath.Join(s.dataDir, id+DataExt),
		s.metaPath(id),
	}
	for _, p := range paths {
		if exists, _ := afero.Exists(s.fs, p); exists {
			return true
		}
	}

	if bare {
		for _, dir := range []string{s.videoDir, s.dataDir} {
			if matches, _ := afero.Glob(s.fs, filepath.Join(dir, id+"-*")); len(matches) > 0 {
				return true
			}
		}
	}
	return false
}

func (s *Store) writeExclusive(path string, content []byte) error {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	return writeAndClose(f, content)
}

func writeAndClose(f afero.File, content []byte) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", filepath.Base(f.Name()), cerr)
		}
	}()

	if _, err = f.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(f.Name()), err)
	}
	return f.Sync()
}

// recordMeta writes the sidecar. A failure here only loses the original
// filenames, so it is logged and not returned.
func (s *Store) recordMeta(ds Dataset, req CreateRequest, outcome WriteOutcome, createdAt time.Time) {
	videoDetected := mimetype.Detect(req.Video.Content)
	dataDetected := mimetype.Detect(req.Data.Content)

	if !videoDetected.Is(ContentTypeVideo) {
		s.logger.Warn(messages.MsgContentTypeMismatch, "id", ds.ID, "declared", ContentTypeVideo, "detected", videoDetected.String())
	}
	if !dataDetected.Is(ContentTypeData) {
		s.logger.Warn(messages.MsgContentTypeMismatch, "id", ds.ID, "declared", ContentTypeData, "detected", dataDetected.String())
	}

	meta := &Meta{
		ID:                ds.ID,
		Key:               ds.Key,
		VideoName:         videoDisplayName(req.Video.Filename),
		DataName:          normalizeName(req.Data.Filename),
		VideoContentType:  mediaType(req.Video.ContentType),
		DataContentType:   mediaType(req.Data.ContentType),
		VideoDetectedType: videoDetected.String(),
		DataDetectedType:  dataDetected.String(),
		VideoSize:         int64(len(req.Video.Content)),
		DataSize:          int64(len(req.Data.Content)),
		Outcome:           outcome,
		CreatedAt:         createdAt,
	}

	if err := s.writeMeta(meta); err != nil {
		s.logger.Warn(messages.MsgMetaWriteFailed, "id", ds.ID, "error", err)
	}
}

// extractSensorData pulls the two sample arrays out of the data document.
// Only invalid JSON is an error; a valid document without the arrays, or one
// that is not an object at all, yields empty arrays.
func extractSensorData(content []byte) (json.RawMessage, json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, nil, err
	}

	gyro, accel := emptyArray, emptyArray

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return gyro, accel, nil
	}
	if v, ok := fields["gyroscopeData"]; ok {
		gyro = v
	}
	if v, ok := fields["accelerometerData"]; ok {
		accel = v
	}
	return gyro, accel, nil
}
