package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/logging"
)

const (
	testRoot = "/uploads"
	testKey  = "2024-01-01_10-00-00"
)

var testTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func newTestStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()
	store, err := NewStore(fs, StoreConfig{Root: testRoot, Clock: fixedClock(testTime)}, logging.NewTestLogger())
	require.NoError(t, err)
	return store
}

func validRequest() CreateRequest {
	return CreateRequest{
		Video: &Part{Filename: "clip.mov", ContentType: "video/mp4", Content: []byte("fake-mp4-bytes")},
		Data: &Part{
			Filename:    "sensors.json",
			ContentType: "application/json",
			Content:     []byte(`{"gyroscopeData":[{"x":1}],"accelerometerData":[{"y":2}],"extra":true}`),
		},
	}
}

func dirNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

// failingFs refuses to create files under prefix.
type failingFs struct {
	afero.Fs
	prefixes []string
}

var errInjected = errors.New("injected write failure")

func (f *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 {
		for _, p := range f.prefixes {
			if strings.HasPrefix(name, p) {
				return nil, &os.PathError{Op: "open", Path: name, Err: errInjected}
			}
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestNewStoreCreatesDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	for _, dir := range []string{VideoDirName, DataDirName, MetaDirName} {
		ok, err := afero.DirExists(fs, filepath.Join(testRoot, dir))
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}
	assert.Equal(t, testRoot, store.Root())
}

func TestNewStoreRequiresRoot(t *testing.T) {
	_, err := NewStore(afero.NewMemMapFs(), StoreConfig{}, logging.NewTestLogger())
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)
	ctx := context.Background()

	result, err := store.Create(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, BothSucceeded, result.Outcome)
	assert.Equal(t, testKey, result.Dataset.ID)
	assert.Equal(t, testKey, result.Dataset.Key)
	assert.Equal(t, "videos/"+testKey+".mp4", result.VideoRelPath)
	assert.JSONEq(t, `[{"x":1}]`, string(result.GyroscopeData))
	assert.JSONEq(t, `[{"y":2}]`, string(result.AccelerometerData))

	video, err := afero.ReadFile(fs, result.Dataset.VideoPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4-bytes", string(video))

	data, err := afero.ReadFile(fs, result.Dataset.DataPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gyroscopeData")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, testKey)

	res, err := store.ResolveAllPairs(ctx)
	require.NoError(t, err)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, testKey, res.Pairs[0].ID)
	assert.Empty(t, res.Incomplete)
}

func TestCreateRecordsMetadata(t *testing.T) {
	store := newTestStore(t, afero.NewMemMapFs())

	result, err := store.Create(context.Background(), validRequest())
	require.NoError(t, err)

	meta, err := store.ReadMeta(result.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", meta.VideoName)
	assert.Equal(t, "sensors.json", meta.DataName)
	assert.Equal(t, BothSucceeded, meta.Outcome)
	assert.Equal(t, int64(len("fake-mp4-bytes")), meta.VideoSize)
	assert.Equal(t, "application/json", meta.DataDetectedType)
	assert.True(t, meta.CreatedAt.Equal(testTime))

	_, err = store.ReadMeta("../escape")
	assert.Error(t, err)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		msg    string
	}{
		{"missing video", func(r *CreateRequest) { r.Video = nil }, "Video and JSON data are required"},
		{"missing data", func(r *CreateRequest) { r.Data = nil }, "Video and JSON data are required"},
		{"empty video name", func(r *CreateRequest) { r.Video.Filename = "" }, "No video file uploaded"},
		{"empty data name", func(r *CreateRequest) { r.Data.Filename = "" }, "No JSON file uploaded"},
		{"quicktime", func(r *CreateRequest) { r.Video.ContentType = "video/quicktime" }, "Video must be an MP4 file"},
		{"text data", func(r *CreateRequest) { r.Data.ContentType = "text/plain" }, "JSON data must be a .json file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			store := newTestStore(t, fs)

			req := validRequest()
			tt.mutate(&req)

			result, err := store.Create(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))

			var appErr *domain.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.msg, appErr.Message)

			assert.Empty(t, dirNames(t, fs, store.VideoDir()))
			assert.Empty(t, dirNames(t, fs, store.DataDir()))
			assert.Empty(t, dirNames(t, fs, filepath.Join(testRoot, MetaDirName)))
		})
	}
}

func TestCreateAcceptsMediaTypeParameters(t *testing.T) {
	store := newTestStore(t, afero.NewMemMapFs())

	req := validRequest()
	req.Data.ContentType = "application/json; charset=utf-8"

	_, err := store.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateSensorDataDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing keys", `{"other":1}`},
		{"array document", `[1,2,3]`},
		{"null document", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, afero.NewMemMapFs())
			req := validRequest()
			req.Data.Content = []byte(tt.content)

			result, err := store.Create(context.Background(), req)
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(result.GyroscopeData))
			assert.JSONEq(t, `[]`, string(result.AccelerometerData))
		})
	}
}

func TestCreateInvalidJSONKeepsFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	req := validRequest()
	req.Data.Content = []byte(`{"gyroscopeData": [`)

	result, err := store.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeDataFormat))

	require.NotNil(t, result)
	assert.Equal(t, BothSucceeded, result.Outcome)
	for _, p := range []string{result.Dataset.VideoPath, result.Dataset.DataPath} {
		ok, _ := afero.Exists(fs, p)
		assert.True(t, ok, p)
	}
}

func TestCreateSameSecondUsesSuffixes(t *testing.T) {
	store := newTestStore(t, afero.NewMemMapFs())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		result, err := store.Create(ctx, validRequest())
		require.NoError(t, err)
		ids = append(ids, result.Dataset.ID)
	}

	assert.Equal(t, []string{testKey, testKey + "_1", testKey + "_2"}, ids)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, listed)

	for _, id := range ids {
		_, err := store.ResolvePair(ctx, id)
		assert.NoError(t, err, id)
	}
}

func TestCreateNeverOverwritesOrphans(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)
	orphan := filepath.Join(store.DataDir(), testKey+".json")
	require.NoError(t, afero.WriteFile(fs, orphan, []byte(`{"orphan":true}`), 0o644))

	result, err := store.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, testKey+"_1", result.Dataset.ID)

	content, err := afero.ReadFile(fs, orphan)
	require.NoError(t, err)
	assert.Equal(t, `{"orphan":true}`, string(content))
}

func TestCreateSkipsKeyUsedByLegacyEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(store.VideoDir(), testKey+"-old.mp4"), []byte("old"), 0o644))

	result, err := store.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, testKey+"_1", result.Dataset.ID)
}

func TestCreateConcurrentSameSecond(t *testing.T) {
	store := newTestStore(t, afero.NewMemMapFs())
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*CreateResult, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Video.Content = []byte{byte('a' + i)}
			results[i], errs[i] = store.Create(ctx, req)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		id := results[i].Dataset.ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		pair, err := store.ResolvePair(ctx, id)
		require.NoError(t, err)
		content, err := afero.ReadFile(store.Fs(), pair.VideoPath)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte('a' + i)}, content, "dataset %s was overwritten", id)
	}
	assert.Len(t, seen, workers)
}

func TestCreatePartialWrites(t *testing.T) {
	tests := []struct {
		name     string
		failDirs []string
		want     WriteOutcome
	}{
		{"data fails", []string{DataDirName}, VideoOnlySucceeded},
		{"video fails", []string{VideoDirName}, DataOnlySucceeded},
		{"both fail", []string{VideoDirName, DataDirName}, BothFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := afero.NewMemMapFs()
			store := newTestStore(t, base)

			var prefixes []string
			for _, dir := range tt.failDirs {
				prefixes = append(prefixes, filepath.Join(testRoot, dir))
			}
			store.fs = &failingFs{Fs: base, prefixes: prefixes}

			result, err := store.Create(context.Background(), validRequest())
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.ErrCodeStorage))
			assert.ErrorIs(t, err, errInjected)
			assert.Contains(t, err.Error(), errInjected.Error())

			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Equal(t, testKey, result.Dataset.ID)

			videoExists, _ := afero.Exists(base, result.Dataset.VideoPath)
			dataExists, _ := afero.Exists(base, result.Dataset.DataPath)
			assert.Equal(t, tt.want == VideoOnlySucceeded, videoExists)
			assert.Equal(t, tt.want == DataOnlySucceeded, dataExists)

			res, err := store.ResolveAllPairs(context.Background())
			require.NoError(t, err)
			assert.Empty(t, res.Pairs)
			if tt.want == BothFailed {
				assert.Empty(t, res.Incomplete)
			} else {
				require.Len(t, res.Incomplete, 1)
				assert.Equal(t, testKey, res.Incomplete[0].ID)
			}
		})
	}
}

func TestCreateHonoursCanceledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, validRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirNames(t, fs, store.VideoDir()))
}

func TestWriteOutcomeText(t *testing.T) {
	for _, o := range []WriteOutcome{BothFailed, VideoOnlySucceeded, DataOnlySucceeded, BothSucceeded} {
		text, err := o.MarshalText()
		require.NoError(t, err)

		var back WriteOutcome
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, o, back)
	}

	encoded, err := json.Marshal(map[string]WriteOutcome{"o": VideoOnlySucceeded})
	require.NoError(t, err)
	assert.JSONEq(t, `{"o":"video_only_succeeded"}`, string(encoded))
}
