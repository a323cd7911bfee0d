// Package archiver bundles dataset files into zip archives, either in memory
// or through a temporary file for large downloads.
package archiver

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

// Entry maps one source file to its path inside the archive.
type Entry struct {
	ArchivePath string
	SourcePath  string
}

// BuildArchive writes entries into an in-memory zip. Either every entry is
// written or an error is returned; partial bytes never escape.
func BuildArchive(ctx context.Context, fs afero.Fs, entries []Entry) ([]byte, error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeZip(ctx, fs, &buf, entries); err != nil {
		return nil, err
	}

	logging.Debug(messages.MsgArchiveBuilt, "entries", len(entries), "size", humanize.Bytes(uint64(buf.Len())))
	return buf.Bytes(), nil
}

// TempArchive is a finished archive on disk. Closing it deletes the file.
type TempArchive struct {
	fs   afero.Fs
	file afero.File
	size int64
}

// Read implements io.Reader.
func (t *TempArchive) Read(p []byte) (int, error) {
	return t.file.Read(p)
}

// Size returns the archive length in bytes.
func (t *TempArchive) Size() int64 { return t.size }

// Name returns the temporary file path.
func (t *TempArchive) Name() string { return t.file.Name() }

// Close closes and removes the temporary file.
func (t *TempArchive) Close() error {
	closeErr := t.file.Close()
	removeErr := t.fs.Remove(t.file.Name())
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return removeErr
	}
	logging.Debug(messages.MsgArchiveTempRemoved, "path", t.file.Name())
	return closeErr
}

// BuildArchiveFile writes entries into a temporary file under tmpDir and
// returns it rewound for reading. The file is removed if the build fails.
func BuildArchiveFile(ctx context.Context, fs afero.Fs, tmpDir string, entries []Entry) (_ *TempArchive, err error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	if tmpDir != "" {
		if err := fs.MkdirAll(tmpDir, 0o755); err != nil {
			return nil, domain.NewStorageError(messages.ErrArchiveTempCreate, err)
		}
	}

	f, err := afero.TempFile(fs, tmpDir, "archive-*.zip")
	if err != nil {
		return nil, domain.NewStorageError(messages.ErrArchiveTempCreate, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = fs.Remove(f.Name())
		}
	}()

	if err = writeZip(ctx, fs, f, entries); err != nil {
		return nil, err
	}

	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, domain.NewStorageError(messages.ErrArchiveWrite, err)
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, domain.NewStorageError(messages.ErrArchiveWrite, err)
	}

	logging.Debug(messages.MsgArchiveBuilt, "entries", len(entries), "size", humanize.Bytes(uint64(size)), "path", f.Name())
	return &TempArchive{fs: fs, file: f, size: size}, nil
}

// ValidateEntries checks that every archive path is a clean relative
// slash-separated path without parent references, used at most once.
// An empty list is valid and yields an empty archive.
func ValidateEntries(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !validArchivePath(e.ArchivePath) {
			return domain.NewValidationError(messages.ErrInvalidArchivePath).WithDetails("path", e.ArchivePath)
		}
		if _, dup := seen[e.ArchivePath]; dup {
			return domain.NewValidationError(messages.ErrInvalidArchivePath).
				WithDetails("path", e.ArchivePath).
				WithDetails("reason", "duplicate")
		}
		seen[e.ArchivePath] = struct{}{}
	}
	return nil
}

func validArchivePath(p string) bool {
	if p == "" || strings.Contains(p, `\`) || path.IsAbs(p) {
		return false
	}
	if path.Clean(p) != p {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return true
}

func writeZip(ctx context.Context, fs afero.Fs, w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := addEntry(fs, zw, e); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return domain.NewStorageError(messages.ErrArchiveWrite, err)
	}
	return nil
}

func addEntry(fs afero.Fs, zw *zip.Writer, e Entry) error {
	src, err := fs.Open(e.SourcePath)
	if err != nil {
		return domain.NewStorageError(messages.ErrArchiveSourceOpen, err).WithDetails("path", e.SourcePath)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return domain.NewStorageError(messages.ErrArchiveSourceOpen, err).WithDetails("path", e.SourcePath)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return domain.NewStorageError(messages.ErrArchiveWrite, err)
	}
	header.Name = e.ArchivePath
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return domain.NewStorageError(messages.ErrArchiveWrite, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return domain.NewStorageError(messages.ErrArchiveWrite, fmt.Errorf("%s: %w", e.ArchivePath, err))
	}
	return nil
}
