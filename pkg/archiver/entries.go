package archiver

import (
	"path"

	"github.com/kdeps/intake/pkg/dataset"
)

// Layout decides where a dataset's files land inside an archive.
type Layout int

const (
	// LayoutFlat stores both files at the archive root.
	LayoutFlat Layout = iota
	// LayoutFolder stores both files under a folder named by dataset ID.
	LayoutFolder
)

// DatasetEntries returns the archive entries of one pair.
func DatasetEntries(pair dataset.Pair, layout Layout) []Entry {
	video, data := pair.VideoName, pair.DataName
	if layout == LayoutFolder {
		video = path.Join(pair.ID, video)
		data = path.Join(pair.ID, data)
	}
	return []Entry{
		{ArchivePath: video, SourcePath: pair.VideoPath},
		{ArchivePath: data, SourcePath: pair.DataPath},
	}
}

// EntriesForPairs flattens several pairs into one entry list.
func EntriesForPairs(pairs []dataset.Pair, layout Layout) []Entry {
	entries := make([]Entry, 0, 2*len(pairs))
	for _, p := range pairs {
		entries = append(entries, DatasetEntries(p, layout)...)
	}
	return entries
}

// TotalSize sums the on-disk size of pairs.
func TotalSize(pairs []dataset.Pair) int64 {
	var total int64
	for _, p := range pairs {
		total += p.Size
	}
	return total
}
