package dataset

// WriteOutcome records which halves of a dataset reached the disk.
type WriteOutcome int

const (
	// BothFailed means neither file was written.
	BothFailed WriteOutcome = iota
	// VideoOnlySucceeded leaves a video without its data file.
	VideoOnlySucceeded
	// DataOnlySucceeded leaves a data file without its video.
	DataOnlySucceeded
	// BothSucceeded is the only complete outcome.
	BothSucceeded
)

func outcomeOf(videoErr, dataErr error) WriteOutcome {
	switch {
	case videoErr == nil && dataErr == nil:
		return BothSucceeded
	case videoErr == nil:
		return VideoOnlySucceeded
	case dataErr == nil:
		return DataOnlySucceeded
	default:
		return BothFailed
	}
}

func (o WriteOutcome) String() string {
	switch o {
	case BothSucceeded:
		return "both_succeeded"
	case VideoOnlySucceeded:
		return "video_only_succeeded"
	case DataOnlySucceeded:
		return "data_only_succeeded"
	default:
		return "both_failed"
	}
}

// MarshalText lets outcomes appear as strings in metadata and logs.
func (o WriteOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the String form.
func (o *WriteOutcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "both_succeeded":
		*o = BothSucceeded
	case "video_only_succeeded":
		*o = VideoOnlySucceeded
	case "data_only_succeeded":
		*o = DataOnlySucceeded
	default:
		*o = BothFailed
	}
	return nil
}
