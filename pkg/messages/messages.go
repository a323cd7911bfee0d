// Package messages centralizes log and API-response message literals so they
// can be reused across the code-base and kept consistent. Constants are grouped
// by functional area (store, archiver, API server, CLI).
package messages

// Log and API response message constants.
const (
	// Dataset store
	MsgStoreDirsReady       = "dataset directories ready"
	MsgDatasetCreated       = "dataset created"
	MsgDatasetPartialWrite  = "dataset written partially"
	MsgDatasetIDCollision   = "dataset id taken, trying next suffix"
	MsgMetaWriteFailed      = "failed to write dataset metadata"
	MsgDatasetsDeleted      = "datasets deleted"
	MsgIncompleteDataset    = "incomplete dataset"
	MsgSkippingUnknownEntry = "skipping entry outside naming convention"
	MsgContentTypeMismatch  = "declared content type differs from sniffed type"

	// Dataset store error texts
	ErrVideoAndJSONRequired = "Video and JSON data are required"
	ErrNoVideoFile          = "No video file uploaded"
	ErrNoJSONFile           = "No JSON file uploaded"
	ErrVideoNotMP4          = "Video must be an MP4 file"
	ErrJSONNotJSON          = "JSON data must be a .json file"
	ErrInvalidDatasetID     = "Invalid dataset key"
	ErrVideoFileNotFound    = "Video file %s not found"
	ErrJSONFileNotFound     = "JSON file %s not found"
	ErrJSONParse            = "JSON data could not be parsed"
	ErrSaveFiles            = "Error saving files"
	ErrReadDirectory        = "failed to read dataset directory"
	ErrDeleteDataset        = "failed to delete dataset file"

	// Archiver
	MsgArchiveBuilt       = "archive built"
	MsgArchiveTempRemoved = "temporary archive removed"
	ErrInvalidArchivePath = "invalid archive path"
	ErrArchiveSourceOpen  = "failed to open archive source"
	ErrArchiveWrite       = "failed to write archive"
	ErrArchiveTempCreate  = "failed to create temporary archive"

	// API server
	MsgStartAPIServer      = "starting API server"
	MsgAPIServerStopped    = "API server stopped"
	MsgRequestCompleted    = "request completed"
	MsgAllDatasetsDeleted  = "All datasets deleted"
	MsgMissingJSONFiles    = "missing JSON files"
	MsgStreamingArchive    = "streaming archive through temporary file"
	MsgHelloWorld          = "Hello, World!"
	RespUnauthorized       = "Unauthorized"
	RespInternalError      = "Internal server error"
	RespRequestTooLarge    = "Request body too large"
	ErrReadUploadedFile    = "Failed to read uploaded file"
	MsgAPITokenNotSet      = "API_TOKEN is not set; protected routes will reject every request"
	MsgTrustedProxiesFound = "found trusted proxies"

	// CLI
	MsgPurgeConfirmTitle = "Delete all datasets?"
	MsgPurgeConfirmDesc  = "Every video, JSON and metadata file under the upload directory will be removed."
	ErrAbortedByUser     = "aborted by user"
	MsgBundleWritten     = "bundle written"
)
