package services

import "errors"

// Ошибки сервисного слоя живого счёта, маппятся на HTTP в handlers.
var (
	// Event validation
	ErrInvalidPayload   = errors.New("invalid event payload")
	ErrUnknownEventKind = errors.New("unknown event kind")

	// Persistence is best-effort: these are logged and counted, never
	// surfaced as a failure of the triggering event.
	ErrPersistenceFailure = errors.New("snapshot persistence failed")
	ErrSnapshotEncode     = errors.New("failed to encode snapshot")

	// External collaborator data
	ErrMatchInfoUnavailable = errors.New("match info unavailable")

	// Archival
	ErrArchiveNotConfigured = errors.New("snapshot archive is not configured")
	ErrArchiveFailed        = errors.New("failed to archive snapshot")
)
