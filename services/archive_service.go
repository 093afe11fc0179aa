package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/bracketops/live-console/metrics"
	"github.com/bracketops/live-console/models"
	"github.com/bracketops/live-console/storage"
)

// ArchiveService hands a finished match's snapshot to object storage so the
// season archival collaborator can pick it up. The snapshot itself is left
// untouched and keeps serving historical reads.
type ArchiveService interface {
	ArchiveSnapshot(ctx context.Context, matchID string, snap *models.MatchSnapshot) (string, error)
}

type archiveService struct {
	uploader storage.FileUploader
}

// NewArchiveService wraps the uploader; a nil uploader means archival is
// not configured and every call fails with ErrArchiveNotConfigured.
func NewArchiveService(uploader storage.FileUploader) ArchiveService {
	return &archiveService{uploader: uploader}
}

func (s *archiveService) ArchiveSnapshot(ctx context.Context, matchID string, snap *models.MatchSnapshot) (string, error) {
	if s.uploader == nil {
		return "", ErrArchiveNotConfigured
	}

	doc, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("%w: match %s: %v", ErrSnapshotEncode, matchID, err)
	}

	key := fmt.Sprintf("live/%s.json", matchID)
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("%w: match %s: %v", ErrArchiveFailed, matchID, err)
	}

	metrics.SnapshotsArchived.Inc()
	return result.Location, nil
}
