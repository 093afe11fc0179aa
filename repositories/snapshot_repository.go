package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bracketops/live-console/models"
)

// SnapshotStore durably stores one JSON document per match id containing
// exactly the MatchSnapshot shape. The aggregation service treats it as
// best-effort: in-memory state stays authoritative for the running process.
type SnapshotStore interface {
	Save(ctx context.Context, matchID string, snap *models.MatchSnapshot) error
	Load(ctx context.Context, matchID string) (*models.MatchSnapshot, bool, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type postgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) SnapshotStore {
	return &postgresSnapshotStore{db: db}
}

func (s *postgresSnapshotStore) Save(ctx context.Context, matchID string, snap *models.MatchSnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for match %s: %w", matchID, err)
	}

	query := `INSERT INTO live_snapshots (match_id, snapshot, updated_at)
              VALUES ($1, $2, NOW())
              ON CONFLICT (match_id)
              DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, matchID, doc); err != nil {
		return fmt.Errorf("failed to upsert snapshot for match %s: %w", matchID, err)
	}
	return nil
}

func (s *postgresSnapshotStore) Load(ctx context.Context, matchID string) (*models.MatchSnapshot, bool, error) {
	query := `SELECT snapshot FROM live_snapshots WHERE match_id = $1`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, matchID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot for match %s: %w", matchID, err)
	}

	var snap models.MatchSnapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot for match %s: %w", matchID, err)
	}
	return &snap, true, nil
}

func (s *postgresSnapshotStore) ListIDs(ctx context.Context) ([]string, error) {
	query := `SELECT match_id FROM live_snapshots ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot ids: %w", err)
	}
	return ids, nil
}
