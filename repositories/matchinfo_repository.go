package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bracketops/live-console/models"
)

// MatchInfoRepository reads the match card and rosters owned by the
// tournament/registration service. The scoring core only merges this data
// into state responses; it never writes to these tables.
type MatchInfoRepository interface {
	GetByMatchID(ctx context.Context, matchID string) (*models.MatchInfo, error)
}

type postgresMatchInfoRepository struct {
	db *sql.DB
}

func NewPostgresMatchInfoRepository(db *sql.DB) MatchInfoRepository {
	return &postgresMatchInfoRepository{db: db}
}

func (r *postgresMatchInfoRepository) GetByMatchID(ctx context.Context, matchID string) (*models.MatchInfo, error) {
	query := `SELECT match_id, tournament, name, scheduled_at
              FROM live_matches WHERE match_id = $1`

	var info models.MatchInfo
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(
		&info.MatchID,
		&info.Tournament,
		&info.Name,
		&info.ScheduledAt,
	)
	if err != nil {
		// sql.ErrNoRows included: the service maps it to its own sentinel.
		return nil, fmt.Errorf("failed to get match info for %s: %w", matchID, err)
	}

	teams, err := r.listRoster(ctx, matchID)
	if err != nil {
		return nil, err
	}
	info.Teams = teams

	return &info, nil
}

func (r *postgresMatchInfoRepository) listRoster(ctx context.Context, matchID string) ([]models.RosterTeam, error) {
	query := `SELECT team_name, logo_url, player_name
              FROM live_rosters
              WHERE match_id = $1
              ORDER BY team_name, slot`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for match %s: %w", matchID, err)
	}
	defer rows.Close()

	var teams []models.RosterTeam
	for rows.Next() {
		var (
			teamName string
			logoURL  sql.NullString
			player   string
		)
		if err := rows.Scan(&teamName, &logoURL, &player); err != nil {
			return nil, fmt.Errorf("failed to scan roster row for match %s: %w", matchID, err)
		}

		if len(teams) == 0 || teams[len(teams)-1].Name != teamName {
			team := models.RosterTeam{Name: teamName}
			if logoURL.Valid {
				url := logoURL.String
				team.LogoURL = &url
			}
			teams = append(teams, team)
		}
		last := &teams[len(teams)-1]
		last.Players = append(last.Players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster rows for match %s: %w", matchID, err)
	}
	return teams, nil
}
