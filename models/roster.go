package models

import "time"

// MatchInfo is the match card owned by the tournament/registration service.
// It is merged into live state responses for context but never mutated by
// the scoring core.
type MatchInfo struct {
	MatchID     string    `json:"match_id" db:"match_id"`
	Tournament  string    `json:"tournament" db:"tournament"`
	Name        string    `json:"name" db:"name"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`

	Teams []RosterTeam `json:"teams,omitempty" db:"-"`
}

// RosterTeam is one registered team with its roster, supplied externally.
type RosterTeam struct {
	Name    string   `json:"name" db:"team_name"`
	LogoURL *string  `json:"logo_url,omitempty" db:"logo_url"`
	Players []string `json:"players,omitempty" db:"-"`
}
