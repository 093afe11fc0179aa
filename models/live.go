package models

import (
	"encoding/json"
	"time"
)

type TeamStatus string

const (
	TeamStatusAlive      TeamStatus = "alive"
	TeamStatusEliminated TeamStatus = "eliminated"
)

// DefaultAliveCount is the squad size assumed for a team that has not yet
// reported an alive_count event. Alive counts are always clamped to
// [0, DefaultAliveCount].
const DefaultAliveCount = 4

type LiveEventType string

const (
	EventScore      LiveEventType = "score"
	EventPlayerKill LiveEventType = "player_kill"
	EventStatus     LiveEventType = "status"
	EventAliveCount LiveEventType = "alive_count"
	EventTicker     LiveEventType = "ticker"
)

// LiveEvent is one discrete in-match update as submitted by an operator
// console. The payload shape depends on Type and is decoded by the reducer.
type LiveEvent struct {
	Type    LiveEventType   `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ScorePayload struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
}

type PlayerKillPayload struct {
	Team   string `json:"team"`
	Player string `json:"player"`
	Points int    `json:"points"`
}

type StatusPayload struct {
	Team   string     `json:"team"`
	Status TeamStatus `json:"status"`
}

type AliveCountPayload struct {
	Team  string `json:"team"`
	Count int    `json:"count"`
}

type TickerPayload struct {
	Text string `json:"text"`
}

// PlayerStat tracks one player's kill counter. Players within a team are
// kept as an ordered list (insertion order) so that MVP tie-breaking and the
// persisted JSON stay deterministic.
type PlayerStat struct {
	Name  string `json:"name"`
	Kills int    `json:"kills"`
}

type TeamEntry struct {
	Team       string       `json:"team"`
	Points     int          `json:"points"`
	Status     TeamStatus   `json:"status"`
	AliveCount int          `json:"alive_count"`
	Players    []PlayerStat `json:"players,omitempty"`
}

type TeamScore struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
}

// ScoreHistoryEntry is one append-only row of the score time series. Every
// row lists all teams known at append time, so charts never show a team
// missing from a time slice.
type ScoreHistoryEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Scores    []TeamScore `json:"scores"`
}

// MatchSnapshot is the full externally visible state of one live match.
// The zero value is a valid empty snapshot. This is also exactly the shape
// persisted as one JSON document per match id.
type MatchSnapshot struct {
	Teams        []TeamEntry         `json:"teams"`
	ScoreHistory []ScoreHistoryEntry `json:"score_history"`
	Ticker       string              `json:"ticker"`
}

// Clone returns a deep copy. Readers always receive clones so that the
// authoritative snapshot is never aliased outside the aggregation service.
func (s *MatchSnapshot) Clone() *MatchSnapshot {
	out := &MatchSnapshot{Ticker: s.Ticker}
	if s.Teams != nil {
		out.Teams = make([]TeamEntry, len(s.Teams))
		for i, t := range s.Teams {
			ct := t
			if t.Players != nil {
				ct.Players = make([]PlayerStat, len(t.Players))
				copy(ct.Players, t.Players)
			}
			out.Teams[i] = ct
		}
	}
	if s.ScoreHistory != nil {
		out.ScoreHistory = make([]ScoreHistoryEntry, len(s.ScoreHistory))
		for i, h := range s.ScoreHistory {
			ch := h
			if h.Scores != nil {
				ch.Scores = make([]TeamScore, len(h.Scores))
				copy(ch.Scores, h.Scores)
			}
			out.ScoreHistory[i] = ch
		}
	}
	return out
}

// Team returns a pointer to the named team's entry, or nil if unknown.
func (s *MatchSnapshot) Team(name string) *TeamEntry {
	for i := range s.Teams {
		if s.Teams[i].Team == name {
			return &s.Teams[i]
		}
	}
	return nil
}

// EnsureTeam returns the named team's entry, creating it with defaults on
// first reference. Teams are never deleted for the life of the match.
func (s *MatchSnapshot) EnsureTeam(name string) *TeamEntry {
	if t := s.Team(name); t != nil {
		return t
	}
	s.Teams = append(s.Teams, TeamEntry{
		Team:       name,
		Status:     TeamStatusAlive,
		AliveCount: DefaultAliveCount,
	})
	return &s.Teams[len(s.Teams)-1]
}

// EnsurePlayer returns the named player's stat entry, creating a zero
// counter on first reference.
func (t *TeamEntry) EnsurePlayer(name string) *PlayerStat {
	for i := range t.Players {
		if t.Players[i].Name == name {
			return &t.Players[i]
		}
	}
	t.Players = append(t.Players, PlayerStat{Name: name})
	return &t.Players[len(t.Players)-1]
}

// EventAck confirms a successfully applied event back to the operator
// console, which echoes it locally instead of re-polling.
type EventAck struct {
	EventID   string        `json:"event_id"`
	MatchID   string        `json:"match_id"`
	Type      LiveEventType `json:"type"`
	AppliedAt time.Time     `json:"applied_at"`
}

// MVPPrediction names the player currently leading the kill count.
type MVPPrediction struct {
	Team   string `json:"team"`
	Player string `json:"player"`
	Kills  int    `json:"kills"`
}

// LiveAnalytics is the derived view recomputed on every state read, never
// stored. Win probabilities are fractions summing to 1 across
// non-eliminated teams; eliminated teams always carry 0.
type LiveAnalytics struct {
	WinProbability map[string]float64 `json:"winProbability"`
	MVPPrediction  *MVPPrediction     `json:"mvpPrediction"`
}
