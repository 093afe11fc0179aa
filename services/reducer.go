package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bracketops/live-console/models"
)

// ApplyLiveEvent folds one event into the given snapshot. It is the single
// place where merge/aggregation policy lives: unknown teams are created
// lazily with defaults, score and player_kill append a full-width score
// history row, everything else touches only its targeted field.
//
// The caller owns snap (the aggregation service passes a clone) and must
// discard it when an error is returned: validation happens before any
// mutation, but discarding keeps the contract simple.
func ApplyLiveEvent(snap *models.MatchSnapshot, evt models.LiveEvent, ts time.Time) error {
	switch evt.Type {
	case models.EventScore:
		var p models.ScorePayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			return err
		}
		if p.Team == "" {
			return fmt.Errorf("%w: score event requires a team", ErrInvalidPayload)
		}
		team := snap.EnsureTeam(p.Team)
		// Points may be negative: operators submit corrections as
		// negative deltas. Totals are never clamped.
		team.Points += p.Points
		appendScoreHistory(snap, ts)

	case models.EventPlayerKill:
		var p models.PlayerKillPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			return err
		}
		if p.Team == "" {
			return fmt.Errorf("%w: player_kill event requires a team", ErrInvalidPayload)
		}
		if p.Player == "" {
			return fmt.Errorf("%w: player_kill event requires a player", ErrInvalidPayload)
		}
		team := snap.EnsureTeam(p.Team)
		// The kill counter is a count, independent of the caller-supplied
		// point value, which is added as-is (not re-derived).
		team.EnsurePlayer(p.Player).Kills++
		team.Points += p.Points
		appendScoreHistory(snap, ts)

	case models.EventStatus:
		var p models.StatusPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			return err
		}
		if p.Team == "" {
			return fmt.Errorf("%w: status event requires a team", ErrInvalidPayload)
		}
		if p.Status != models.TeamStatusAlive && p.Status != models.TeamStatusEliminated {
			return fmt.Errorf("%w: invalid team status %q", ErrInvalidPayload, p.Status)
		}
		snap.EnsureTeam(p.Team).Status = p.Status

	case models.EventAliveCount:
		var p models.AliveCountPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			return err
		}
		if p.Team == "" {
			return fmt.Errorf("%w: alive_count event requires a team", ErrInvalidPayload)
		}
		// Out-of-range counts are clamped, not rejected.
		count := p.Count
		if count < 0 {
			count = 0
		}
		if count > models.DefaultAliveCount {
			count = models.DefaultAliveCount
		}
		snap.EnsureTeam(p.Team).AliveCount = count

	case models.EventTicker:
		var p models.TickerPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			return err
		}
		snap.Ticker = p.Text

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, evt.Type)
	}

	return nil
}

// appendScoreHistory appends one row with the post-mutation totals of every
// known team, so a charted time slice never misses a team.
func appendScoreHistory(snap *models.MatchSnapshot, ts time.Time) {
	scores := make([]models.TeamScore, len(snap.Teams))
	for i, t := range snap.Teams {
		scores[i] = models.TeamScore{Team: t.Team, Points: t.Points}
	}
	snap.ScoreHistory = append(snap.ScoreHistory, models.ScoreHistoryEntry{
		Timestamp: ts,
		Scores:    scores,
	})
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
