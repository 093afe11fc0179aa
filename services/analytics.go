package services

import "github.com/bracketops/live-console/models"

// DefaultAliveWeight is the weight given to each surviving player when
// estimating win probability. Configurable via LIVE_ALIVE_WEIGHT: the exact
// coefficient is a policy knob, not an invariant.
const DefaultAliveWeight = 5.0

// WinProbability derives a normalized per-team likelihood estimate from the
// current standings: weight = points + k*alive_count for non-eliminated
// teams, renormalized to sum to 1. Eliminated teams always get 0. When every
// standing team has zero weight the estimate is uniform across them; when
// every team is eliminated all probabilities are 0 (defined, no division).
// Pure: the snapshot is never mutated.
func WinProbability(snap *models.MatchSnapshot, aliveWeight float64) map[string]float64 {
	probs := make(map[string]float64, len(snap.Teams))

	var total float64
	standing := 0
	for _, t := range snap.Teams {
		probs[t.Team] = 0
		if t.Status == models.TeamStatusEliminated {
			continue
		}
		standing++
		w := float64(t.Points) + aliveWeight*float64(t.AliveCount)
		if w > 0 {
			total += w
		}
	}

	if standing == 0 {
		return probs
	}

	for _, t := range snap.Teams {
		if t.Status == models.TeamStatusEliminated {
			continue
		}
		if total <= 0 {
			probs[t.Team] = 1 / float64(standing)
			continue
		}
		w := float64(t.Points) + aliveWeight*float64(t.AliveCount)
		if w < 0 {
			w = 0
		}
		probs[t.Team] = w / total
	}

	return probs
}

// PredictMVP returns the player with the highest kill counter across all
// teams. Ties (including all-zero counters) resolve to the first-encountered
// player in team insertion order, then player insertion order, which is
// deterministic because both collections are ordered slices. Nil only when
// no players have been recorded yet.
func PredictMVP(snap *models.MatchSnapshot) *models.MVPPrediction {
	var best *models.MVPPrediction
	for _, t := range snap.Teams {
		for _, p := range t.Players {
			if best == nil || p.Kills > best.Kills {
				best = &models.MVPPrediction{Team: t.Team, Player: p.Name, Kills: p.Kills}
			}
		}
	}
	return best
}
