package analysis

import (
	"github.com/fortuna/gridiron/internal/espn"
)

// DefaultWPThreshold is the win probability above which a play is considered
// garbage time and excluded from filtered stats.
const DefaultWPThreshold = 0.975

// ProbabilitySnapshot carries a play's end-of-play win probabilities plus the
// deltas against the tracker state before the play. Attached to detail
// entries so the UI can show swing plays.
type ProbabilitySnapshot struct {
	HomeWinPercentage float64 `json:"homeWinPercentage"`
	AwayWinPercentage float64 `json:"awayWinPercentage"`
	TiePercentage     float64 `json:"tiePercentage"`
	HomeDelta         float64 `json:"homeDelta"`
	AwayDelta         float64 `json:"awayDelta"`
}

func sanitizeProb(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	if *v < 0 {
		return 0
	}
	if *v > 1 {
		return 1
	}
	return *v
}

// wpTracker holds the running home/away win probability during the fold.
// Start-of-play WP is the tracker's current state; only the explicit advance
// step mutates it.
type wpTracker struct {
	home float64
	away float64
}

func newWPTracker(pregame *espn.PregameProbabilities) wpTracker {
	if pregame == nil {
		return wpTracker{home: 0.5, away: 0.5}
	}
	home := clamp01(pregame.Home)
	away := clamp01(pregame.Away)
	return wpTracker{home: home, away: away}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// snapshot computes the probability snapshot for a play without mutating the
// tracker. Returns nil when the play has no probability entry.
func (t *wpTracker) snapshot(playID string, probMap map[string]espn.Probability) *ProbabilitySnapshot {
	if playID == "" {
		return nil
	}
	prob, ok := probMap[playID]
	if !ok {
		return nil
	}

	home := sanitizeProb(prob.HomeWinPercentage, 0.5)
	away := sanitizeProb(prob.AwayWinPercentage, 0.5)

	return &ProbabilitySnapshot{
		HomeWinPercentage: home,
		AwayWinPercentage: away,
		TiePercentage:     prob.TiePercentage,
		HomeDelta:         home - t.home,
		AwayDelta:         away - t.away,
	}
}

// advance moves the tracker to the play's end-of-play probabilities, when
// present. Missing entries leave the state untouched.
func (t *wpTracker) advance(playID string, probMap map[string]espn.Probability) {
	if playID == "" {
		return
	}
	prob, ok := probMap[playID]
	if !ok {
		return
	}
	if prob.HomeWinPercentage != nil {
		t.home = sanitizeProb(prob.HomeWinPercentage, t.home)
	}
	if prob.AwayWinPercentage != nil {
		t.away = sanitizeProb(prob.AwayWinPercentage, t.away)
	}
}

// IsCompetitivePlay reports whether a play occurred while the game was still
// competitive:
//   - always true in overtime (period >= 5)
//   - true when no probability data exists for the play
//   - otherwise true when EITHER the start-of-play or end-of-play
//     probabilities keep both sides below threshold, so the swing play that
//     makes a game competitive again is itself counted
//
// startHome/startAway are the start-of-play probabilities (nil when unknown);
// probMap supplies end-of-play values.
func IsCompetitivePlay(period int, playID string, probMap map[string]espn.Probability,
	threshold float64, startHome, startAway *float64) bool {

	if period >= 5 {
		return true
	}

	var startCompetitive, endCompetitive *bool
	if startHome != nil && startAway != nil {
		c := maxFloat(*startHome, *startAway) < threshold
		startCompetitive = &c
	}

	if playID != "" {
		if prob, ok := probMap[playID]; ok {
			if prob.HomeWinPercentage != nil && prob.AwayWinPercentage != nil {
				c := maxFloat(*prob.HomeWinPercentage, *prob.AwayWinPercentage) < threshold
				endCompetitive = &c
			}
		}
	}

	switch {
	case startCompetitive == nil && endCompetitive == nil:
		return true
	case startCompetitive == nil:
		return *endCompetitive
	case endCompetitive == nil:
		return *startCompetitive
	default:
		return *startCompetitive || *endCompetitive
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
