package analysis

import (
	"strings"

	"github.com/fortuna/gridiron/internal/espn"
)

var rushPatterns = []string{
	"up the middle", "left end", "right end", "left tackle",
	"right tackle", "left guard", "right guard", "middle for",
	"around left", "around right",
}

// CalculateSuccess reports whether a play was successful under the standard
// analytics definition:
//   - 1st down: gained >= 40% of yards to go
//   - 2nd down: gained >= 60% of yards to go
//   - 3rd/4th down: gained 100% of yards to go (converted)
func CalculateSuccess(down int, distance, yardsGained float64) bool {
	switch down {
	case 1:
		return yardsGained >= 0.4*distance
	case 2:
		return yardsGained >= 0.6*distance
	case 3, 4:
		return yardsGained >= distance
	}
	return false
}

// anyStatContains checks play.statistics for stat-type text/abbreviation hits.
func anyStatContains(play *espn.Play, needles []string) bool {
	for _, stat := range play.Statistics {
		abbr := strings.ToLower(stat.Type.Abbreviation)
		text := strings.ToLower(stat.Type.Text)
		for _, n := range needles {
			if strings.Contains(abbr, n) || strings.Contains(text, n) {
				return true
			}
		}
	}
	return false
}

// isPenaltyPlay detects penalty plays that should be excluded from stats.
// Declined and offsetting penalties never wipe the play.
func isPenaltyPlay(play *espn.Play, textLower, typeLower string) bool {
	if strings.Contains(textLower, "declined") {
		return false
	}
	if strings.Contains(textLower, "offsetting") {
		return false
	}
	if play.Penalty != nil && strings.Contains(textLower, "no play") {
		return true
	}
	if play.HasPenalty && strings.Contains(textLower, "no play") {
		return true
	}
	if strings.Contains(textLower, "no play") &&
		(strings.Contains(textLower, "penalty") || strings.Contains(typeLower, "penalty")) {
		return true
	}
	return false
}

// isSpikeOrKneel detects clock-management plays.
func isSpikeOrKneel(textLower, typeLower string) bool {
	if strings.Contains(textLower, "spike") || strings.Contains(typeLower, "spike") {
		return true
	}
	return strings.Contains(textLower, "kneel") || strings.Contains(typeLower, "kneel")
}

// isSpecialTeamsPlay identifies punts, kickoffs, FGs and XPs. Touchdowns are
// never treated as special teams so offensive TDs survive the filter.
func isSpecialTeamsPlay(textLower, typeLower string) bool {
	if strings.Contains(textLower, "touchdown") || strings.Contains(typeLower, "touchdown") {
		return false
	}
	for _, k := range []string{"punt", "kickoff", "field goal", "extra point", "xp", "fg", "onside"} {
		if strings.Contains(textLower, k) || strings.Contains(typeLower, k) {
			return true
		}
	}
	return false
}

// isNullifiedPlay detects plays that did not happen.
func isNullifiedPlay(textLower string) bool {
	return strings.Contains(textLower, "nullified") || strings.Contains(textLower, "no play")
}

// isDeclinedOnlyPenalty reports whether a play's penalty content is entirely
// declined and should be kept out of penalty play lists.
//
// ESPN often embeds "declined" in play text even when an accepted penalty is
// also present (one enforced plus a second declined). When structured penalty
// info exists and is not declined, the play counts as an enforced penalty.
func isDeclinedOnlyPenalty(textLower string, penalty *espn.Penalty) bool {
	statusSlug := ""
	if penalty != nil && penalty.Status != nil {
		statusSlug = penalty.Status.Slug
	}

	if !strings.Contains(textLower, "declined") {
		return statusSlug == "declined"
	}
	if statusSlug != "" && statusSlug != "declined" {
		return false
	}
	if strings.Contains(textLower, "enforced") || strings.Contains(textLower, "accepted") ||
		strings.Contains(textLower, "no play") {
		return false
	}
	return true
}

func runPassHints(play *espn.Play, textLower, typeLower string) (rush, pass bool) {
	pass = anyStatContains(play, []string{"pass", "sack"}) ||
		strings.Contains(typeLower, "pass") || strings.Contains(typeLower, "sack") ||
		strings.Contains(typeLower, "scramble") || strings.Contains(textLower, "pass") ||
		strings.Contains(textLower, "sack") || strings.Contains(textLower, "scramble")

	rush = anyStatContains(play, []string{"rush"}) || strings.Contains(typeLower, "rush") ||
		strings.Contains(textLower, "run")
	if !rush {
		for _, p := range rushPatterns {
			if strings.Contains(textLower, p) {
				rush = true
				break
			}
		}
	}
	return rush, pass
}

func isReturnPlay(textLower, typeLower string) bool {
	if (strings.Contains(textLower, "kickoff") || strings.Contains(typeLower, "kickoff")) &&
		strings.Contains(typeLower, "return") {
		return true
	}
	if (strings.Contains(textLower, "punt") || strings.Contains(typeLower, "punt")) &&
		strings.Contains(typeLower, "return") {
		return true
	}
	return false
}

// ClassifyOffensePlay decides whether a play counts toward offensive
// SR/YPP/explosives. Returns (isOffense, isRun, isPass); sacks and scrambles
// are treated as pass dropbacks.
func ClassifyOffensePlay(play *espn.Play) (isOffense, isRun, isPass bool) {
	textLower := strings.ToLower(play.Text)
	typeLower := playTypeLower(play)

	if isNullifiedPlay(textLower) {
		return false, false, false
	}
	if isPenaltyPlay(play, textLower, typeLower) {
		return false, false, false
	}
	if isSpikeOrKneel(textLower, typeLower) {
		return false, false, false
	}
	if isSpecialTeamsPlay(textLower, typeLower) {
		return false, false, false
	}
	if isReturnPlay(textLower, typeLower) {
		return false, false, false
	}

	rush, pass := runPassHints(play, textLower, typeLower)
	if pass && rush && (strings.Contains(textLower, "scramble") || strings.Contains(typeLower, "scramble")) {
		rush = false
	}
	return true, rush, pass
}

// ClassifyTotalOffensePlay classifies plays for ESPN-style total offense
// reconciliation. Unlike ClassifyOffensePlay, kneels and spikes count, and
// aborted snaps with a fumble count as rush attempts.
func ClassifyTotalOffensePlay(play *espn.Play) (isOffense, isRun, isPass bool) {
	textLower := strings.ToLower(play.Text)
	typeLower := playTypeLower(play)

	if isNullifiedPlay(textLower) {
		return false, false, false
	}
	if isPenaltyPlay(play, textLower, typeLower) {
		return false, false, false
	}
	if isSpecialTeamsPlay(textLower, typeLower) {
		return false, false, false
	}
	if isReturnPlay(textLower, typeLower) {
		return false, false, false
	}

	if isSpikeOrKneel(textLower, typeLower) {
		kneel := strings.Contains(textLower, "kneel") || strings.Contains(typeLower, "kneel")
		spike := strings.Contains(textLower, "spike") || strings.Contains(typeLower, "spike")
		return true, kneel, spike
	}

	rush, pass := runPassHints(play, textLower, typeLower)
	if strings.Contains(textLower, "aborted") && strings.Contains(textLower, "fumble") {
		rush = true
	}
	if pass && rush && (strings.Contains(textLower, "scramble") || strings.Contains(typeLower, "scramble")) {
		rush = false
	}
	return true, rush, pass
}

func playTypeLower(play *espn.Play) string {
	if play.Type.Text == "" {
		return "unknown"
	}
	return strings.ToLower(play.Type.Text)
}
