package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// ESPN replay notes are inconsistent about punctuation/spacing:
// e.g. "play was REVERSED.(Shotgun) ..." or "play was REVERSED (Shotgun) ..."
var (
	replayDecisionRe  = regexp.MustCompile(`(?i)\b(?:reversed|overturned)\b[.:]?\s*`)
	yardsForRe        = regexp.MustCompile(`(?i)\bfor (-?\d+) yards\b`)
	yardsLossRe       = regexp.MustCompile(`(?i)\bfor loss of (\d+) yards\b`)
	recoveredByRe     = regexp.MustCompile(`(?i)\brecovered by\s+([a-zA-Z]{2,4})\b`)
	enforcedAtSpotRe  = regexp.MustCompile(`(?i)\benforced at(?: the)?\s+([A-Za-z]{2,3})\s+(\d{1,2})\b`)
	endPosFromDownsRe = regexp.MustCompile(`\bat\s+([A-Z]{2,3}\s+\d+)\b`)
)

// ESPN play text can use older abbreviations than the boxscore/team metadata.
var teamAbbrAliases = map[string]string{
	"was": "wsh",
	"la":  "lar",
	"jac": "jax",
}

// FinalPlayText resolves ESPN replay re-statements. Play text sometimes
// contains the original ruling plus a corrected re-statement after
// "REVERSED."/"OVERTURNED.". Event detection must use the final re-stated
// portion when present, otherwise the original text.
func FinalPlayText(text string) string {
	if text == "" {
		return ""
	}

	locs := replayDecisionRe.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}

	last := locs[len(locs)-1]
	candidate := strings.TrimLeft(text[last[1]:], " \t\n")
	if candidate == "" {
		return text
	}
	return candidate
}

// creditedYardsBeforeFumble extracts the officially credited gain/loss on a
// fumble play. statYardage can reflect net outcome including the recovery,
// while offense yards are credited up to the fumble. Uses the last
// "for X yards" mention before the first "fumble" in the resolved text.
// Returns (0, false) when no credited yardage can be derived.
func creditedYardsBeforeFumble(eventText string) (int, bool) {
	if eventText == "" {
		return 0, false
	}
	lower := strings.ToLower(eventText)
	idx := strings.Index(lower, "fumble")
	if idx < 0 {
		return 0, false
	}
	prefix := lower[:idx]

	matches := yardsForRe.FindAllStringSubmatch(prefix, -1)
	if len(matches) > 0 {
		n, err := strconv.Atoi(matches[len(matches)-1][1])
		if err != nil {
			return 0, false
		}
		return n, true
	}

	if strings.Contains(prefix, "for no gain") || strings.Contains(prefix, "for no loss") {
		return 0, true
	}

	if m := yardsLossRe.FindStringSubmatch(prefix); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return -n, true
	}

	return 0, false
}

// enforcedAtYardsToEndzone parses "enforced at XXX NN" and converts it to
// yardsToEndzone relative to the offense. This derives the offensive yards
// credited on accepted-penalty plays without folding the penalty yardage
// into Total Yards.
func enforcedAtYardsToEndzone(eventText, offenseAbbrev string) (int, bool) {
	if eventText == "" || offenseAbbrev == "" {
		return 0, false
	}
	m := enforcedAtSpotRe.FindStringSubmatch(eventText)
	if m == nil {
		return 0, false
	}
	side := strings.ToUpper(m[1])
	yard, err := strconv.Atoi(m[2])
	if err != nil || yard < 0 || yard > 50 {
		return 0, false
	}
	if yard == 50 {
		return 50, true
	}
	if side == strings.ToUpper(offenseAbbrev) {
		return 100 - yard, true
	}
	return yard, true
}

// YardlineToCoord converts a possessionText like "SEA 24" into a 0-100
// coordinate from the perspective of teamAbbr's own goal line.
// Returns (0, false) when the text cannot be parsed.
func YardlineToCoord(posText, teamAbbr string) (int, bool) {
	if posText == "" || teamAbbr == "" {
		return 0, false
	}
	parts := strings.Fields(strings.TrimSpace(posText))
	if len(parts) != 2 {
		return 0, false
	}
	yard, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(parts[0], teamAbbr) {
		return yard, true
	}
	return 100 - yard, true
}

// normalizeAbbr maps a play-text team abbreviation onto one of the known
// boxscore abbreviations, applying the alias table and, for 2-letter
// abbreviations, a unique-prefix match.
func normalizeAbbr(abbr string, known map[string]bool) string {
	if abbr == "" {
		return ""
	}
	a := strings.ToUpper(abbr)
	if known[a] {
		return a
	}
	if mapped, ok := teamAbbrAliases[strings.ToLower(a)]; ok {
		mapped = strings.ToUpper(mapped)
		if known[mapped] {
			return mapped
		}
	}
	if len(a) == 2 {
		var match string
		count := 0
		for k := range known {
			if strings.HasPrefix(k, a) {
				match = k
				count++
			}
		}
		if count == 1 {
			return match
		}
	}
	return a
}
