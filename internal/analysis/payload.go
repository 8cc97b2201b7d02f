package analysis

import (
	"fmt"
	"strings"

	"github.com/fortuna/gridiron/internal/espn"
)

// Game status values on payloads.
const (
	StatusFinal      = "final"
	StatusInProgress = "in-progress"
	StatusPregame    = "pregame"
)

// BuildPayload runs the engine twice, filtered at threshold and unfiltered at
// 1.0, and assembles the full analysis payload for one game. The filtered
// stats rows are also returned so callers can build cache snapshots without a
// third run.
func BuildPayload(gameID string, game *espn.GameData, probMap map[string]espn.Probability,
	pregame *espn.PregameProbabilities, threshold float64) (*Payload, []StatsRow) {

	if threshold == 0 {
		threshold = DefaultWPThreshold
	}

	statsFiltered, detailsFiltered := ProcessGameStats(game, Options{
		Expanded:       true,
		ProbabilityMap: probMap,
		Pregame:        pregame,
		WPThreshold:    threshold,
	})
	statsFull, detailsFull := ProcessGameStats(game, Options{
		Expanded:       true,
		ProbabilityMap: probMap,
		Pregame:        pregame,
		WPThreshold:    1.0,
	})

	teamMeta, statusLabel, gameIsFinal := extractHeader(game)
	homeAbbr, awayAbbr := "", ""
	for _, tm := range teamMeta {
		switch tm.HomeAway {
		case "home":
			homeAbbr = tm.Abbr
		case "away":
			awayAbbr = tm.Abbr
		}
	}

	status := StatusPregame
	switch {
	case gameIsFinal:
		status = StatusFinal
	case strings.HasPrefix(statusLabel, "Q") || strings.HasPrefix(statusLabel, "OT"):
		status = StatusInProgress
	}

	label := fmt.Sprintf("game_%s", gameID)
	if awayAbbr != "" && homeAbbr != "" {
		label = fmt.Sprintf("%s_at_%s_%s", awayAbbr, homeAbbr, gameID)
	}

	var gameClock *GameClock
	if !gameIsFinal && len(game.Header.Competitions) > 0 {
		st := game.Header.Competitions[0].Status
		if st.Period > 0 {
			gameClock = &GameClock{
				Quarter:      st.Period,
				Clock:        st.DisplayClock,
				DisplayValue: statusLabel,
			}
		}
	}

	var lastPlayTime *string
	if !gameIsFinal {
		if ts := LastPlayTime(game); ts != "" {
			lastPlayTime = &ts
		}
	}

	payload := &Payload{
		GameID:       gameID,
		Label:        label,
		Status:       status,
		GameClock:    gameClock,
		LastPlayTime: lastPlayTime,
		WPFilter: WPFilter{
			Enabled:     true,
			Threshold:   threshold,
			Description: fmt.Sprintf("Stats reflect competitive plays only (WP < %.1f%%)", threshold*100),
		},
		TeamMeta:            teamMeta,
		SummaryTable:        summaryRows(statsFiltered),
		AdvancedTable:       advancedRows(statsFiltered),
		SummaryTableFull:    summaryRows(statsFull),
		AdvancedTableFull:   advancedRows(statsFull),
		ExpandedDetails:     sliceDetails(detailsFiltered),
		ExpandedDetailsFull: sliceDetails(detailsFull),
	}
	payload.Analysis = BuildAnalysisText(payload)

	return payload, statsFiltered
}

// extractHeader pulls team metadata and the live status label out of the
// game header.
func extractHeader(game *espn.GameData) (teamMeta []TeamMeta, statusLabel string, isFinal bool) {
	statusLabel = "Final"
	isFinal = true

	if len(game.Header.Competitions) == 0 {
		return nil, statusLabel, isFinal
	}
	comp := game.Header.Competitions[0]
	isFinal = comp.Status.Type.Completed

	if !isFinal {
		period := comp.Status.Period
		clock := comp.Status.DisplayClock
		if period <= 4 {
			statusLabel = strings.TrimSpace(fmt.Sprintf("Q%d %s", period, clock))
		} else if clock != "" {
			statusLabel = strings.TrimSpace("OT " + clock)
		} else {
			statusLabel = "OT"
		}
	}

	for _, c := range comp.Competitors {
		name := c.Team.DisplayName
		if name == "" {
			name = c.Team.Abbreviation
		}
		teamMeta = append(teamMeta, TeamMeta{
			ID:       c.ID.String(),
			Abbr:     c.Team.Abbreviation,
			Name:     name,
			HomeAway: c.HomeAway,
		})
	}
	return teamMeta, statusLabel, isFinal
}

// LastPlayTime returns the wallclock timestamp of the most recent play,
// checking the current drive first for live games, then previous drives.
func LastPlayTime(game *espn.GameData) string {
	fromPlays := func(plays []espn.Play) string {
		if len(plays) == 0 {
			return ""
		}
		last := plays[len(plays)-1]
		if last.Wallclock != "" {
			return last.Wallclock
		}
		return last.Modified
	}

	if game.Drives.Current != nil {
		if ts := fromPlays(game.Drives.Current.Plays); ts != "" {
			return ts
		}
	}
	if n := len(game.Drives.Previous); n > 0 {
		return fromPlays(game.Drives.Previous[n-1].Plays)
	}
	return ""
}

func summaryRows(rows []StatsRow) []SummaryRow {
	out := make([]SummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, SummaryRow{
			Team:       r.Team,
			Score:      r.Score,
			TotalYards: r.TotalYards,
			Drives:     r.Drives,
		})
	}
	return out
}

func advancedRows(rows []StatsRow) []AdvancedRow {
	out := make([]AdvancedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdvancedRow{
			Team:               r.Team,
			Score:              r.Score,
			Turnovers:          r.Turnovers,
			TotalYards:         r.TotalYards,
			YardsPerPlay:       r.YardsPerPlay,
			SuccessRate:        r.SuccessRate,
			ExplosivePlays:     r.ExplosivePlays,
			ExplosivePlayRate:  r.ExplosivePlayRate,
			PointsPerTrip:      r.PointsPerTrip,
			AveStartFieldPos:   r.AveStartFieldPos,
			PenaltyYards:       r.PenaltyYards,
			NonOffensivePoints: r.NonOffensivePoints,
		})
	}
	return out
}

// sliceDetails trims fold output down to the categories exposed on payloads.
func sliceDetails(source ExpandedDetails) ExpandedDetails {
	out := ExpandedDetails{}
	for teamID, cats := range source {
		sliced := map[string][]DetailEntry{}
		for _, c := range ExpandedCategories {
			entries := cats[c]
			if entries == nil {
				entries = []DetailEntry{}
			}
			sliced[c] = entries
		}
		out[teamID] = sliced
	}
	return out
}

// BuildAnalysisText creates the short plain-text game summary for the UI.
func BuildAnalysisText(payload *Payload) string {
	var away, home TeamMeta
	for _, tm := range payload.TeamMeta {
		switch tm.HomeAway {
		case "away":
			away = tm
		case "home":
			home = tm
		}
	}
	awayAbbr, homeAbbr := away.Abbr, home.Abbr
	if awayAbbr == "" {
		awayAbbr = "Away"
	}
	if homeAbbr == "" {
		homeAbbr = "Home"
	}

	summaryByTeam := map[string]SummaryRow{}
	for _, r := range payload.SummaryTable {
		summaryByTeam[r.Team] = r
	}
	advancedByTeam := map[string]AdvancedRow{}
	for _, r := range payload.AdvancedTable {
		advancedByTeam[r.Team] = r
	}

	var parts []string
	awaySummary, awayOK := summaryByTeam[awayAbbr]
	homeSummary, homeOK := summaryByTeam[homeAbbr]
	switch {
	case awayOK && homeOK && awaySummary.Score > homeSummary.Score:
		parts = append(parts, fmt.Sprintf("%s lead %s %d-%d.", awayAbbr, homeAbbr, awaySummary.Score, homeSummary.Score))
	case awayOK && homeOK && homeSummary.Score > awaySummary.Score:
		parts = append(parts, fmt.Sprintf("%s lead %s %d-%d.", homeAbbr, awayAbbr, homeSummary.Score, awaySummary.Score))
	case awayOK && homeOK:
		parts = append(parts, fmt.Sprintf("All square at %d-%d.", awaySummary.Score, homeSummary.Score))
	default:
		parts = append(parts, fmt.Sprintf("%s vs %s.", awayAbbr, homeAbbr))
	}

	awayAdv, awayAdvOK := advancedByTeam[awayAbbr]
	homeAdv, homeAdvOK := advancedByTeam[homeAbbr]
	if awayAdvOK && homeAdvOK {
		parts = append(parts, fmt.Sprintf("Explosive plays: %s %d vs %s %d.",
			awayAbbr, awayAdv.ExplosivePlays, homeAbbr, homeAdv.ExplosivePlays))
		parts = append(parts, fmt.Sprintf("Yards per play: %s %.2f vs %s %.2f.",
			awayAbbr, awayAdv.YardsPerPlay, homeAbbr, homeAdv.YardsPerPlay))
	}

	return strings.Join(parts, " ")
}
