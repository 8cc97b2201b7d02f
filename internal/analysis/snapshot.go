package analysis

import (
	"fmt"
	"strings"

	"github.com/fortuna/gridiron/internal/espn"
)

// CacheVersion tags cached game snapshots. Bump whenever the snapshot shape
// or derived-flag semantics change so stale entries are ignored.
const CacheVersion = "1.3"

// CacheTeam identifies one side of a cached game.
type CacheTeam struct {
	ID   string `json:"id"`
	Abbr string `json:"abbr"`
	Name string `json:"name"`
}

// CacheMeta is the meta record of the {meta, stats, plays} snapshot triad.
type CacheMeta struct {
	CacheVersion   string     `json:"cache_version"`
	Status         string     `json:"status"`
	GameID         string     `json:"game_id"`
	CompletionTime *string    `json:"completion_time"`
	WPThreshold    float64    `json:"wp_threshold"`
	Week           WeekInfo   `json:"week"`
	HomeTeam       CacheTeam  `json:"home_team"`
	AwayTeam       CacheTeam  `json:"away_team"`
	TeamMeta       []TeamMeta `json:"team_meta"`
}

// CacheStats holds the finalized stat rows of a cached game.
type CacheStats struct {
	Rows []StatsRow `json:"rows"`
}

// CachedPlay is one compact play record with flags pre-derived from text, so
// rebuilding a payload never re-parses play descriptions.
type CachedPlay struct {
	PlayID       string   `json:"play_id"`
	Quarter      int      `json:"quarter"`
	Clock        string   `json:"clock"`
	Text         string   `json:"text"`
	Yards        int      `json:"yards"`
	EndPos       string   `json:"end_pos"`
	StartHomeWP  *float64 `json:"start_home_wp"`
	StartAwayWP  *float64 `json:"start_away_wp"`
	HomeWP       *float64 `json:"home_wp"`
	AwayWP       *float64 `json:"away_wp"`
	WPDelta      *float64 `json:"wp_delta"`
	IsOffensive  bool     `json:"is_offensive"`
	IsRun        bool     `json:"is_run"`
	IsPass       bool     `json:"is_pass"`
	IsSuccessful bool     `json:"is_successful"`
	IsTurnover   bool     `json:"is_turnover"`
	DriveTeam    string   `json:"drive_team"`
	HomeScore    int      `json:"home_score"`
	AwayScore    int      `json:"away_score"`
	Down         int      `json:"down"`
	Distance     int      `json:"distance"`
}

// CachedDriveStart records where and why a drive started.
type CachedDriveStart struct {
	DriveTeam   string   `json:"drive_team"`
	Quarter     int      `json:"quarter"`
	Clock       string   `json:"clock"`
	Text        string   `json:"text"`
	Type        string   `json:"type"`
	StartPos    string   `json:"start_pos"`
	EndPos      string   `json:"end_pos"`
	StartHomeWP *float64 `json:"start_home_wp"`
	StartAwayWP *float64 `json:"start_away_wp"`
}

// CachePlays is the plays record of the snapshot triad.
type CachePlays struct {
	PregameHomeWP float64            `json:"pregame_home_wp"`
	PregameAwayWP float64            `json:"pregame_away_wp"`
	DriveStarts   []CachedDriveStart `json:"drive_starts"`
	Plays         []CachedPlay       `json:"plays"`
	PlayCount     int                `json:"play_count"`
}

const cachedTextLimit = 500

// BuildCacheMeta builds the meta snapshot record for a final game.
func BuildCacheMeta(gameID string, teamMeta []TeamMeta, threshold float64,
	lastPlayTime *string, week WeekInfo) CacheMeta {

	var home, away CacheTeam
	for _, tm := range teamMeta {
		ct := CacheTeam{ID: tm.ID, Abbr: tm.Abbr, Name: tm.Name}
		switch tm.HomeAway {
		case "home":
			home = ct
		case "away":
			away = ct
		}
	}
	return CacheMeta{
		CacheVersion:   CacheVersion,
		Status:         StatusFinal,
		GameID:         gameID,
		CompletionTime: lastPlayTime,
		WPThreshold:    threshold,
		Week:           week,
		HomeTeam:       home,
		AwayTeam:       away,
		TeamMeta:       teamMeta,
	}
}

// BuildCacheStats wraps the finalized rows.
func BuildCacheStats(rows []StatsRow) CacheStats {
	return CacheStats{Rows: rows}
}

// BuildCachePlays compacts the raw drives into cached play records with
// derived offense/success/turnover flags and a rounded win probability walk.
func BuildCachePlays(game *espn.GameData, probMap map[string]espn.Probability,
	pregame *espn.PregameProbabilities) CachePlays {

	drives := game.Drives.Previous

	idToAbbr := map[string]string{}
	knownAbbrs := map[string]bool{}
	for _, t := range game.Boxscore.Teams {
		tid := t.Team.ID.String()
		if tid != "" && t.Team.Abbreviation != "" {
			idToAbbr[tid] = t.Team.Abbreviation
			knownAbbrs[strings.ToUpper(t.Team.Abbreviation)] = true
		}
	}

	tracker := newWPTracker(pregame)
	pregameHome, pregameAway := tracker.home, tracker.away

	var playsList []CachedPlay
	var driveStarts []CachedDriveStart

	for driveIndex, drive := range drives {
		driveTeamAbbr := idToAbbr[drive.Team.ID.String()]

		drivePlays := drive.Plays
		var firstPlay *espn.Play
		if len(drivePlays) > 0 {
			firstPlay = &drivePlays[0]
		}
		driveStartYTE := -1
		if drive.Start.YardsToEndzone != nil {
			driveStartYTE = *drive.Start.YardsToEndzone
		}
		driveStartText := strings.TrimSpace(drive.Start.Text)

		if firstPlay != nil && driveStartYTE != -1 {
			startPos := driveStartText
			if startPos == "" {
				startPos = fmt.Sprintf("Own %d", 100-driveStartYTE)
			}

			var causePlay *espn.Play
			if isKickOrPuntStart(firstPlay) {
				causePlay = firstPlay
			} else if driveIndex > 0 {
				prevPlays := drives[driveIndex-1].Plays
				for i := len(prevPlays) - 1; i >= 0; i-- {
					if !isDriveBoundaryNoise(&prevPlays[i]) {
						causePlay = &prevPlays[i]
						break
					}
				}
			}

			ds := CachedDriveStart{
				DriveTeam:   driveTeamAbbr,
				Quarter:     firstPlay.Period.Number,
				Clock:       firstPlay.Clock.DisplayValue,
				Text:        "Start of game",
				Type:        "Drive Start",
				StartPos:    startPos,
				EndPos:      startPos,
				StartHomeWP: floatPtr(roundTo(tracker.home, 4)),
				StartAwayWP: floatPtr(roundTo(tracker.away, 4)),
			}
			if causePlay != nil {
				ds.Text = truncate(causePlay.Text, cachedTextLimit)
				if causePlay.Type.Text != "" {
					ds.Type = causePlay.Type.Text
				}
			}
			driveStarts = append(driveStarts, ds)
		}

		for pi := range drivePlays {
			play := &drivePlays[pi]
			playID := play.ID.String()
			if playID == "" {
				continue
			}

			startHome, startAway := tracker.home, tracker.away

			var homeWP, awayWP, wpDelta *float64
			if prob, ok := probMap[playID]; ok {
				if prob.HomeWinPercentage != nil {
					homeWP = floatPtr(roundTo(*prob.HomeWinPercentage, 4))
					wpDelta = floatPtr(roundTo(*prob.HomeWinPercentage-startHome, 4))
				}
				if prob.AwayWinPercentage != nil {
					awayWP = floatPtr(roundTo(*prob.AwayWinPercentage, 4))
				}
			}

			isOffense, isRun, isPass := ClassifyOffensePlay(play)

			eventText := FinalPlayText(play.Text)
			eventTextLower := strings.ToLower(eventText)

			isTwoPointAttempt := strings.Contains(eventTextLower, "two-point") ||
				strings.Contains(eventTextLower, "2-point") ||
				strings.Contains(eventTextLower, "conversion attempt")

			isInterception := !isTwoPointAttempt && strings.Contains(eventTextLower, "intercept")
			isFumbleTurnover := false
			if !isTwoPointAttempt && strings.Contains(eventTextLower, "fumble") &&
				strings.Contains(eventTextLower, "recovered by") {
				recoveredAbbr := ""
				if m := recoveredByRe.FindStringSubmatch(eventTextLower); m != nil {
					recoveredAbbr = normalizeAbbr(m[1], knownAbbrs)
				}
				offenseAbbr := normalizeAbbr(driveTeamAbbr, knownAbbrs)
				if recoveredAbbr != "" && offenseAbbr != "" {
					isFumbleTurnover = recoveredAbbr != offenseAbbr
				} else {
					isFumbleTurnover = true
				}
			}

			down, distance := playDownAndDistance(play)
			isSuccessful := isOffense && CalculateSuccess(down, float64(distance), float64(play.StatYardage))

			endPos := ""
			if play.End != nil {
				endPos = play.End.PossessionText
				if endPos == "" {
					endPos = play.End.DownDistanceText
				}
			}

			playsList = append(playsList, CachedPlay{
				PlayID:       playID,
				Quarter:      play.Period.Number,
				Clock:        play.Clock.DisplayValue,
				Text:         truncate(play.Text, cachedTextLimit),
				Yards:        play.StatYardage,
				EndPos:       endPos,
				StartHomeWP:  floatPtr(roundTo(startHome, 4)),
				StartAwayWP:  floatPtr(roundTo(startAway, 4)),
				HomeWP:       homeWP,
				AwayWP:       awayWP,
				WPDelta:      wpDelta,
				IsOffensive:  isOffense,
				IsRun:        isRun,
				IsPass:       isPass,
				IsSuccessful: isSuccessful,
				IsTurnover:   isInterception || isFumbleTurnover,
				DriveTeam:    driveTeamAbbr,
				HomeScore:    play.HomeScore,
				AwayScore:    play.AwayScore,
				Down:         down,
				Distance:     distance,
			})

			tracker.advance(playID, probMap)
		}
	}

	return CachePlays{
		PregameHomeWP: pregameHome,
		PregameAwayWP: pregameAway,
		DriveStarts:   driveStarts,
		Plays:         playsList,
		PlayCount:     len(playsList),
	}
}

// RebuildPayload reconstructs a full analysis payload from the cached
// snapshot triad without touching the raw feed. The summary and advanced
// tables match a fresh run's shape field for field.
func RebuildPayload(meta CacheMeta, stats CacheStats, plays CachePlays, threshold float64) *Payload {
	if threshold == 0 {
		threshold = DefaultWPThreshold
	}

	label := fmt.Sprintf("%s_at_%s_%s",
		orDefault(meta.AwayTeam.Abbr, "AWAY"), orDefault(meta.HomeTeam.Abbr, "HOME"), meta.GameID)

	week := meta.Week
	payload := &Payload{
		GameID:       meta.GameID,
		Label:        label,
		Status:       StatusFinal,
		GameClock:    nil,
		LastPlayTime: meta.CompletionTime,
		Week:         &week,
		WPFilter: WPFilter{
			Enabled:     true,
			Threshold:   threshold,
			Description: fmt.Sprintf("Stats reflect competitive plays only (WP < %.1f%%)", threshold*100),
		},
		TeamMeta:            meta.TeamMeta,
		SummaryTable:        summaryRows(stats.Rows),
		AdvancedTable:       advancedRows(stats.Rows),
		SummaryTableFull:    summaryRows(stats.Rows),
		AdvancedTableFull:   advancedRows(stats.Rows),
		ExpandedDetails:     sliceDetails(rebuildExpandedDetails(plays, meta, threshold)),
		ExpandedDetailsFull: sliceDetails(rebuildExpandedDetails(plays, meta, 1.0)),
		FromCache:           true,
	}
	payload.Analysis = BuildAnalysisText(payload)
	return payload
}

// rebuildExpandedDetails re-derives the categorized detail lists from cached
// play records. Competitiveness comes from stored start-of-play WPs (end WPs
// as fallback, overtime always competitive); scoring points come from
// consecutive score snapshots.
func rebuildExpandedDetails(plays CachePlays, meta CacheMeta, threshold float64) ExpandedDetails {
	homeID, awayID := meta.HomeTeam.ID, meta.AwayTeam.ID
	abbrToID := map[string]string{
		meta.HomeTeam.Abbr: homeID,
		meta.AwayTeam.Abbr: awayID,
	}

	expanded := ExpandedDetails{}
	for _, tid := range []string{homeID, awayID} {
		cats := map[string][]DetailEntry{}
		for _, c := range AllCategories {
			cats[c] = []DetailEntry{}
		}
		expanded[tid] = cats
	}

	prevHomeScore, prevAwayScore := 0, 0

	for _, play := range plays.Plays {
		teamID := abbrToID[play.DriveTeam]
		if teamID == "" {
			continue
		}

		competitive := true
		if play.Quarter < 5 {
			switch {
			case play.StartHomeWP != nil && play.StartAwayWP != nil:
				competitive = *play.StartHomeWP < threshold && *play.StartAwayWP < threshold
			default:
				if play.HomeWP != nil && *play.HomeWP >= threshold {
					competitive = false
				}
				if play.AwayWP != nil && *play.AwayWP >= threshold {
					competitive = false
				}
			}
		}

		if !competitive {
			prevHomeScore = play.HomeScore
			prevAwayScore = play.AwayScore
			continue
		}

		textLower := strings.ToLower(play.Text)
		hasPenalty := strings.Contains(textLower, "penalty")

		isScoring := play.HomeScore != prevHomeScore || play.AwayScore != prevAwayScore
		pointsScored := 0
		if isScoring {
			if play.DriveTeam == meta.HomeTeam.Abbr {
				pointsScored = play.HomeScore - prevHomeScore
			} else {
				pointsScored = play.AwayScore - prevAwayScore
			}
		}

		var probability *ProbabilitySnapshot
		if play.HomeWP != nil && play.AwayWP != nil {
			delta := 0.0
			if play.WPDelta != nil {
				delta = *play.WPDelta
			}
			probability = &ProbabilitySnapshot{
				HomeWinPercentage: *play.HomeWP,
				AwayWinPercentage: *play.AwayWP,
				HomeDelta:         delta,
				AwayDelta:         -delta,
			}
		}

		playType := "Unknown"
		switch {
		case play.IsRun:
			playType = "Run"
		case play.IsPass:
			playType = "Pass"
		case play.IsTurnover:
			playType = "Turnover"
		case hasPenalty:
			playType = "Penalty"
		}

		base := DetailEntry{
			Type:        playType,
			Text:        play.Text,
			Yards:       intPtr(play.Yards),
			Quarter:     play.Quarter,
			Clock:       play.Clock,
			EndPos:      play.EndPos,
			Probability: probability,
		}

		meaningful := (play.IsOffensive && (play.IsRun || play.IsPass)) ||
			isScoring || play.IsTurnover || hasPenalty
		if meaningful {
			entry := base
			if isScoring && pointsScored > 0 {
				entry.Points = intPtr(pointsScored)
			}
			expanded[teamID][CategoryAllPlays] = append(expanded[teamID][CategoryAllPlays], entry)
		}

		if play.IsTurnover {
			expanded[teamID][CategoryTurnovers] = append(expanded[teamID][CategoryTurnovers], base)
		}

		if play.IsOffensive {
			if (play.IsRun && play.Yards >= 10) || (play.IsPass && play.Yards >= 20) {
				entry := base
				if play.IsRun {
					entry.Type = "Run"
				} else {
					entry.Type = "Pass"
				}
				expanded[teamID][CategoryExplosivePlays] =
					append(expanded[teamID][CategoryExplosivePlays], entry)
			}
		}

		if hasPenalty {
			expanded[teamID][CategoryPenaltyYards] =
				append(expanded[teamID][CategoryPenaltyYards], base)
		}

		prevHomeScore = play.HomeScore
		prevAwayScore = play.AwayScore
	}

	for _, ds := range plays.DriveStarts {
		teamID := abbrToID[ds.DriveTeam]
		if teamID == "" {
			continue
		}

		competitive := true
		if ds.Quarter < 5 && ds.StartHomeWP != nil && ds.StartAwayWP != nil {
			competitive = *ds.StartHomeWP < threshold && *ds.StartAwayWP < threshold
		}
		if !competitive {
			continue
		}

		endPos := ds.EndPos
		if endPos == "" {
			endPos = ds.StartPos
		}
		expanded[teamID][CategoryDriveStarts] = append(expanded[teamID][CategoryDriveStarts],
			DetailEntry{
				Type:     orDefault(ds.Type, "Drive Start"),
				Text:     ds.Text,
				Quarter:  ds.Quarter,
				Clock:    ds.Clock,
				StartPos: ds.StartPos,
				EndPos:   endPos,
			})
	}

	return expanded
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
