package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/fortuna/gridiron/internal/espn"
)

// Options configures one aggregation run.
type Options struct {
	// Expanded also builds the categorized detail lists.
	Expanded bool
	// ProbabilityMap holds end-of-play win probabilities keyed by play id.
	ProbabilityMap map[string]espn.Probability
	// Pregame seeds the win probability tracker; nil means 50/50.
	Pregame *espn.PregameProbabilities
	// WPThreshold gates competitive plays; zero means DefaultWPThreshold.
	WPThreshold float64
}

type turnoverEvent struct {
	teamID string
	reason string
}

type scoringInfo struct {
	teamID       string
	points       int
	nonOffensive bool
}

// teamTotals is one team's running accumulator during the fold.
type teamTotals struct {
	team               string
	score              int
	plays              int
	offensiveYards     int
	totalYards         int
	successfulPlays    int
	explosivePlays     int
	turnovers          int
	drivesInside40     int
	pointsInside40     int
	startFieldPosSum   int
	drivesCount        int
	drivePoints        int
	puntNetSum         int
	puntPlays          int
	kickNetSum         int
	kickPlays          int
	stPenalties        int
	penaltyYards       int
	penaltyCount       int
	nonOffensivePoints int
}

// ProcessGameStats folds a game's drives and plays into per-team stat rows,
// optionally with categorized detail lists. The fold is strictly sequential:
// turnover possession, win probability, and field position state all depend
// on original play order. A malformed play degrades to non-counting; it never
// aborts the run.
func ProcessGameStats(game *espn.GameData, opts Options) ([]StatsRow, ExpandedDetails) {
	threshold := opts.WPThreshold
	if threshold == 0 {
		threshold = DefaultWPThreshold
	}
	probMap := opts.ProbabilityMap
	if probMap == nil {
		probMap = map[string]espn.Probability{}
	}
	drives := game.Drives.Previous

	idToAbbr := map[string]string{}
	abbrToID := map[string]string{}
	var teamOrder []string
	for _, t := range game.Boxscore.Teams {
		tid := t.Team.ID.String()
		abbr := t.Team.Abbreviation
		if tid == "" || abbr == "" {
			continue
		}
		idToAbbr[tid] = abbr
		abbrToID[strings.ToUpper(abbr)] = tid
		teamOrder = append(teamOrder, tid)
	}
	knownAbbrs := map[string]bool{}
	for abbr := range abbrToID {
		knownAbbrs[abbr] = true
	}

	// Map play id -> drive offense team.
	playToDriveTeam := map[string]string{}
	for _, drive := range drives {
		dtid := drive.Team.ID.String()
		for _, play := range drive.Plays {
			if pid := play.ID.String(); pid != "" {
				playToDriveTeam[pid] = dtid
			}
		}
	}

	tracker := newWPTracker(opts.Pregame)

	// Start-of-play WP lookup keyed by play id, so every threshold check uses
	// start-of-play probabilities consistently. Probability map entries are
	// end-of-play; start-of-play is the previous play's end (or pregame).
	startWPByPlay := map[string][2]float64{}
	walkHome, walkAway := tracker.home, tracker.away
	for _, drive := range drives {
		for _, play := range drive.Plays {
			pid := play.ID.String()
			if pid == "" {
				continue
			}
			startWPByPlay[pid] = [2]float64{walkHome, walkAway}
			if prob, ok := probMap[pid]; ok {
				if prob.HomeWinPercentage != nil {
					walkHome = sanitizeProb(prob.HomeWinPercentage, walkHome)
				}
				if prob.AwayWinPercentage != nil {
					walkAway = sanitizeProb(prob.AwayWinPercentage, walkAway)
				}
			}
		}
	}

	// Per-scoring-play points from consecutive score snapshots.
	scoringMap := map[string]*scoringInfo{}
	prevHome, prevAway := 0, 0
	for i := range game.ScoringPlays {
		sp := &game.ScoringPlays[i]
		dh := sp.HomeScore - prevHome
		da := sp.AwayScore - prevAway
		prevHome, prevAway = sp.HomeScore, sp.AwayScore
		points := da
		if dh > 0 {
			points = dh
		}
		scoringMap[sp.ID.String()] = &scoringInfo{teamID: sp.Team.ID.String(), points: points}
	}

	stats := map[string]*teamTotals{}
	details := ExpandedDetails{}
	for _, tid := range teamOrder {
		stats[tid] = &teamTotals{team: idToAbbr[tid]}
		if opts.Expanded {
			cats := map[string][]DetailEntry{}
			for _, c := range AllCategories {
				cats[c] = []DetailEntry{}
			}
			details[tid] = cats
		}
	}

	// Final scores from the header.
	if len(game.Header.Competitions) > 0 {
		for _, comp := range game.Header.Competitions[0].Competitors {
			if t, ok := stats[comp.ID.String()]; ok {
				fmt.Sscanf(comp.Score, "%d", &t.score)
			}
		}
	}

	// Penalty totals from the boxscore ("COUNT-YARDS").
	for _, t := range game.Boxscore.Teams {
		totals, ok := stats[t.Team.ID.String()]
		if !ok {
			continue
		}
		for _, stat := range t.Statistics {
			if stat.Name != "totalPenaltiesYards" {
				continue
			}
			var count, yards int
			if n, err := fmt.Sscanf(stat.DisplayValue, "%d-%d", &count, &yards); err == nil && n == 2 {
				totals.penaltyCount = count
				totals.penaltyYards = yards
			}
			break
		}
	}

	// Non-offensive points from the scoring plays list, independently
	// threshold-filtered.
	nonOffensivePlays := map[string]DetailEntry{}
	nonOffensiveTeam := map[string]string{}
	for i := range game.ScoringPlays {
		sp := &game.ScoringPlays[i]
		pid := sp.ID.String()

		var startHome, startAway *float64
		if wps, ok := startWPByPlay[pid]; ok {
			startHome, startAway = floatPtr(wps[0]), floatPtr(wps[1])
		}
		if !IsCompetitivePlay(sp.Period.Number, pid, probMap, threshold, startHome, startAway) {
			continue
		}

		scoringTeamID := sp.Team.ID.String()
		driveOffenseID := playToDriveTeam[pid]
		playText := strings.ToLower(sp.Text)
		playType := strings.ToLower(sp.Type.Text)
		scoringType := strings.ToLower(sp.ScoringType.Name)

		points := 0
		if info, ok := scoringMap[pid]; ok {
			points = info.points
		}
		isSafety := strings.Contains(playType, "safety") || strings.Contains(scoringType, "safety") ||
			strings.Contains(playText, "safety")
		hasTouchdown := strings.Contains(playText, "touchdown") || strings.Contains(playType, "touchdown") ||
			strings.Contains(scoringType, "touchdown")
		isKickReturnTD := (strings.Contains(playText, "kickoff") || strings.Contains(playType, "kickoff")) && hasTouchdown
		isPuntReturnTD := (strings.Contains(playText, "punt") || strings.Contains(playType, "punt")) && hasTouchdown &&
			(strings.Contains(playText, "return") || strings.Contains(playType, "return"))

		nonOffensive := false
		switch {
		case isSafety:
			nonOffensive = true
			points = 2
		case isKickReturnTD || isPuntReturnTD:
			nonOffensive = true
		case driveOffenseID != "" && scoringTeamID != "" && driveOffenseID != scoringTeamID:
			nonOffensive = true
		}

		if nonOffensive {
			totals, ok := stats[scoringTeamID]
			if !ok {
				continue
			}
			totals.nonOffensivePoints += points
			if info, ok := scoringMap[pid]; ok {
				info.nonOffensive = true
			}
			entry := DetailEntry{
				Type:    sp.Type.Text,
				Text:    sp.Text,
				Points:  intPtr(points),
				Quarter: sp.Period.Number,
				Clock:   sp.Clock.DisplayValue,
			}
			nonOffensivePlays[pid] = entry
			nonOffensiveTeam[pid] = scoringTeamID
			if opts.Expanded {
				details[scoringTeamID][CategoryNonOffensiveScores] =
					append(details[scoringTeamID][CategoryNonOffensiveScores], entry)
			}
		}
	}

	for driveIndex, drive := range drives {
		teamID := drive.Team.ID.String()
		totals, ok := stats[teamID]
		if !ok {
			continue
		}

		drivePlays := drive.Plays
		var driveFirstPlay *espn.Play
		if len(drivePlays) > 0 {
			driveFirstPlay = &drivePlays[0]
		}
		driveStartYTE := -1
		if drive.Start.YardsToEndzone != nil {
			driveStartYTE = *drive.Start.YardsToEndzone
		}
		driveStartPosText := strings.TrimSpace(drive.Start.Text)

		drivePointsCompetitive := 0
		driveCrossed40 := false
		driveStartedCompetitive := false
		driveFirstPlayChecked := false
		driveHasOffensivePlay := false
		var lastCompetitivePlay *espn.Play
		var lastCompetitiveProb *ProbabilitySnapshot
		currentYTEEst := driveStartYTE
		haveYTEEst := driveStartYTE != -1
		driveStartQuarter := 0
		driveStartClock := ""
		if driveFirstPlay != nil {
			driveStartQuarter = driveFirstPlay.Period.Number
			driveStartClock = driveFirstPlay.Clock.DisplayValue
		}

		for pi := range drivePlays {
			play := &drivePlays[pi]
			text := play.Text
			textLower := strings.ToLower(text)
			eventText := FinalPlayText(text)
			eventTextLower := strings.ToLower(eventText)
			hasReplayReversal := eventText != text
			playType := play.Type.Text
			if playType == "" {
				playType = "Unknown"
			}
			playTypeLower := strings.ToLower(playType)
			playID := play.ID.String()

			startTeamID := playStartTeamID(play)
			if startTeamID == "" {
				startTeamID = teamID
			}
			endTeamID := playEndTeamID(play)
			offenseAbbrev := ""
			if play.Team != nil {
				offenseAbbrev = strings.ToLower(play.Team.Abbreviation)
			}
			if offenseAbbrev == "" {
				offenseAbbrev = strings.ToLower(idToAbbr[teamID])
			}
			opponentID := ""
			if len(idToAbbr) == 2 {
				if _, ok := idToAbbr[startTeamID]; ok {
					for tid := range idToAbbr {
						if tid != startTeamID {
							opponentID = tid
						}
					}
				}
			}

			competitive := IsCompetitivePlay(play.Period.Number, playID, probMap, threshold,
				floatPtr(tracker.home), floatPtr(tracker.away))
			probabilitySnapshot := tracker.snapshot(playID, probMap)

			if !driveFirstPlayChecked {
				driveFirstPlayChecked = true
				driveStartedCompetitive = competitive
				startYTE := -1
				if play.Start != nil && play.Start.YardsToEndzone != nil {
					startYTE = *play.Start.YardsToEndzone
				}
				if startYTE == -1 && drive.Start.YardsToEndzone != nil {
					startYTE = *drive.Start.YardsToEndzone
				}
				if startYTE != -1 {
					driveStartYTE = startYTE
					if !haveYTEEst {
						currentYTEEst = startYTE
						haveYTEEst = true
					}
				}
				if driveStartedCompetitive && startYTE != -1 {
					totals.startFieldPosSum += 100 - startYTE
					totals.drivesCount++
				}
			}

			// Penalty routing into per-team penalty-yard detail lists.
			hasPenaltyFlag := play.Penalty != nil || play.HasPenalty || strings.Contains(textLower, "penalty")
			if opts.Expanded && hasPenaltyFlag && !isDeclinedOnlyPenalty(textLower, play.Penalty) {
				commitTeamID := ""
				if play.Penalty != nil && play.Penalty.Team != nil {
					commitTeamID = play.Penalty.Team.ID.String()
				}
				if commitTeamID == "" {
					for abbr, tid := range abbrToID {
						if strings.Contains(textLower, "penalty on "+strings.ToLower(abbr)) {
							commitTeamID = tid
							break
						}
					}
				}
				if commitTeamID == "" {
					if strings.Contains(textLower, "on defense") && opponentID != "" {
						commitTeamID = opponentID
					} else {
						commitTeamID = teamID
					}
				}
				if _, ok := details[commitTeamID]; !ok {
					commitTeamID = teamID
				}
				entry := DetailEntry{
					Text:        text,
					Type:        playType,
					Quarter:     play.Period.Number,
					Clock:       play.Clock.DisplayValue,
					EndPos:      endPosText(play),
					Probability: probabilitySnapshot,
				}
				if play.Penalty != nil && play.Penalty.Yards != nil {
					entry.Yards = intPtr(-abs(*play.Penalty.Yards))
				}
				details[commitTeamID][CategoryPenaltyYards] =
					append(details[commitTeamID][CategoryPenaltyYards], entry)
			}

			if strings.Contains(playTypeLower, "timeout") || strings.Contains(playTypeLower, "end of") {
				tracker.advance(playID, probMap)
				continue
			}
			if isNullifiedPlay(textLower) {
				tracker.advance(playID, probMap)
				continue
			}

			if !competitive {
				tracker.advance(playID, probMap)
				continue
			}
			lastCompetitivePlay = play
			lastCompetitiveProb = probabilitySnapshot

			if driveStartedCompetitive {
				isOffensePlay, _, _ := ClassifyOffensePlay(play)
				if isOffensePlay {
					driveHasOffensivePlay = true
				}
				if play.ScoringPlay && strings.Contains(playTypeLower, "field goal") {
					driveHasOffensivePlay = true
				}
				if isOffensePlay && !driveCrossed40 {
					yteForCheck := -1
					if play.Start != nil && play.Start.YardsToEndzone != nil {
						yteForCheck = *play.Start.YardsToEndzone
						currentYTEEst = yteForCheck
						haveYTEEst = true
					} else if haveYTEEst {
						yteForCheck = currentYTEEst
					}
					if yteForCheck != -1 {
						if yteForCheck <= 40 {
							driveCrossed40 = true
						} else {
							if yteForCheck-play.StatYardage <= 40 {
								driveCrossed40 = true
							}
							currentYTEEst = yteForCheck - play.StatYardage
							haveYTEEst = true
						}
					}
				}
			}

			// Turnover attribution.
			//
			// Interceptions on two-point conversion attempts are not turnovers
			// in official stats: no possession change results, the scoring
			// team kicks off either way.
			isTwoPointAttempt := strings.Contains(eventTextLower, "two-point") ||
				strings.Contains(eventTextLower, "2-point") ||
				strings.Contains(eventTextLower, "conversion attempt")

			interception := false
			fumblePhrase := false
			fumbleTurnover := false
			turnoverOnPlay := false
			var turnoverEvents []turnoverEvent

			if !isTwoPointAttempt {
				muffedPunt := strings.Contains(eventTextLower, "muffed punt") || strings.Contains(playTypeLower, "muff")
				muffedKick := muffedPunt || strings.Contains(eventTextLower, "muffed kick") ||
					strings.Contains(eventTextLower, "muffed kickoff")
				interception = strings.Contains(playTypeLower, "interception") ||
					strings.Contains(eventTextLower, "intercept")
				if hasReplayReversal && !strings.Contains(eventTextLower, "intercept") {
					// The final ruling removed the interception.
					interception = false
				}
				fumblePhrase = strings.Contains(eventTextLower, "fumble")
				isFumbleRecoveryOwn := strings.Contains(playTypeLower, "fumble recovery (own)")
				isFumbleRecoveryOpp := strings.Contains(playTypeLower, "fumble recovery (opponent)") ||
					strings.Contains(playTypeLower, "sack opp fumble recovery")
				isTouchback := strings.Contains(eventTextLower, "touchback")

				currentPossessor := startTeamID
				currentOffAbbr := offenseAbbrev

				// Once a punt is kicked, the receiving team owns the possession
				// context for any fumble/recovery later in the same play text.
				puntInAir := strings.Contains(eventTextLower, "punts")
				if puntInAir && opponentID != "" && (fumblePhrase || muffedKick) {
					currentPossessor = opponentID
					currentOffAbbr = strings.ToLower(idToAbbr[opponentID])
				}

				// Onside kick recovered by the kicking team charges the
				// receiving team (the drive team on kickoffs) with a turnover.
				onsideKick := strings.Contains(eventTextLower, "onside") && strings.Contains(eventTextLower, "kick")
				kickingTeamRecoveredOnside := false
				if onsideKick {
					explicitStartTeamID := playStartTeamID(play)
					kickingTeamRecoveredOnside = endTeamID != "" && endTeamID != teamID &&
						strings.Contains(eventTextLower, "recovered") &&
						(explicitStartTeamID == "" || endTeamID == explicitStartTeamID)
					if kickingTeamRecoveredOnside {
						turnoverEvents = append(turnoverEvents, turnoverEvent{teamID, "onside_kick_lost"})
					}
				}

				if muffedKick && opponentID != "" {
					currentPossessor = opponentID
					currentOffAbbr = strings.ToLower(idToAbbr[opponentID])
				}

				// Kickoff return fumbles belong to the receiving team even
				// though the play's start team is the kicking team. Without
				// the flip, a kick-coverage recovery would be misattributed
				// as a turnover by the kicking team.
				kickoffPlay := strings.Contains(playTypeLower, "kickoff") || strings.Contains(eventTextLower, "kickoff")
				if kickoffPlay && fumblePhrase && opponentID != "" && !onsideKick && !muffedKick {
					currentPossessor = opponentID
					currentOffAbbr = strings.ToLower(idToAbbr[opponentID])
				}

				if interception {
					turnoverEvents = append(turnoverEvents, turnoverEvent{currentPossessor, "interception"})
					if opponentID != "" {
						currentPossessor = opponentID
						currentOffAbbr = strings.ToLower(idToAbbr[opponentID])
					}
				}

				if fumblePhrase {
					recoveredTeamID := ""
					switch {
					case isFumbleRecoveryOwn:
						recoveredTeamID = currentPossessor
					case isFumbleRecoveryOpp && opponentID != "":
						recoveredTeamID = opponentID
					default:
						if m := recoveredByRe.FindStringSubmatch(eventTextLower); m != nil {
							recoveredAbbr := normalizeAbbr(m[1], knownAbbrs)
							recoveredTeamID = abbrToID[recoveredAbbr]
							if recoveredTeamID == "" {
								recoveredTeamID = endTeamID
							}
						} else if strings.Contains(eventTextLower, "and recovers") ||
							strings.Contains(eventTextLower, "recovers at") {
							recoveredTeamID = currentPossessor
						} else {
							recoveredTeamID = endTeamID
						}
					}

					switch {
					case recoveredTeamID != "" && currentPossessor != "":
						fumbleTurnover = recoveredTeamID != currentPossessor
					case strings.Contains(eventTextLower, "recovered by"):
						// End team missing: a turnover unless it explicitly
						// reads as an own-team recovery.
						fumbleTurnover = !(currentOffAbbr != "" &&
							strings.Contains(eventTextLower, "recovered by "+currentOffAbbr))
					case strings.Contains(eventTextLower, "and recovers") ||
						strings.Contains(eventTextLower, "recovers at"):
						fumbleTurnover = false
					}

					if isTouchback {
						fumbleTurnover = true
					}
				}
				if fumbleTurnover && !muffedKick {
					turnoverEvents = append(turnoverEvents, turnoverEvent{currentPossessor, "fumble"})
				}

				if muffedKick && !kickingTeamRecoveredOnside {
					turnoverEvents = append(turnoverEvents, turnoverEvent{currentPossessor, "muffed_kick"})
				}

				turnoverOnPlay = len(turnoverEvents) > 0
				for _, ev := range turnoverEvents {
					evTotals, ok := stats[ev.teamID]
					if !ok {
						continue
					}
					evTotals.turnovers++
					if opts.Expanded {
						details[ev.teamID][CategoryTurnovers] = append(details[ev.teamID][CategoryTurnovers],
							DetailEntry{
								Type:        playType,
								Text:        text,
								Yards:       intPtr(play.StatYardage),
								Quarter:     play.Period.Number,
								Clock:       play.Clock.DisplayValue,
								EndPos:      endPosText(play),
								Probability: tracker.snapshot(playID, probMap),
								Reason:      ev.reason,
							})
					}
				}
			}

			// Drive scoring, attributed only when the scoring team is the
			// drive's offense.
			if play.ScoringPlay && driveStartedCompetitive {
				if info, ok := scoringMap[playID]; ok {
					if info.teamID == teamID {
						drivePointsCompetitive += info.points
					}
				} else {
					drivePointsCompetitive += play.ScoreValue
				}
			}

			if opts.Expanded {
				if entry, ok := nonOffensivePlays[playID]; ok {
					targetTeam := nonOffensiveTeam[playID]
					if _, ok := details[targetTeam]; ok {
						entry.Quarter = play.Period.Number
						entry.Clock = play.Clock.DisplayValue
						entry.EndPos = endPosText(play)
						entry.Probability = probabilitySnapshot
						details[targetTeam][CategoryNonOffensivePoints] =
							append(details[targetTeam][CategoryNonOffensivePoints], entry)
					}
				}
			}

			// Offensive stats.
			isOffense, isRun, isPass := ClassifyOffensePlay(play)
			if isOffense && (isRun || isPass) {
				totals.plays++
				yards := play.StatYardage

				if isIntentionalGrounding(play, textLower) {
					yards = 0
				}

				if turnoverOnPlay {
					yards = 0
					if fumblePhrase && !interception {
						if credited, ok := creditedYardsBeforeFumble(eventText); ok {
							yards = credited
						}
					}
				} else if fumblePhrase {
					if credited, ok := creditedYardsBeforeFumble(eventText); ok {
						yards = credited
					}
				}

				down, dist := playDownAndDistance(play)
				totals.offensiveYards += yards

				if CalculateSuccess(down, float64(dist), float64(yards)) {
					totals.successfulPlays++
				}

				if (isRun && yards >= 10) || (isPass && yards >= 20) {
					totals.explosivePlays++
					if opts.Expanded {
						entryType := "Pass"
						if isRun {
							entryType = "Run"
						}
						details[teamID][CategoryExplosivePlays] = append(details[teamID][CategoryExplosivePlays],
							DetailEntry{
								Yards:       intPtr(yards),
								Text:        text,
								Type:        entryType,
								Quarter:     play.Period.Number,
								Clock:       play.Clock.DisplayValue,
								EndPos:      endPosText(play),
								Probability: tracker.snapshot(playID, probMap),
							})
					}
				}
			}

			// ESPN-style total offense: kneels/spikes count, interceptions are
			// zero yards, fumbles use the credited gain/loss.
			isTotalOffense, _, _ := ClassifyTotalOffensePlay(play)
			if isTotalOffense {
				totalYards := play.StatYardage

				if isIntentionalGrounding(play, textLower) {
					totalYards = 0
				}

				if !isTwoPointAttempt {
					if interception {
						totalYards = 0
					} else if fumblePhrase {
						if credited, ok := creditedYardsBeforeFumble(eventText); ok {
							totalYards = credited
						}
					}
				}

				// Accepted penalties: derive the credited offensive yards from
				// the enforcement spot when possible. This keeps penalty
				// yardage out of total offense and protects against payloads
				// where statYardage disagrees with the described enforcement.
				if penaltyStatusSlug(play) == "accepted" &&
					play.Start != nil && play.Start.YardsToEndzone != nil &&
					!strings.Contains(eventTextLower, "no play") &&
					!interception && !fumblePhrase {
					sTeam := playStartTeamID(play)
					eTeam := playEndTeamID(play)
					if sTeam == "" || eTeam == "" || sTeam == eTeam {
						if enforcedYTE, ok := enforcedAtYardsToEndzone(eventText, offenseAbbrev); ok {
							startYTE := *play.Start.YardsToEndzone
							credited := startYTE - enforcedYTE
							if credited != totalYards {
								if opts.Expanded {
									entry := DetailEntry{
										Type:                playType,
										Text:                text,
										Quarter:             play.Period.Number,
										Clock:               play.Clock.DisplayValue,
										StatYardage:         intPtr(totalYards),
										StartYardsToEndzone: intPtr(startYTE),
										EnforcedAtYTE:       intPtr(enforcedYTE),
										CorrectedYards:      intPtr(credited),
										Reason:              "accepted_penalty_enforcement_spot",
									}
									if play.Penalty != nil && play.Penalty.Yards != nil {
										entry.PenaltyYards = intPtr(*play.Penalty.Yards)
									}
									details[teamID][CategoryYardsCorrections] =
										append(details[teamID][CategoryYardsCorrections], entry)
								}
								totalYards = credited
							}
						}
					}
				}

				totals.totalYards += totalYards
			}

			// Punt/kickoff net tracking.
			if strings.Contains(playTypeLower, "punt") && !strings.Contains(playTypeLower, "return") {
				totals.puntNetSum += play.StatYardage
				totals.puntPlays++
			}
			if strings.Contains(playTypeLower, "kickoff") && !strings.Contains(playTypeLower, "return") {
				totals.kickNetSum += play.StatYardage
				totals.kickPlays++
			}

			if opts.Expanded {
				meaningful := (isOffense && (isRun || isPass)) || play.ScoringPlay ||
					turnoverOnPlay || hasPenaltyFlag
				if meaningful {
					entry := DetailEntry{
						Type:        playType,
						Text:        text,
						Yards:       intPtr(play.StatYardage),
						Quarter:     play.Period.Number,
						Clock:       play.Clock.DisplayValue,
						EndPos:      endPosText(play),
						Probability: probabilitySnapshot,
					}
					if play.ScoringPlay {
						if info, ok := scoringMap[playID]; ok {
							entry.Points = intPtr(info.points)
						}
					}
					details[teamID][CategoryAllPlays] = append(details[teamID][CategoryAllPlays], entry)
				}
			}

			tracker.advance(playID, probMap)
		}

		if driveStartedCompetitive {
			if driveHasOffensivePlay && driveStartYTE != -1 && driveStartYTE <= 40 {
				driveCrossed40 = true
			}
			if driveCrossed40 && driveHasOffensivePlay {
				totals.drivesInside40++
				totals.pointsInside40 += drivePointsCompetitive
			}
			totals.drivePoints += drivePointsCompetitive
			if opts.Expanded && driveCrossed40 && driveHasOffensivePlay && lastCompetitivePlay != nil {
				details[teamID][CategoryPointsPerTrip] = append(details[teamID][CategoryPointsPerTrip],
					DetailEntry{
						Text:        lastCompetitivePlay.Text,
						Type:        lastCompetitivePlay.Type.Text,
						Yards:       intPtr(lastCompetitivePlay.StatYardage),
						Quarter:     lastCompetitivePlay.Period.Number,
						Clock:       lastCompetitivePlay.Clock.DisplayValue,
						Points:      intPtr(drivePointsCompetitive),
						Probability: lastCompetitiveProb,
					})
			}
			if opts.Expanded && driveStartYTE != -1 {
				startPos := driveStartPosText
				if startPos == "" {
					startPos = fmt.Sprintf("Own %d", 100-driveStartYTE)
				}

				var causePlay *espn.Play
				if driveFirstPlay != nil && isKickOrPuntStart(driveFirstPlay) {
					causePlay = driveFirstPlay
				} else if driveIndex > 0 {
					prevPlays := drives[driveIndex-1].Plays
					for i := len(prevPlays) - 1; i >= 0; i-- {
						if !isDriveBoundaryNoise(&prevPlays[i]) {
							causePlay = &prevPlays[i]
							break
						}
					}
				}

				entry := DetailEntry{
					Text:     "Start of game",
					Type:     "Drive Start",
					Quarter:  driveStartQuarter,
					Clock:    driveStartClock,
					StartPos: startPos,
					EndPos:   startPos,
				}
				if causePlay != nil {
					entry.Text = causePlay.Text
					entry.Type = causePlay.Type.Text
					if entry.Type == "" {
						entry.Type = "Drive Start"
					}
					entry.Yards = intPtr(causePlay.StatYardage)
				}
				details[teamID][CategoryDriveStarts] = append(details[teamID][CategoryDriveStarts], entry)
			}
		}
	}

	// Turnover margin for two-team games.
	turnoverMargin := map[string]int{}
	if len(teamOrder) == 2 {
		a, b := teamOrder[0], teamOrder[1]
		turnoverMargin[a] = stats[b].turnovers - stats[a].turnovers
		turnoverMargin[b] = stats[a].turnovers - stats[b].turnovers
	}

	rows := make([]StatsRow, 0, len(teamOrder))
	for _, tid := range teamOrder {
		d := stats[tid]
		plays := maxInt(d.plays, 1)
		drivesIn40 := maxInt(d.drivesInside40, 1)
		drivesTotal := maxInt(d.drivesCount, 1)

		row := StatsRow{
			TeamID:             tid,
			Team:               d.team,
			Score:              d.score,
			Turnovers:          d.turnovers,
			TotalYards:         d.totalYards,
			YardsPerPlay:       roundTo(float64(d.offensiveYards)/float64(plays), 2),
			SuccessRate:        roundTo(float64(d.successfulPlays)/float64(plays), 3),
			ExplosivePlays:     d.explosivePlays,
			ExplosivePlayRate:  roundTo(float64(d.explosivePlays)/float64(plays), 3),
			PointsPerTrip:      roundTo(float64(d.pointsInside40)/float64(drivesIn40), 2),
			AveStartFieldPos:   fmt.Sprintf("Own %d", d.startFieldPosSum/drivesTotal),
			Drives:             d.drivesCount,
			TurnoverMargin:     turnoverMargin[tid],
			PointsPerDrive:     roundTo(float64(d.drivePoints)/float64(drivesTotal), 2),
			STPenalties:        d.stPenalties,
			PenaltyYards:       d.penaltyYards,
			NonOffensivePoints: d.nonOffensivePoints,
		}
		if d.puntPlays > 0 {
			row.NetPunting = roundTo(float64(d.puntNetSum)/float64(d.puntPlays), 1)
		}
		if d.kickPlays > 0 {
			row.NetKickoff = roundTo(float64(d.kickNetSum)/float64(d.kickPlays), 1)
		}
		rows = append(rows, row)
	}

	if opts.Expanded {
		return rows, details
	}
	return rows, ExpandedDetails{}
}

func isIntentionalGrounding(play *espn.Play, textLower string) bool {
	if strings.Contains(textLower, "intentional grounding") {
		return true
	}
	return penaltyStatusSlug(play) == "accepted" && penaltyTypeSlug(play) == "intentional-grounding"
}

func penaltyStatusSlug(play *espn.Play) string {
	if play.Penalty == nil || play.Penalty.Status == nil {
		return ""
	}
	return play.Penalty.Status.Slug
}

func penaltyTypeSlug(play *espn.Play) string {
	if play.Penalty == nil || play.Penalty.Type == nil {
		return ""
	}
	return play.Penalty.Type.Slug
}

func playStartTeamID(play *espn.Play) string {
	if play.Start == nil || play.Start.Team == nil {
		return ""
	}
	return play.Start.Team.ID.String()
}

func playEndTeamID(play *espn.Play) string {
	if play.End == nil || play.End.Team == nil {
		return ""
	}
	return play.End.Team.ID.String()
}

// playDownAndDistance applies the default policy for missing situation data:
// down 1, distance 10.
func playDownAndDistance(play *espn.Play) (down, distance int) {
	down, distance = 1, 10
	if play.Start == nil {
		return down, distance
	}
	if play.Start.Down != nil {
		down = *play.Start.Down
	}
	if play.Start.Distance != nil {
		distance = *play.Start.Distance
	}
	return down, distance
}

// endPosText reads the end position from possessionText, falling back to the
// "at XXX NN" fragment of downDistanceText.
func endPosText(play *espn.Play) string {
	if play.End == nil {
		return ""
	}
	if pos := strings.TrimSpace(play.End.PossessionText); pos != "" {
		return pos
	}
	if m := endPosFromDownsRe.FindStringSubmatch(play.End.DownDistanceText); m != nil {
		return m[1]
	}
	return ""
}

func isDriveBoundaryNoise(play *espn.Play) bool {
	typeLower := strings.ToLower(play.Type.Text)
	textLower := strings.ToLower(play.Text)
	return strings.Contains(typeLower, "timeout") || strings.Contains(typeLower, "end of") ||
		strings.Contains(textLower, "end of")
}

func isKickOrPuntStart(play *espn.Play) bool {
	typeLower := strings.ToLower(play.Type.Text)
	textLower := strings.ToLower(play.Text)
	return strings.Contains(typeLower, "kickoff") || strings.Contains(textLower, "kickoff") ||
		strings.Contains(typeLower, "punt") || strings.Contains(textLower, "onside")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
