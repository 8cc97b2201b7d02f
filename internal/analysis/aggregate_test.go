package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/espn"
)

const (
	seaID = "1"
	denID = "2"
)

// twoTeamGame builds a SEA (home) vs DEN (away) fixture around the given
// drives and scoring plays.
func twoTeamGame(drives []espn.Drive, scoring []espn.ScoringPlay, homeScore, awayScore string) *espn.GameData {
	sea := espn.TeamInfo{ID: espn.ID(seaID), Abbreviation: "SEA", DisplayName: "Seattle Seahawks"}
	den := espn.TeamInfo{ID: espn.ID(denID), Abbreviation: "DEN", DisplayName: "Denver Broncos"}

	return &espn.GameData{
		Header: espn.Header{
			ID:   "401",
			Week: espn.Week{Number: 1},
			Season: espn.Season{
				Year: 2025,
				Type: 2,
			},
			Competitions: []espn.Competition{{
				Competitors: []espn.Competitor{
					{ID: espn.ID(seaID), HomeAway: "home", Score: homeScore, Team: sea},
					{ID: espn.ID(denID), HomeAway: "away", Score: awayScore, Team: den},
				},
				Status: espn.Status{Type: espn.StatusType{State: "post", Completed: true, ShortDetail: "Final"}},
			}},
		},
		Boxscore: espn.Boxscore{Teams: []espn.BoxscoreTeam{
			{Team: sea},
			{Team: den},
		}},
		Drives:       espn.Drives{Previous: drives},
		ScoringPlays: scoring,
	}
}

func spot(down, distance, yte int) *espn.PlaySpot {
	return &espn.PlaySpot{Down: intPtr(down), Distance: intPtr(distance), YardsToEndzone: intPtr(yte)}
}

func statsByTeam(rows []StatsRow) map[string]StatsRow {
	out := map[string]StatsRow{}
	for _, r := range rows {
		out[r.TeamID] = r
	}
	return out
}

func TestProcessGameStatsScoringDrive(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(75), Text: "SEA 25"},
		Plays: []espn.Play{
			{
				ID:          "p1",
				Text:        "G.Smith pass short left to T.Lockett for 15 yards",
				Type:        espn.PlayType{Text: "Pass Reception"},
				Period:      espn.Period{Number: 1},
				Clock:       espn.Clock{DisplayValue: "12:40"},
				Start:       spot(1, 10, 75),
				StatYardage: 15,
			},
			{
				ID:          "p2",
				Text:        "G.Smith pass deep right to D.Metcalf for 30 yards, TOUCHDOWN",
				Type:        espn.PlayType{Text: "Passing Touchdown"},
				Period:      espn.Period{Number: 1},
				Clock:       espn.Clock{DisplayValue: "11:55"},
				Start:       spot(1, 10, 60),
				StatYardage: 30,
				ScoringPlay: true,
				ScoreValue:  6,
			},
		},
	}
	scoring := []espn.ScoringPlay{{
		ID:        "p2",
		Team:      espn.TeamRef{ID: espn.ID(seaID)},
		Type:      espn.PlayType{Text: "Passing Touchdown"},
		Text:      "G.Smith pass deep right to D.Metcalf for 30 yards, TOUCHDOWN",
		HomeScore: 7,
		AwayScore: 0,
		Period:    espn.Period{Number: 1},
	}}

	game := twoTeamGame([]espn.Drive{drive}, scoring, "7", "0")
	rows, details := ProcessGameStats(game, Options{Expanded: true})
	require.Len(t, rows, 2)

	byTeam := statsByTeam(rows)
	sea := byTeam[seaID]
	den := byTeam[denID]

	assert.Equal(t, "SEA", sea.Team)
	assert.Equal(t, 7, sea.Score)
	assert.Equal(t, 45, sea.TotalYards)
	assert.InDelta(t, 22.5, sea.YardsPerPlay, 1e-9)
	assert.InDelta(t, 1.0, sea.SuccessRate, 1e-9)
	assert.Equal(t, 1, sea.ExplosivePlays)
	assert.InDelta(t, 0.5, sea.ExplosivePlayRate, 1e-9)
	assert.InDelta(t, 7.0, sea.PointsPerTrip, 1e-9)
	assert.InDelta(t, 7.0, sea.PointsPerDrive, 1e-9)
	assert.Equal(t, "Own 25", sea.AveStartFieldPos)
	assert.Equal(t, 1, sea.Drives)
	assert.Equal(t, 0, sea.Turnovers)
	assert.Equal(t, 0, sea.TurnoverMargin)

	assert.Equal(t, "DEN", den.Team)
	assert.Equal(t, 0, den.Score)
	assert.Equal(t, 0, den.TotalYards)
	assert.Equal(t, 0, den.Drives)

	explosives := details[seaID][CategoryExplosivePlays]
	require.Len(t, explosives, 1)
	assert.Equal(t, "Pass", explosives[0].Type)
	require.NotNil(t, explosives[0].Yards)
	assert.Equal(t, 30, *explosives[0].Yards)

	trips := details[seaID][CategoryPointsPerTrip]
	require.Len(t, trips, 1)
	require.NotNil(t, trips[0].Points)
	assert.Equal(t, 7, *trips[0].Points)
}

func TestProcessGameStatsInterceptionThenFumble(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(70), Text: "SEA 30"},
		Plays: []espn.Play{{
			ID:          "p1",
			Text:        "G.Smith pass deep middle INTERCEPTED by P.Surtain at DEN 40. P.Surtain FUMBLES, RECOVERED by SEA at DEN 35.",
			Type:        espn.PlayType{Text: "Interception"},
			Period:      espn.Period{Number: 2},
			Clock:       espn.Clock{DisplayValue: "8:12"},
			Start:       spot(2, 8, 55),
			StatYardage: 0,
		}},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "0", "0")
	rows, details := ProcessGameStats(game, Options{Expanded: true})
	byTeam := statsByTeam(rows)

	// Both changes of possession count: the interception against SEA and the
	// return fumble against DEN.
	assert.Equal(t, 1, byTeam[seaID].Turnovers)
	assert.Equal(t, 1, byTeam[denID].Turnovers)
	assert.Equal(t, 0, byTeam[seaID].TurnoverMargin)
	assert.Equal(t, 0, byTeam[denID].TurnoverMargin)

	seaTOs := details[seaID][CategoryTurnovers]
	require.Len(t, seaTOs, 1)
	assert.Equal(t, "interception", seaTOs[0].Reason)

	denTOs := details[denID][CategoryTurnovers]
	require.Len(t, denTOs, 1)
	assert.Equal(t, "fumble", denTOs[0].Reason)

	// Interceptions zero out offensive and total yards.
	assert.Equal(t, 0, byTeam[seaID].TotalYards)
	assert.InDelta(t, 0.0, byTeam[seaID].YardsPerPlay, 1e-9)
}

func TestProcessGameStatsReversedInterception(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(70)},
		Plays: []espn.Play{{
			ID:     "p1",
			Text:   "G.Smith pass INTERCEPTED by P.Surtain at DEN 40. The play was REVERSED. G.Smith pass incomplete deep middle.",
			Type:   espn.PlayType{Text: "Pass Interception Return"},
			Period: espn.Period{Number: 3},
			Start:  spot(1, 10, 70),
		}},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "0", "0")
	rows, _ := ProcessGameStats(game, Options{})
	byTeam := statsByTeam(rows)

	assert.Equal(t, 0, byTeam[seaID].Turnovers)
	assert.Equal(t, 0, byTeam[denID].Turnovers)
}

func TestProcessGameStatsTwoPointInterceptionNotTurnover(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(2)},
		Plays: []espn.Play{{
			ID:     "p1",
			Text:   "TWO-POINT CONVERSION ATTEMPT. G.Smith pass intercepted by P.Surtain. ATTEMPT FAILS.",
			Type:   espn.PlayType{Text: "Two Point Pass"},
			Period: espn.Period{Number: 4},
			Start:  spot(1, 2, 2),
		}},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "6", "0")
	rows, _ := ProcessGameStats(game, Options{})
	byTeam := statsByTeam(rows)

	assert.Equal(t, 0, byTeam[seaID].Turnovers)
	assert.Equal(t, 0, byTeam[denID].Turnovers)
}

func TestProcessGameStatsMuffedPunt(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(60)},
		Plays: []espn.Play{{
			ID:          "p1",
			Text:        "M.Dickson punts 48 yards to DEN 12, Center-T.Ott. MUFFED PUNT by J.Jones, RECOVERED by SEA at DEN 10.",
			Type:        espn.PlayType{Text: "Punt"},
			Period:      espn.Period{Number: 2},
			StatYardage: 48,
		}},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "0", "0")
	rows, details := ProcessGameStats(game, Options{Expanded: true})
	byTeam := statsByTeam(rows)

	// The receiving team is charged with the muff even though the play
	// belongs to the punting team's drive.
	assert.Equal(t, 0, byTeam[seaID].Turnovers)
	assert.Equal(t, 1, byTeam[denID].Turnovers)
	assert.Equal(t, 1, byTeam[seaID].TurnoverMargin)
	assert.Equal(t, -1, byTeam[denID].TurnoverMargin)

	denTOs := details[denID][CategoryTurnovers]
	require.Len(t, denTOs, 1)
	assert.Equal(t, "muffed_kick", denTOs[0].Reason)

	// Punt plays feed the net punting average.
	assert.InDelta(t, 48.0, byTeam[seaID].NetPunting, 1e-9)
}

func TestProcessGameStatsFumbleCreditedYards(t *testing.T) {
	drive := espn.Drive{
		Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Start: espn.DriveStart{YardsToEndzone: intPtr(70)},
		Plays: []espn.Play{{
			ID:          "p1",
			Text:        "K.Walker left end for 7 yards. FUMBLES, RECOVERED by DEN at SEA 40.",
			Type:        espn.PlayType{Text: "Fumble Recovery (Opponent)"},
			Period:      espn.Period{Number: 1},
			Start:       spot(1, 10, 70),
			StatYardage: -2,
		}},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "0", "0")
	rows, _ := ProcessGameStats(game, Options{})
	byTeam := statsByTeam(rows)

	assert.Equal(t, 1, byTeam[seaID].Turnovers)
	// The runner keeps the 7 yards gained before the fumble despite the net
	// statYardage of -2.
	assert.InDelta(t, 7.0, byTeam[seaID].YardsPerPlay, 1e-9)
	assert.Equal(t, 7, byTeam[seaID].TotalYards)
	// 7 of 10 on 1st down is a successful play.
	assert.InDelta(t, 1.0, byTeam[seaID].SuccessRate, 1e-9)
}

func TestProcessGameStatsGarbageTimeFilter(t *testing.T) {
	buildDrive := func() espn.Drive {
		return espn.Drive{
			Team:  espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
			Start: espn.DriveStart{YardsToEndzone: intPtr(75)},
			Plays: []espn.Play{{
				ID:          "p1",
				Text:        "K.Walker up the middle for 12 yards",
				Type:        espn.PlayType{Text: "Rush"},
				Period:      espn.Period{Number: 4},
				Start:       spot(1, 10, 75),
				StatYardage: 12,
			}},
		}
	}

	probMap := map[string]espn.Probability{
		"p1": {HomeWinPercentage: floatPtr(0.99), AwayWinPercentage: floatPtr(0.01)},
	}
	pregame := &espn.PregameProbabilities{Home: 0.99, Away: 0.01}

	game := twoTeamGame([]espn.Drive{buildDrive()}, nil, "42", "0")

	filtered, _ := ProcessGameStats(game, Options{ProbabilityMap: probMap, Pregame: pregame})
	unfiltered, _ := ProcessGameStats(game, Options{ProbabilityMap: probMap, Pregame: pregame, WPThreshold: 1.0})

	assert.Equal(t, 0, statsByTeam(filtered)[seaID].ExplosivePlays)
	assert.Equal(t, 0, statsByTeam(filtered)[seaID].Drives)

	assert.Equal(t, 1, statsByTeam(unfiltered)[seaID].ExplosivePlays)
	assert.Equal(t, 1, statsByTeam(unfiltered)[seaID].Drives)
}

func TestProcessGameStatsBoxscorePenaltyYards(t *testing.T) {
	game := twoTeamGame(nil, nil, "0", "0")
	game.Boxscore.Teams[0].Statistics = []espn.TeamStatistic{
		{Name: "totalPenaltiesYards", DisplayValue: "5-39"},
	}
	game.Boxscore.Teams[1].Statistics = []espn.TeamStatistic{
		{Name: "totalPenaltiesYards", DisplayValue: "8-74"},
	}

	rows, _ := ProcessGameStats(game, Options{})
	byTeam := statsByTeam(rows)

	assert.Equal(t, 39, byTeam[seaID].PenaltyYards)
	assert.Equal(t, 74, byTeam[denID].PenaltyYards)
}

func TestProcessGameStatsMalformedPlaysDegrade(t *testing.T) {
	drive := espn.Drive{
		Team: espn.TeamRef{ID: espn.ID(seaID), Abbreviation: "SEA"},
		Plays: []espn.Play{
			{ID: "p1"}, // no text, no type, no situation
			{ID: "p2", Text: "Timeout #1 by SEA at 05:00.", Type: espn.PlayType{Text: "Timeout"}},
			{ID: "p3", Text: "END QUARTER 1", Type: espn.PlayType{Text: "End of Quarter"}},
		},
	}

	game := twoTeamGame([]espn.Drive{drive}, nil, "0", "0")
	rows, _ := ProcessGameStats(game, Options{})
	require.Len(t, rows, 2)

	byTeam := statsByTeam(rows)
	assert.Equal(t, 0, byTeam[seaID].Turnovers)
	assert.Equal(t, 0, byTeam[seaID].TotalYards)
}
