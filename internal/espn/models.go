package espn

import (
	"bytes"
	"encoding/json"
)

// ID unmarshals ESPN identifiers that appear as either JSON strings or
// numbers depending on the feed (play ids are strings in the gamepackage,
// scoring-play ids are numbers).
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// GameData is the gamepackage play-by-play JSON for one game.
// Shapes vary by game state, so nested objects are pointers where
// ESPN omits them (pregame payloads have no drives, live payloads
// have partial play records).
type GameData struct {
	Header       Header        `json:"header"`
	Boxscore     Boxscore      `json:"boxscore"`
	Drives       Drives        `json:"drives"`
	ScoringPlays []ScoringPlay `json:"scoringPlays"`
}

type Header struct {
	ID           ID            `json:"id"`
	Competitions []Competition `json:"competitions"`
	Week         Week          `json:"week"`
	Season       Season        `json:"season"`
}

type Week struct {
	Number int `json:"number"`
}

type Season struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
	Status      Status       `json:"status"`
}

type Competitor struct {
	ID       ID       `json:"id"`
	HomeAway string   `json:"homeAway"`
	Score    string   `json:"score"`
	Team     TeamInfo `json:"team"`
}

type TeamInfo struct {
	ID           ID     `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
	Logo         string `json:"logo"`
}

type Status struct {
	Period       int        `json:"period"`
	DisplayClock string     `json:"displayClock"`
	Type         StatusType `json:"type"`
}

type StatusType struct {
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	ShortDetail string `json:"shortDetail"`
}

type Boxscore struct {
	Teams []BoxscoreTeam `json:"teams"`
}

type BoxscoreTeam struct {
	Team       TeamInfo        `json:"team"`
	Statistics []TeamStatistic `json:"statistics"`
}

// TeamStatistic is one entry of the boxscore team stat array, e.g.
// {name: "totalPenaltiesYards", displayValue: "5-39"}.
type TeamStatistic struct {
	Name         string `json:"name"`
	DisplayValue string `json:"displayValue"`
}

type Drives struct {
	Previous []Drive `json:"previous"`
	Current  *Drive  `json:"current"`
}

type Drive struct {
	Team  TeamRef    `json:"team"`
	Start DriveStart `json:"start"`
	Plays []Play     `json:"plays"`
}

type TeamRef struct {
	ID           ID     `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

type DriveStart struct {
	YardsToEndzone *int   `json:"yardsToEndzone"`
	Text           string `json:"text"`
}

type Play struct {
	ID          ID         `json:"id"`
	Text        string     `json:"text"`
	Type        PlayType   `json:"type"`
	Period      Period     `json:"period"`
	Clock       Clock      `json:"clock"`
	Team        *TeamRef   `json:"team"`
	Start       *PlaySpot  `json:"start"`
	End         *PlaySpot  `json:"end"`
	StatYardage int        `json:"statYardage"`
	ScoringPlay bool       `json:"scoringPlay"`
	ScoreValue  int        `json:"scoreValue"`
	HomeScore   int        `json:"homeScore"`
	AwayScore   int        `json:"awayScore"`
	Penalty     *Penalty   `json:"penalty"`
	HasPenalty  bool       `json:"hasPenalty"`
	Statistics  []PlayStat `json:"statistics"`
	Wallclock   string     `json:"wallclock"`
	Modified    string     `json:"modified"`
}

type PlayType struct {
	Text string `json:"text"`
}

type Period struct {
	Number int `json:"number"`
}

type Clock struct {
	DisplayValue string `json:"displayValue"`
}

// PlaySpot is a play's start or end situation. Down/distance/yardsToEndzone
// are frequently missing on special-teams and administrative plays; callers
// apply the default policy (down 1, distance 10, yardsToEndzone unknown).
type PlaySpot struct {
	Down             *int     `json:"down"`
	Distance         *int     `json:"distance"`
	YardsToEndzone   *int     `json:"yardsToEndzone"`
	PossessionText   string   `json:"possessionText"`
	DownDistanceText string   `json:"downDistanceText"`
	Team             *TeamRef `json:"team"`
}

type Penalty struct {
	Team   *TeamRef `json:"team"`
	Yards  *int     `json:"yards"`
	Status *Slug    `json:"status"`
	Type   *Slug    `json:"type"`
}

type Slug struct {
	Slug string `json:"slug"`
}

type PlayStat struct {
	Type PlayStatType `json:"type"`
}

type PlayStatType struct {
	Abbreviation string `json:"abbreviation"`
	Text         string `json:"text"`
}

type ScoringPlay struct {
	ID          ID          `json:"id"`
	Team        TeamRef     `json:"team"`
	Type        PlayType    `json:"type"`
	Text        string      `json:"text"`
	HomeScore   int         `json:"homeScore"`
	AwayScore   int         `json:"awayScore"`
	Period      Period      `json:"period"`
	Clock       Clock       `json:"clock"`
	ScoringType ScoringType `json:"scoringType"`
}

type ScoringType struct {
	Name string `json:"name"`
}

// Probability is one end-of-play win probability entry from the v2
// probabilities feed. Percentages are missing on some administrative plays.
type Probability struct {
	HomeWinPercentage *float64 `json:"homeWinPercentage"`
	AwayWinPercentage *float64 `json:"awayWinPercentage"`
	TiePercentage     float64  `json:"tiePercentage"`
}

// Scoreboard is the site API scoreboard payload.
type Scoreboard struct {
	Events  []Event  `json:"events"`
	Week    Week     `json:"week"`
	Season  Season   `json:"season"`
	Leagues []League `json:"leagues"`
}

type League struct {
	Season Season `json:"season"`
}

type Event struct {
	ID           ID            `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []Competition `json:"competitions"`
	Status       Status        `json:"status"`
}
