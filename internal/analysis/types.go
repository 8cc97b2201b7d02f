package analysis

// Detail categories. All Plays and Drive Starts are built during the fold but
// only the expanded categories ship in API payloads.
const (
	CategoryAllPlays           = "All Plays"
	CategoryTurnovers          = "Turnovers"
	CategoryExplosivePlays     = "Explosive Plays"
	CategoryNonOffensiveScores = "Non-Offensive Scores"
	CategoryPointsPerTrip      = "Points Per Trip (Inside 40)"
	CategoryDriveStarts        = "Drive Starts"
	CategoryPenaltyYards       = "Penalty Yards"
	CategoryYardsCorrections   = "Total Yards Corrections"
	CategoryNonOffensivePoints = "Non-Offensive Points"
)

// AllCategories is every category the fold populates, in display order.
var AllCategories = []string{
	CategoryAllPlays,
	CategoryTurnovers,
	CategoryExplosivePlays,
	CategoryNonOffensiveScores,
	CategoryPointsPerTrip,
	CategoryDriveStarts,
	CategoryPenaltyYards,
	CategoryYardsCorrections,
	CategoryNonOffensivePoints,
}

// ExpandedCategories is the subset exposed on API payloads.
var ExpandedCategories = []string{
	CategoryTurnovers,
	CategoryExplosivePlays,
	CategoryNonOffensiveScores,
	CategoryPointsPerTrip,
	CategoryPenaltyYards,
	CategoryNonOffensivePoints,
}

// StatsRow is one team's finalized stat line. JSON keys are the display
// labels the web client renders directly as column headers.
type StatsRow struct {
	TeamID             string  `json:"-"`
	Team               string  `json:"Team"`
	Score              int     `json:"Score"`
	Turnovers          int     `json:"Turnovers"`
	TotalYards         int     `json:"Total Yards"`
	YardsPerPlay       float64 `json:"Yards Per Play"`
	SuccessRate        float64 `json:"Success Rate"`
	ExplosivePlays     int     `json:"Explosive Plays"`
	ExplosivePlayRate  float64 `json:"Explosive Play Rate"`
	PointsPerTrip      float64 `json:"Points Per Trip (Inside 40)"`
	AveStartFieldPos   string  `json:"Ave Start Field Pos"`
	Drives             int     `json:"Drives"`
	TurnoverMargin     int     `json:"Turnover Margin"`
	PointsPerDrive     float64 `json:"Points per Drive"`
	NetPunting         float64 `json:"Net Punting"`
	NetKickoff         float64 `json:"Net Kickoff"`
	STPenalties        int     `json:"ST Penalties"`
	PenaltyYards       int     `json:"Penalty Yards"`
	NonOffensivePoints int     `json:"Non-Offensive Points"`
}

// SummaryRow is the short table slice of a StatsRow.
type SummaryRow struct {
	Team       string `json:"Team"`
	Score      int    `json:"Score"`
	TotalYards int    `json:"Total Yards"`
	Drives     int    `json:"Drives"`
}

// AdvancedRow is the advanced table slice of a StatsRow.
type AdvancedRow struct {
	Team               string  `json:"Team"`
	Score              int     `json:"Score"`
	Turnovers          int     `json:"Turnovers"`
	TotalYards         int     `json:"Total Yards"`
	YardsPerPlay       float64 `json:"Yards Per Play"`
	SuccessRate        float64 `json:"Success Rate"`
	ExplosivePlays     int     `json:"Explosive Plays"`
	ExplosivePlayRate  float64 `json:"Explosive Play Rate"`
	PointsPerTrip      float64 `json:"Points Per Trip (Inside 40)"`
	AveStartFieldPos   string  `json:"Ave Start Field Pos"`
	PenaltyYards       int     `json:"Penalty Yards"`
	NonOffensivePoints int     `json:"Non-Offensive Points"`
}

// DetailEntry is a category-tagged play excerpt for drill-down lists.
// Optional fields are omitted per category.
type DetailEntry struct {
	Type        string               `json:"type"`
	Text        string               `json:"text"`
	Yards       *int                 `json:"yards,omitempty"`
	Quarter     int                  `json:"quarter,omitempty"`
	Clock       string               `json:"clock,omitempty"`
	StartPos    string               `json:"start_pos,omitempty"`
	EndPos      string               `json:"end_pos,omitempty"`
	Points      *int                 `json:"points,omitempty"`
	Probability *ProbabilitySnapshot `json:"probability,omitempty"`
	Reason      string               `json:"reason,omitempty"`

	// Total Yards Corrections fields.
	StatYardage         *int `json:"statYardage,omitempty"`
	StartYardsToEndzone *int `json:"startYardsToEndzone,omitempty"`
	PenaltyYards        *int `json:"penaltyYards,omitempty"`
	EnforcedAtYTE       *int `json:"enforcedAtYardsToEndzone,omitempty"`
	CorrectedYards      *int `json:"correctedYards,omitempty"`
}

// ExpandedDetails maps team id -> category -> ordered entries.
type ExpandedDetails map[string]map[string][]DetailEntry

// TeamMeta is the per-team identity block on payloads.
type TeamMeta struct {
	ID       string `json:"id"`
	Abbr     string `json:"abbr"`
	Name     string `json:"name"`
	HomeAway string `json:"homeAway"`
}

// WPFilter describes the competitive filter applied to the filtered tables.
type WPFilter struct {
	Enabled     bool    `json:"enabled"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

// GameClock is the live-game clock block; nil once a game is final.
type GameClock struct {
	Quarter      int    `json:"quarter"`
	Clock        string `json:"clock"`
	DisplayValue string `json:"displayValue"`
}

// WeekInfo identifies the schedule slot a cached game belongs to.
type WeekInfo struct {
	Number     int `json:"number"`
	SeasonType int `json:"seasonType"`
}

// Payload is the full analysis response for one game.
type Payload struct {
	GameID              string          `json:"gameId"`
	Label               string          `json:"label"`
	Status              string          `json:"status"`
	GameClock           *GameClock      `json:"gameClock"`
	LastPlayTime        *string         `json:"lastPlayTime"`
	Week                *WeekInfo       `json:"week,omitempty"`
	WPFilter            WPFilter        `json:"wp_filter"`
	TeamMeta            []TeamMeta      `json:"team_meta"`
	SummaryTable        []SummaryRow    `json:"summary_table"`
	AdvancedTable       []AdvancedRow   `json:"advanced_table"`
	SummaryTableFull    []SummaryRow    `json:"summary_table_full"`
	AdvancedTableFull   []AdvancedRow   `json:"advanced_table_full"`
	ExpandedDetails     ExpandedDetails `json:"expanded_details"`
	ExpandedDetailsFull ExpandedDetails `json:"expanded_details_full"`
	FromCache           bool            `json:"from_cache,omitempty"`
	Analysis            string          `json:"analysis"`
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
