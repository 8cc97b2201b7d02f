package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/gridiron/internal/espn"
)

func TestCalculateSuccess(t *testing.T) {
	tests := []struct {
		name     string
		down     int
		distance float64
		yards    float64
		want     bool
	}{
		{"first down 40 percent exactly", 1, 10, 4, true},
		{"first down just short", 1, 10, 3.9, false},
		{"first down big gain", 1, 10, 15, true},
		{"second down 60 percent exactly", 2, 10, 6, true},
		{"second down just short", 2, 10, 5, false},
		{"third down converted", 3, 5, 5, true},
		{"third down short", 3, 5, 4, false},
		{"fourth down converted", 4, 1, 1, true},
		{"fourth down stuffed", 4, 1, 0, false},
		{"negative yardage never succeeds", 1, 10, -3, false},
		{"unknown down", 0, 10, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateSuccess(tt.down, tt.distance, tt.yards))
		})
	}
}

func playWith(text, typeText string) *espn.Play {
	return &espn.Play{
		Text: text,
		Type: espn.PlayType{Text: typeText},
	}
}

func TestClassifyOffensePlay(t *testing.T) {
	tests := []struct {
		name        string
		play        *espn.Play
		wantOffense bool
		wantRun     bool
		wantPass    bool
	}{
		{
			name:        "standard pass",
			play:        playWith("G.Smith pass short right to D.Metcalf for 12 yards", "Pass Reception"),
			wantOffense: true,
			wantPass:    true,
		},
		{
			name:        "rush by directional pattern",
			play:        playWith("K.Walker up the middle for 4 yards", "Rush"),
			wantOffense: true,
			wantRun:     true,
		},
		{
			name:        "sack counts as pass dropback",
			play:        playWith("G.Smith sacked at SEA 25 for -7 yards", "Sack"),
			wantOffense: true,
			wantPass:    true,
		},
		{
			name:        "scramble is a pass not a run",
			play:        playWith("G.Smith scrambles right end for 9 yards", "Rush"),
			wantOffense: true,
			wantRun:     false,
			wantPass:    true,
		},
		{
			name: "kneel excluded",
			play: playWith("G.Smith kneels to SEA 32 for -1 yards", "Rush"),
		},
		{
			name: "spike excluded",
			play: playWith("G.Smith spiked the ball to stop the clock", "Pass Incompletion"),
		},
		{
			name: "punt excluded",
			play: playWith("M.Dickson punts 48 yards to DEN 12", "Punt"),
		},
		{
			name: "field goal excluded",
			play: playWith("J.Myers 42 yard field goal is GOOD", "Field Goal Good"),
		},
		{
			name: "kickoff return excluded",
			play: playWith("J.Tuten kickoff return for 24 yards", "Kickoff Return (Offense)"),
		},
		{
			name: "nullified play excluded",
			play: playWith("G.Smith pass deep left for 40 yards. Play nullified by penalty.", "Pass Reception"),
		},
		{
			name: "no-play penalty excluded",
			play: playWith("PENALTY on SEA-False Start, 5 yards, enforced at SEA 30 - No Play.", "Penalty"),
		},
		{
			name:        "offensive touchdown survives special teams keywords",
			play:        playWith("G.Smith pass deep middle to D.Metcalf for 35 yards, TOUCHDOWN. Extra point is GOOD.", "Passing Touchdown"),
			wantOffense: true,
			wantPass:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOffense, gotRun, gotPass := ClassifyOffensePlay(tt.play)
			assert.Equal(t, tt.wantOffense, gotOffense, "isOffense")
			assert.Equal(t, tt.wantRun, gotRun, "isRun")
			assert.Equal(t, tt.wantPass, gotPass, "isPass")
		})
	}
}

func TestClassifyTotalOffensePlay(t *testing.T) {
	tests := []struct {
		name        string
		play        *espn.Play
		wantOffense bool
		wantRun     bool
		wantPass    bool
	}{
		{
			name:        "kneel counts as a rush attempt",
			play:        playWith("G.Smith kneels to SEA 32 for -1 yards", "Rush"),
			wantOffense: true,
			wantRun:     true,
		},
		{
			name:        "spike counts as a pass attempt",
			play:        playWith("G.Smith spiked the ball to stop the clock", "Pass Incompletion"),
			wantOffense: true,
			wantPass:    true,
		},
		{
			name:        "aborted snap with fumble is a rush",
			play:        playWith("Aborted. C.Tice FUMBLES at the snap, and recovers at SEA 22.", "Fumble Recovery (Own)"),
			wantOffense: true,
			wantRun:     true,
		},
		{
			name: "punt still excluded",
			play: playWith("M.Dickson punts 48 yards to DEN 12", "Punt"),
		},
		{
			name: "nullified still excluded",
			play: playWith("G.Smith pass deep left. Play nullified by penalty.", "Pass Reception"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOffense, gotRun, gotPass := ClassifyTotalOffensePlay(tt.play)
			assert.Equal(t, tt.wantOffense, gotOffense, "isOffense")
			assert.Equal(t, tt.wantRun, gotRun, "isRun")
			assert.Equal(t, tt.wantPass, gotPass, "isPass")
		})
	}
}
