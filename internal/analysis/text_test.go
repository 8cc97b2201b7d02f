package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalPlayText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "no replay note returns original",
			text: "G.Smith pass short right to D.Metcalf for 12 yards",
			want: "G.Smith pass short right to D.Metcalf for 12 yards",
		},
		{
			name: "reversed keeps trailing restatement",
			text: "G.Smith pass INTERCEPTED by P.Surtain. The play was REVERSED. G.Smith pass incomplete short right.",
			want: "G.Smith pass incomplete short right.",
		},
		{
			name: "overturned without period",
			text: "K.Walker up the middle FUMBLES. Ruling on the field was OVERTURNED (Shotgun) K.Walker up the middle for 3 yards.",
			want: "(Shotgun) K.Walker up the middle for 3 yards.",
		},
		{
			name: "multiple notes use the last",
			text: "first ruling REVERSED. second ruling REVERSED. final call stands.",
			want: "final call stands.",
		},
		{
			name: "empty remainder falls back to raw text",
			text: "The previous play is under review. The ruling was REVERSED.",
			want: "The previous play is under review. The ruling was REVERSED.",
		},
		{
			name: "empty input",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FinalPlayText(tt.text))
		})
	}
}

func TestCreditedYardsBeforeFumble(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantYards int
		wantOK    bool
	}{
		{
			name:      "gain before fumble",
			text:      "K.Walker right end for 7 yards. FUMBLES, recovered by DEN at SEA 42.",
			wantYards: 7,
			wantOK:    true,
		},
		{
			name:      "last mention before fumble wins",
			text:      "G.Smith pass to D.Metcalf for 5 yards. Lateral to K.Walker for 11 yards. FUMBLES.",
			wantYards: 11,
			wantOK:    true,
		},
		{
			name:      "no gain",
			text:      "K.Walker up the middle for no gain. FUMBLES, recovered by SEA.",
			wantYards: 0,
			wantOK:    true,
		},
		{
			name:      "loss before fumble",
			text:      "G.Smith sacked for loss of 6 yards. FUMBLES at the SEA 20.",
			wantYards: -6,
			wantOK:    true,
		},
		{
			name:   "no fumble in text",
			text:   "K.Walker right end for 7 yards.",
			wantOK: false,
		},
		{
			name:   "fumble without credited yardage",
			text:   "Aborted snap, FUMBLES, recovered by DEN.",
			wantOK: false,
		},
		{
			name:   "empty input",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := creditedYardsBeforeFumble(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantYards, got)
			}
		})
	}
}

func TestEnforcedAtYardsToEndzone(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		offense string
		want    int
		wantOK  bool
	}{
		{
			name:    "own side of the field",
			text:    "PENALTY on DEN-Holding, 10 yards, enforced at SEA 35.",
			offense: "sea",
			want:    65,
			wantOK:  true,
		},
		{
			name:    "opponent side of the field",
			text:    "PENALTY on DEN-Holding, 10 yards, enforced at DEN 35.",
			offense: "sea",
			want:    35,
			wantOK:  true,
		},
		{
			name:    "midfield is symmetric",
			text:    "PENALTY on SEA-False Start, 5 yards, enforced at DEN 50.",
			offense: "sea",
			want:    50,
			wantOK:  true,
		},
		{
			name:    "with the article",
			text:    "enforced at the SEA 20",
			offense: "sea",
			want:    80,
			wantOK:  true,
		},
		{
			name:    "no enforcement spot",
			text:    "PENALTY on DEN-Holding, declined.",
			offense: "sea",
			wantOK:  false,
		},
		{
			name:    "missing offense abbreviation",
			text:    "enforced at SEA 35",
			offense: "",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := enforcedAtYardsToEndzone(tt.text, tt.offense)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeAbbr(t *testing.T) {
	known := map[string]bool{"SEA": true, "WSH": true, "LAR": true, "JAX": true, "NYG": true, "NYJ": true}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already known", "SEA", "SEA"},
		{"lowercase known", "sea", "SEA"},
		{"legacy washington", "was", "WSH"},
		{"legacy rams", "la", "LAR"},
		{"legacy jacksonville", "jac", "JAX"},
		{"unique two-letter prefix", "se", "SEA"},
		{"ambiguous two-letter prefix kept as-is", "ny", "NY"},
		{"unknown stays uppercase", "zz", "ZZ"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAbbr(tt.in, known))
		})
	}
}

func TestYardlineToCoord(t *testing.T) {
	tests := []struct {
		name   string
		pos    string
		team   string
		want   int
		wantOK bool
	}{
		{"own territory", "SEA 24", "SEA", 24, true},
		{"opponent territory", "DEN 24", "SEA", 76, true},
		{"case insensitive", "sea 40", "SEA", 40, true},
		{"unparseable", "midfield", "SEA", 0, false},
		{"empty", "", "SEA", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := YardlineToCoord(tt.pos, tt.team)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
