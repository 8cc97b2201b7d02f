package espn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string id", `"4016272825"`, "4016272825"},
		{"numeric id", `4016272825`, "4016272825"},
		{"large numeric id keeps digits", `401627282512345`, "401627282512345"},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &id))
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestGameDataDecodeMixedIDTypes(t *testing.T) {
	raw := `{
		"header": {"id": "401", "week": {"number": 1}, "season": {"year": 2025, "type": 2}},
		"scoringPlays": [{"id": 4016272825, "homeScore": 7, "awayScore": 0}]
	}`

	var game GameData
	require.NoError(t, json.Unmarshal([]byte(raw), &game))
	assert.Equal(t, "401", game.Header.ID.String())
	require.Len(t, game.ScoringPlays, 1)
	assert.Equal(t, "4016272825", game.ScoringPlays[0].ID.String())
	assert.Equal(t, 7, game.ScoringPlays[0].HomeScore)
}
