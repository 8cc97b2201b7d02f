package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayIDFromRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"full ref with query", "http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/events/401/competitions/401/plays/4016272825?lang=en", "4016272825"},
		{"no query string", "http://example.com/plays/123", "123"},
		{"bare id", "123", "123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, playIDFromRef(tt.ref))
		})
	}
}

func TestFetchPlayByPlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "401", r.URL.Query().Get("gameId"))
		fmt.Fprint(w, `{"gamepackageJSON":{"header":{"id":"401","week":{"number":3}}}}`)
	}))
	defer srv.Close()

	client := New("", srv.URL, "")
	game, err := client.FetchPlayByPlay(context.Background(), "401")
	require.NoError(t, err)
	assert.Equal(t, "401", game.Header.ID.String())
	assert.Equal(t, 3, game.Header.Week.Number)
}

func TestFetchPlayByPlayMissingGamepackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"somethingElse":true}`)
	}))
	defer srv.Close()

	client := New("", srv.URL, "")
	_, err := client.FetchPlayByPlay(context.Background(), "401")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing gamepackageJSON")
}

func TestFetchPlayByPlayRejectsHTMLErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>blocked</body></html>`)
	}))
	defer srv.Close()

	client := New("", srv.URL, "")
	_, err := client.FetchPlayByPlay(context.Background(), "401")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML error page")
}

func TestFetchProbabilitiesPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"pageCount":2,"items":[
				{"$ref":"http://core/plays/p1?lang=en","homeWinPercentage":0.61,"awayWinPercentage":0.39},
				{"$ref":"","homeWinPercentage":0.5,"awayWinPercentage":0.5}
			]}`)
		case "2":
			fmt.Fprint(w, `{"pageCount":2,"items":[
				{"$ref":"http://core/plays/p2","homeWinPercentage":0.72,"awayWinPercentage":0.28}
			]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	client := New("", "", srv.URL)
	probs, err := client.FetchProbabilities(context.Background(), "401")
	require.NoError(t, err)

	require.Len(t, probs, 2)
	require.NotNil(t, probs["p1"].HomeWinPercentage)
	assert.InDelta(t, 0.61, *probs["p1"].HomeWinPercentage, 1e-9)
	require.NotNil(t, probs["p2"].HomeWinPercentage)
	assert.InDelta(t, 0.72, *probs["p2"].HomeWinPercentage, 1e-9)
	require.NotNil(t, probs["p2"].AwayWinPercentage)
	assert.InDelta(t, 0.28, *probs["p2"].AwayWinPercentage, 1e-9)
}

func TestFetchProbabilitiesFetchFailureReturnsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"pageCount":3,"items":[
				{"$ref":"http://core/plays/p1","homeWinPercentage":0.55,"awayWinPercentage":0.45}
			]}`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New("", "", srv.URL)
	probs, err := client.FetchProbabilities(context.Background(), "401")
	require.NoError(t, err)
	require.Len(t, probs, 1)
	require.NotNil(t, probs["p1"].HomeWinPercentage)
	assert.InDelta(t, 0.55, *probs["p1"].HomeWinPercentage, 1e-9)
}

func TestFetchPregameProbabilities(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantHome float64
		wantAway float64
	}{
		{"normal pair", `{"winprobability":[{"homeWinPercentage":0.62}]}`, 200, 0.62, 0.38},
		{"clamped above one", `{"winprobability":[{"homeWinPercentage":1.4}]}`, 200, 1.0, 0.0},
		{"clamped below zero", `{"winprobability":[{"homeWinPercentage":-0.2}]}`, 200, 0.0, 1.0},
		{"empty winprobability", `{"winprobability":[]}`, 200, 0.5, 0.5},
		{"null home value", `{"winprobability":[{"homeWinPercentage":null}]}`, 200, 0.5, 0.5},
		{"server error", ``, 500, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "401", r.URL.Query().Get("event"))
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := New(srv.URL, "", "")
			pregame := client.FetchPregameProbabilities(context.Background(), "401")
			assert.InDelta(t, tt.wantHome, pregame.Home, 1e-9)
			assert.InDelta(t, tt.wantAway, pregame.Away, 1e-9)
		})
	}
}

func TestFetchScoreboardWeekParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"week":{"number":5},"events":[{"id":"401","name":"Denver Broncos at Seattle Seahawks"}]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "", "")

	sb, err := client.FetchScoreboard(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "week=5&seasontype=2", gotQuery)
	assert.Equal(t, 5, sb.Week.Number)
	require.Len(t, sb.Events, 1)
	assert.Equal(t, "401", sb.Events[0].ID.String())

	// Zero week and season type fall back to the current scoreboard.
	_, err = client.FetchScoreboard(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}
