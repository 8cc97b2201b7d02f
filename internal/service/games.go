package service

import (
	"context"
	"fmt"
	"log"

	"github.com/fortuna/gridiron/internal/analysis"
	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/espn"
)

// playoffWeekLabels maps postseason week numbers to display names.
var playoffWeekLabels = map[int]string{
	1: "Wild Card",
	2: "Divisional Round",
	3: "Conference Championship",
	5: "Super Bowl",
}

// GameService answers analysis and scoreboard requests, serving finalized
// games from the snapshot cache and running the engine for everything else.
type GameService struct {
	client    *espn.Client
	store     *cache.GameStore
	threshold float64
}

// NewGameService creates a new game service. store may be nil to disable
// the snapshot cache entirely.
func NewGameService(client *espn.Client, store *cache.GameStore, threshold float64) *GameService {
	if threshold == 0 {
		threshold = analysis.DefaultWPThreshold
	}
	return &GameService{
		client:    client,
		store:     store,
		threshold: threshold,
	}
}

// AnalyzeGame returns the full analysis payload for one game. Cached
// snapshots are trusted only when versioned and final; otherwise the feeds
// are fetched and the engine runs fresh. threshold 0 uses the configured
// default.
func (s *GameService) AnalyzeGame(ctx context.Context, gameID string, threshold float64) (*analysis.Payload, error) {
	if threshold == 0 {
		threshold = s.threshold
	}

	if s.store != nil {
		meta, stats, plays, err := s.store.GetGame(ctx, gameID)
		if err != nil {
			log.Printf("[game-service] cache read failed for game %s: %v", gameID, err)
		} else if meta != nil {
			log.Printf("[game-service] ✓ serving game %s from cache", gameID)
			return analysis.RebuildPayload(*meta, *stats, *plays, threshold), nil
		}
	}

	game, err := s.client.FetchPlayByPlay(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching play-by-play for game %s: %w", gameID, err)
	}

	pregame := s.client.FetchPregameProbabilities(ctx, gameID)
	probMap, err := s.client.FetchProbabilities(ctx, gameID)
	if err != nil {
		log.Printf("[game-service] probabilities unavailable for game %s: %v", gameID, err)
		probMap = map[string]espn.Probability{}
	}

	payload, statsRows := analysis.BuildPayload(gameID, game, probMap, &pregame, threshold)

	if s.store != nil && payload.Status == analysis.StatusFinal {
		lastPlay := analysis.LastPlayTime(game)
		if cache.ShouldCacheGame(true, lastPlay) {
			s.cacheFinalGame(ctx, gameID, game, payload, statsRows, probMap, &pregame, threshold, lastPlay)
		} else {
			log.Printf("[game-service] game %s final but inside completion delay, not caching", gameID)
		}
	}

	return payload, nil
}

func (s *GameService) cacheFinalGame(ctx context.Context, gameID string, game *espn.GameData,
	payload *analysis.Payload, statsRows []analysis.StatsRow, probMap map[string]espn.Probability,
	pregame *espn.PregameProbabilities, threshold float64, lastPlay string) {

	var completion *string
	if lastPlay != "" {
		completion = &lastPlay
	}
	week := analysis.WeekInfo{
		Number:     game.Header.Week.Number,
		SeasonType: game.Header.Season.Type,
	}
	if week.SeasonType == 0 {
		week.SeasonType = 2
	}

	meta := analysis.BuildCacheMeta(gameID, payload.TeamMeta, threshold, completion, week)
	stats := analysis.BuildCacheStats(statsRows)
	plays := analysis.BuildCachePlays(game, probMap, pregame)

	if err := s.store.CacheGame(ctx, gameID, meta, stats, plays); err != nil {
		log.Printf("[game-service] ⚠️ caching game %s failed: %v", gameID, err)
		return
	}
	log.Printf("[game-service] ✓ cached final game %s (%d plays)", gameID, plays.PlayCount)
}

// ScoreboardTeam is one side of a scoreboard game.
type ScoreboardTeam struct {
	ID    string `json:"id"`
	Abbr  string `json:"abbr"`
	Name  string `json:"name"`
	Logo  string `json:"logo"`
	Score string `json:"score"`
}

// ScoreboardGame is one game on the transformed scoreboard.
type ScoreboardGame struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ShortName    string         `json:"shortName"`
	Date         string         `json:"date"`
	Status       string         `json:"status"`
	StatusDetail string         `json:"statusDetail"`
	Home         ScoreboardTeam `json:"home"`
	Away         ScoreboardTeam `json:"away"`
}

// ScoreboardResponse is the transformed weekly scoreboard.
type ScoreboardResponse struct {
	Week       int              `json:"week"`
	SeasonType int              `json:"seasonType"`
	WeekLabel  string           `json:"weekLabel"`
	Games      []ScoreboardGame `json:"games"`
}

// Scoreboard fetches and transforms the weekly scoreboard. Zero week and
// seasonType return the current week.
func (s *GameService) Scoreboard(ctx context.Context, week, seasonType int) (*ScoreboardResponse, error) {
	sb, err := s.client.FetchScoreboard(ctx, week, seasonType)
	if err != nil {
		return nil, fmt.Errorf("fetching scoreboard: %w", err)
	}

	resolvedType := seasonType
	if resolvedType == 0 && len(sb.Leagues) > 0 {
		resolvedType = sb.Leagues[0].Season.Type
	}
	if resolvedType == 0 {
		resolvedType = 2
	}

	resp := &ScoreboardResponse{
		Week:       sb.Week.Number,
		SeasonType: resolvedType,
		WeekLabel:  weekLabel(sb.Week.Number, resolvedType),
		Games:      []ScoreboardGame{},
	}

	for _, ev := range sb.Events {
		game := ScoreboardGame{
			ID:           ev.ID.String(),
			Name:         ev.Name,
			ShortName:    ev.ShortName,
			Date:         ev.Date,
			Status:       statusFromState(ev.Status.Type),
			StatusDetail: ev.Status.Type.ShortDetail,
		}
		if len(ev.Competitions) > 0 {
			for _, c := range ev.Competitions[0].Competitors {
				team := ScoreboardTeam{
					ID:    c.ID.String(),
					Abbr:  c.Team.Abbreviation,
					Name:  c.Team.DisplayName,
					Logo:  c.Team.Logo,
					Score: c.Score,
				}
				switch c.HomeAway {
				case "home":
					game.Home = team
				case "away":
					game.Away = team
				}
			}
		}
		resp.Games = append(resp.Games, game)
	}

	return resp, nil
}

func statusFromState(st espn.StatusType) string {
	switch st.State {
	case "in":
		return analysis.StatusInProgress
	case "post":
		return analysis.StatusFinal
	default:
		return analysis.StatusPregame
	}
}

func weekLabel(week, seasonType int) string {
	if seasonType == 3 {
		if label, ok := playoffWeekLabels[week]; ok {
			return label
		}
	}
	if seasonType == 1 {
		return fmt.Sprintf("Preseason Week %d", week)
	}
	return fmt.Sprintf("Week %d", week)
}
