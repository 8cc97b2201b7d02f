package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	SiteAPIBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	CDNBaseURL     = "https://cdn.espn.com/core/nfl"
	CoreAPIBaseURL = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"
)

// Client handles ESPN API requests.
// ESPN throttles requests that look like default Go clients, so every
// request carries a browser User-Agent and standard accept headers.
type Client struct {
	httpClient *http.Client
	siteURL    string
	cdnURL     string
	coreURL    string
}

// New creates an ESPN API client with custom base URLs. Empty strings
// fall back to the production endpoints.
func New(siteURL, cdnURL, coreURL string) *Client {
	if siteURL == "" {
		siteURL = SiteAPIBaseURL
	}
	if cdnURL == "" {
		cdnURL = CDNBaseURL
	}
	if coreURL == "" {
		coreURL = CoreAPIBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		siteURL:    siteURL,
		cdnURL:     cdnURL,
		coreURL:    coreURL,
	}
}

// NewClient creates an ESPN API client with default settings.
func NewClient() *Client {
	return New("", "", "")
}

// FetchScoreboard fetches the scoreboard for a week. Zero week/seasonType
// fetch ESPN's current week.
func (c *Client) FetchScoreboard(ctx context.Context, week, seasonType int) (*Scoreboard, error) {
	url := fmt.Sprintf("%s/scoreboard", c.siteURL)
	if week > 0 && seasonType > 0 {
		url = fmt.Sprintf("%s?week=%d&seasontype=%d", url, week, seasonType)
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var sb Scoreboard
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}
	return &sb, nil
}

// FetchPlayByPlay fetches the full gamepackage play-by-play for a game
// from the CDN feed, which carries drives and scoring plays that the
// site summary endpoint omits.
func (c *Client) FetchPlayByPlay(ctx context.Context, gameID string) (*GameData, error) {
	url := fmt.Sprintf("%s/playbyplay?xhr=1&gameId=%s&cb=%d", c.cdnURL, gameID, time.Now().UnixMilli())

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Gamepackage json.RawMessage `json:"gamepackageJSON"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding playbyplay envelope: %w", err)
	}
	if len(envelope.Gamepackage) == 0 {
		return nil, fmt.Errorf("playbyplay response missing gamepackageJSON for game %s", gameID)
	}

	var game GameData
	if err := json.Unmarshal(envelope.Gamepackage, &game); err != nil {
		return nil, fmt.Errorf("decoding gamepackage: %w", err)
	}
	return &game, nil
}

// FetchProbabilities fetches end-of-play win probabilities for a game,
// keyed by play ID. The core feed pages at 100 items, and each item
// references its play by URL rather than carrying an id field.
func (c *Client) FetchProbabilities(ctx context.Context, gameID string) (map[string]Probability, error) {
	probs := make(map[string]Probability)

	page := 1
	for {
		url := fmt.Sprintf("%s/events/%s/competitions/%s/probabilities?limit=100&page=%d",
			c.coreURL, gameID, gameID, page)

		body, err := c.fetch(ctx, url)
		if err != nil {
			// Probabilities are an enrichment; a missing feed should not
			// sink the whole analysis.
			log.Printf("[espn-client] probabilities fetch failed for game %s page %d: %v", gameID, page, err)
			return probs, nil
		}

		var result struct {
			PageCount int `json:"pageCount"`
			Items     []struct {
				PlayRef string `json:"$ref"`
				Probability
			} `json:"items"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding probabilities page %d: %w", page, err)
		}

		for _, item := range result.Items {
			playID := playIDFromRef(item.PlayRef)
			if playID == "" {
				continue
			}
			probs[playID] = item.Probability
		}

		if page >= result.PageCount {
			break
		}
		page++
	}

	return probs, nil
}

// PregameProbabilities is the opening win probability pair, clamped to [0, 1].
type PregameProbabilities struct {
	Home float64
	Away float64
}

// FetchPregameProbabilities fetches the first win probability entry from
// the game summary. The away value is derived as the complement of home
// rather than read from the feed, which sometimes reports stale pairs.
// Missing data yields a 50/50 split.
func (c *Client) FetchPregameProbabilities(ctx context.Context, gameID string) PregameProbabilities {
	fallback := PregameProbabilities{Home: 0.5, Away: 0.5}

	url := fmt.Sprintf("%s/summary?event=%s", c.siteURL, gameID)
	body, err := c.fetch(ctx, url)
	if err != nil {
		log.Printf("[espn-client] pregame probability fetch failed for game %s: %v", gameID, err)
		return fallback
	}

	var result struct {
		WinProbability []struct {
			HomeWinPercentage *float64 `json:"homeWinPercentage"`
		} `json:"winprobability"`
	}
	if err := json.Unmarshal(body, &result); err != nil || len(result.WinProbability) == 0 {
		return fallback
	}

	home := result.WinProbability[0].HomeWinPercentage
	if home == nil {
		return fallback
	}

	h := clamp01(*home)
	return PregameProbabilities{Home: h, Away: clamp01(1 - h)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// playIDFromRef extracts the trailing play ID from a core API $ref URL,
// e.g. ".../plays/4016272825?lang=en" -> "4016272825".
func playIDFromRef(ref string) string {
	if ref == "" {
		return ""
	}
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.espn.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// ESPN serves HTML error pages with a 200 status when it blocks a client.
	if len(body) > 0 && body[0] == '<' {
		return nil, fmt.Errorf("fetching %s: got HTML error page", url)
	}

	return body, nil
}
