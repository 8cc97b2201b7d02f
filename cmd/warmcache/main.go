package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/fortuna/gridiron/internal/analysis"
	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/espn"
	"github.com/fortuna/gridiron/internal/service"
)

const (
	appName    = "gridiron-warmcache"
	appVersion = "1.3.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	var (
		redisURL   = flag.String("redis-url", getEnv("REDIS_URL", ""), "Redis URL (empty uses file cache)")
		cacheDir   = flag.String("cache-dir", getEnv("CACHE_DIR", ""), "File cache directory")
		week       = flag.Int("week", 0, "Week number to warm (0 = current week)")
		seasonType = flag.Int("seasontype", 0, "Season type (1=pre, 2=regular, 3=post)")
		gameID     = flag.String("game", "", "Single ESPN game ID to warm")
		threshold  = flag.Float64("threshold", analysis.DefaultWPThreshold, "Win probability filter threshold")
		delay      = flag.Duration("delay", 2*time.Second, "Delay between games to stay polite to the feed")
	)

	flag.Parse()

	kv, err := openCache(*redisURL, *cacheDir)
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}

	client := espn.NewClient()
	games := service.NewGameService(client, cache.NewGameStore(kv), *threshold)

	ctx := context.Background()

	if *gameID != "" {
		warmGame(ctx, games, *gameID)
		log.Println("✓ Cache warm complete")
		return
	}

	sb, err := games.Scoreboard(ctx, *week, *seasonType)
	if err != nil {
		log.Fatalf("fetch scoreboard: %v", err)
	}

	log.Printf("Warming %s (%d games)", sb.WeekLabel, len(sb.Games))

	warmed := 0
	for i, game := range sb.Games {
		if game.Status != analysis.StatusFinal {
			log.Printf("[%d/%d] %s skipped (%s)", i+1, len(sb.Games), game.ShortName, game.Status)
			continue
		}

		log.Printf("[%d/%d] %s", i+1, len(sb.Games), game.ShortName)
		warmGame(ctx, games, game.ID)
		warmed++

		if i < len(sb.Games)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("✓ Cache warm complete (%d games)", warmed)
}

// warmGame runs a full analysis; the service caches final games as a
// side effect.
func warmGame(ctx context.Context, games *service.GameService, gameID string) {
	payload, err := games.AnalyzeGame(ctx, gameID, 0)
	if err != nil {
		log.Printf("  ⚠️  game %s failed: %v", gameID, err)
		return
	}

	if payload.FromCache {
		log.Printf("  already cached: %s", payload.Label)
		return
	}
	log.Printf("  analyzed: %s (%s)", payload.Label, payload.Status)
}

func openCache(redisURL, cacheDir string) (cache.KV, error) {
	if redisURL != "" {
		rc, err := cache.NewRedisCache(redisURL)
		if err != nil {
			return nil, err
		}
		log.Println("✓ Connected to Redis")
		return rc, nil
	}

	fc, err := cache.NewFileCache(cacheDir)
	if err != nil {
		return nil, err
	}
	log.Println("✓ File cache initialized")
	return fc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
