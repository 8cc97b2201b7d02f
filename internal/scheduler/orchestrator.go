package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/fortuna/gridiron/internal/analysis"
	"github.com/fortuna/gridiron/internal/publisher"
	"github.com/fortuna/gridiron/internal/service"
)

// Broadcaster pushes live payloads to connected websocket clients
type Broadcaster interface {
	BroadcastLiveUpdate(data []byte)
}

// Orchestrator polls the weekly scoreboard, runs analysis on live games,
// and fans payloads out to Redis streams and websocket clients
type Orchestrator struct {
	games       *service.GameService
	publisher   *publisher.RedisStreamPublisher
	broadcaster Broadcaster
	config      *Config
	cancel      context.CancelFunc

	// Final games whose stats were already published this process lifetime
	publishedFinals map[string]bool
}

// Config holds scheduler configuration
type Config struct {
	LivePollInterval  time.Duration // Default: 30s
	EnableLivePolling bool          // Default: true
	MaxRetries        int           // Default: 3
	RetryDelay        time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		LivePollInterval:  30 * time.Second,
		EnableLivePolling: true,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator. pub and broadcaster
// may be nil; the corresponding fan-out is skipped.
func NewOrchestrator(games *service.GameService, pub *publisher.RedisStreamPublisher, broadcaster Broadcaster, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		games:           games,
		publisher:       pub,
		broadcaster:     broadcaster,
		config:          config,
		publishedFinals: make(map[string]bool),
	}
}

// Start begins live game polling and blocks until ctx is cancelled
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║   Gridiron Live Game Poller            ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Live polling: %v (interval: %v)", o.config.EnableLivePolling, o.config.LivePollInterval)
	log.Println()

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableLivePolling {
		go o.runLiveGamePolling(ctx)
	}

	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

// runLiveGamePolling polls the scoreboard on a fixed interval
func (o *Orchestrator) runLiveGamePolling(ctx context.Context) {
	log.Printf("→ Live game polling started (interval: %v)", o.config.LivePollInterval)

	ticker := time.NewTicker(o.config.LivePollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	maxConsecutiveErrors := 5

	// Run immediately on start
	o.pollLiveGamesWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Live game polling stopped")
			return
		case <-ticker.C:
			o.pollLiveGamesWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)
		}
	}
}

// pollLiveGamesWithRetry polls the scoreboard with retry logic
func (o *Orchestrator) pollLiveGamesWithRetry(ctx context.Context, consecutiveErrors *int, maxConsecutiveErrors int) {
	var sb *service.ScoreboardResponse
	var err error

	// Retry loop
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		sb, err = o.games.Scoreboard(ctx, 0, 0)

		if err == nil {
			*consecutiveErrors = 0 // Reset on success
			break
		}

		log.Printf("  ⚠️  Polling attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			log.Printf("  Retrying in %v...", o.config.RetryDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
				// Continue to next attempt
			}
		}
	}

	// All retries exhausted
	if err != nil {
		*consecutiveErrors++
		log.Printf("  ❌ All %d retry attempts failed. Consecutive errors: %d/%d",
			o.config.MaxRetries, *consecutiveErrors, maxConsecutiveErrors)

		// If too many consecutive errors, reduce polling frequency
		if *consecutiveErrors >= maxConsecutiveErrors {
			log.Printf("  ⚠️  High error rate detected. Slowing polling to 30s...")
			time.Sleep(20 * time.Second) // Additional delay
		}
		return
	}

	liveGameCount := 0
	for _, game := range sb.Games {
		switch game.Status {
		case analysis.StatusInProgress:
			liveGameCount++
			o.analyzeAndPublishLive(ctx, game.ID)
		case analysis.StatusFinal:
			if !o.publishedFinals[game.ID] {
				o.analyzeAndPublishFinal(ctx, game.ID)
			}
		}
	}

	if liveGameCount > 0 {
		log.Printf("  ✓ Analyzed and published %d live games", liveGameCount)
	}
}

// analyzeAndPublishLive runs analysis on a live game and fans the payload out
func (o *Orchestrator) analyzeAndPublishLive(ctx context.Context, gameID string) {
	payload, err := o.games.AnalyzeGame(ctx, gameID, 0)
	if err != nil {
		log.Printf("  ⚠️  Failed to analyze live game %s: %v", gameID, err)
		return
	}

	if o.publisher != nil {
		if err := o.publisher.PublishLiveGameUpdate(ctx, payload); err != nil {
			log.Printf("  ⚠️  Failed to publish game %s: %v", gameID, err)
		}
	}

	if o.broadcaster != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("  ⚠️  Failed to marshal payload for game %s: %v", gameID, err)
			return
		}
		o.broadcaster.BroadcastLiveUpdate(data)
	}
}

// analyzeAndPublishFinal runs analysis on a freshly finished game once;
// the service layer caches the snapshot as a side effect
func (o *Orchestrator) analyzeAndPublishFinal(ctx context.Context, gameID string) {
	payload, err := o.games.AnalyzeGame(ctx, gameID, 0)
	if err != nil {
		log.Printf("  ⚠️  Failed to analyze final game %s: %v", gameID, err)
		return
	}

	if o.publisher != nil {
		if err := o.publisher.PublishGameStats(ctx, payload); err != nil {
			log.Printf("  ⚠️  Failed to publish final stats for game %s: %v", gameID, err)
			return
		}
	}

	o.publishedFinals[gameID] = true
	log.Printf("  ✓ Published final stats for game %s", gameID)
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")

	if o.cancel != nil {
		o.cancel()
	}

	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"live_polling_enabled": o.config.EnableLivePolling,
		"live_poll_interval":   o.config.LivePollInterval.String(),
		"finals_published":     len(o.publishedFinals),
	}
}
