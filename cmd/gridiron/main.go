package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/gridiron/internal/analysis"
	"github.com/fortuna/gridiron/internal/api/rest"
	"github.com/fortuna/gridiron/internal/api/websocket"
	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/espn"
	"github.com/fortuna/gridiron/internal/publisher"
	"github.com/fortuna/gridiron/internal/scheduler"
	"github.com/fortuna/gridiron/internal/service"
)

const (
	serviceName    = "gridiron"
	serviceVersion = "1.3.0"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log.Printf("Starting %s v%s - NFL Advanced Analytics Service", serviceName, serviceVersion)

	// Load configuration from environment
	config := loadConfig()

	// Initialize ESPN API client
	espnClient := espn.New(config.ESPNSiteBase, config.ESPNCDNBase, config.ESPNCoreBase)
	log.Println("✓ ESPN client initialized")

	// Initialize cache backend. Redis when configured, otherwise a local
	// file cache so the service works without any infrastructure.
	var kv cache.KV
	var redisCache *cache.RedisCache
	var streamPublisher *publisher.RedisStreamPublisher

	if config.RedisURL != "" {
		var err error
		maxRetries := 30
		retryDelay := 2 * time.Second

		log.Println("Connecting to Redis...")
		for i := 0; i < maxRetries; i++ {
			redisCache, err = cache.NewRedisCache(config.RedisURL)
			if err == nil {
				break
			}

			if i < maxRetries-1 {
				log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
				time.Sleep(retryDelay)
			} else {
				log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
			}
		}
		defer redisCache.Close()

		kv = redisCache
		streamPublisher = publisher.NewRedisStreamPublisher(redisCache.Client())
		log.Println("✓ Connected to Redis")
	} else {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			log.Fatalf("Failed to initialize file cache: %v", err)
		}
		kv = fileCache
		log.Printf("✓ File cache initialized (dir: %s)", config.CacheDir)
	}

	gameStore := cache.NewGameStore(kv)

	// Initialize game service
	gameService := service.NewGameService(espnClient, gameStore, config.WPThreshold)
	log.Printf("✓ Game service initialized (WP threshold: %.4f)", config.WPThreshold)

	// Initialize WebSocket server
	wsServer := websocket.NewServer()
	go func() {
		log.Printf("Starting WebSocket server on port %s", config.WSPort)
		if err := wsServer.Start(config.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("✓ WebSocket server listening on :%s", config.WSPort)

	// Initialize scheduler/orchestrator with configuration
	schedulerConfig := &scheduler.Config{
		LivePollInterval:  config.PollInterval,
		EnableLivePolling: config.EnableLivePolling,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
	}

	sched := scheduler.NewOrchestrator(gameService, streamPublisher, wsServer, schedulerConfig)

	// Start scheduler in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	log.Println("✓ Scheduler started")

	// Initialize REST API server
	restServer := rest.NewServer(config.RESTPort, gameService)
	go func() {
		log.Printf("Starting REST API server on port %s", config.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ REST API server listening on :%s", config.RESTPort)
	log.Printf("✓ Gridiron v%s started successfully", serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", config.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s", config.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down Gridiron gracefully...")

	// Graceful shutdown
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Println("Gridiron stopped")
}

type Config struct {
	RedisURL          string
	CacheDir          string
	RESTPort          string
	WSPort            string
	ESPNSiteBase      string
	ESPNCDNBase       string
	ESPNCoreBase      string
	WPThreshold       float64
	PollInterval      time.Duration
	EnableLivePolling bool
	LogLevel          string
}

func loadConfig() Config {
	return Config{
		RedisURL:          getEnv("REDIS_URL", ""),
		CacheDir:          getEnv("CACHE_DIR", ""),
		RESTPort:          getEnv("REST_PORT", "8080"),
		WSPort:            getEnv("WS_PORT", "8081"),
		ESPNSiteBase:      getEnv("ESPN_SITE_API_BASE", ""),
		ESPNCDNBase:       getEnv("ESPN_CDN_BASE", ""),
		ESPNCoreBase:      getEnv("ESPN_CORE_API_BASE", ""),
		WPThreshold:       getEnvFloat("WP_THRESHOLD", analysis.DefaultWPThreshold),
		PollInterval:      getEnvDuration("POLL_INTERVAL", 30*time.Second),
		EnableLivePolling: getEnv("ENABLE_LIVE_POLLING", "true") == "true",
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("⚠️  Invalid %s value %q, using default %.4f", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("⚠️  Invalid %s value %q, using default %v", key, value, defaultValue)
	}
	return defaultValue
}
