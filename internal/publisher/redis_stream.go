package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	liveStream  = "games.live.football_nfl"
	statsStream = "games.stats.football_nfl"
)

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishLiveGameUpdate publishes a live game update to the stream
func (rsp *RedisStreamPublisher) PublishLiveGameUpdate(ctx context.Context, gameData interface{}) error {
	return rsp.publish(ctx, liveStream, gameData)
}

// PublishGameStats publishes final game stats to the stream
func (rsp *RedisStreamPublisher) PublishGameStats(ctx context.Context, statsData interface{}) error {
	return rsp.publish(ctx, statsStream, statsData)
}

func (rsp *RedisStreamPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
