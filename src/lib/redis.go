package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

const EVENT_DEDUPE_TTL = 72 * time.Hour

// EventDeduper remembers provider event ids that were processed successfully.
// Stripe retries deliveries for up to three days.
type EventDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewEventDeduper(client *redis.Client, prefix string) *EventDeduper {
	return &EventDeduper{client: client, prefix: prefix, ttl: EVENT_DEDUPE_TTL}
}

func (d *EventDeduper) key(eventID string) string {
	return fmt.Sprintf("%s:%s", d.prefix, eventID)
}

func (d *EventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if d == nil || d.client == nil || eventID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *EventDeduper) Mark(ctx context.Context, eventID string) error {
	if d == nil || d.client == nil || eventID == "" {
		return nil
	}
	return d.client.SetNX(ctx, d.key(eventID), "1", d.ttl).Err()
}
