package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to REDIS_URL for the OTP resend cooldown.
// It returns nil if the URL is missing or the server cannot be reached; callers
// then run without a cooldown.
func NewRedisClient(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("⚠️ REDIS_URL is not set")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("❌ Could not parse Redis URL: %v", err)
		return nil
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 3 * time.Second
	}
	// Cooldown checks run on the request path.
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Could not connect to Redis at %s: %v", opts.Addr, err)
		_ = client.Close()
		return nil
	}

	log.Printf("✅ Successfully connected to Redis at %s (db %d)", opts.Addr, opts.DB)
	return client
}
