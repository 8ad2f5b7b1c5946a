package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const recentKey = "stitch:jobs:recent"

// Redis is a StatusStore backed by go-redis. Statuses expire after the
// configured TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects, pings and returns a Redis store.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: c, ttl: ttl}, nil
}

func statusKey(jobID string) string { return "stitch:job:" + jobID + ":status" }

func (r *Redis) Set(ctx context.Context, jobID string, st Status) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(jobID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	// Track recency once, on the first write for the job.
	if st.State == StateQueued {
		pipe := r.client.Pipeline()
		pipe.LPush(ctx, recentKey, jobID)
		pipe.LTrim(ctx, recentKey, 0, 99)
		pipe.Expire(ctx, recentKey, r.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to track job recency: %w", err)
		}
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, jobID string) (Status, bool, error) {
	b, err := r.client.Get(ctx, statusKey(jobID)).Bytes()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("failed to load status: %w", err)
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		return Status{}, false, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, true, nil
}

// Recent returns up to limit statuses, newest job first. Jobs whose
// status already expired are skipped.
func (r *Redis) Recent(ctx context.Context, limit int) ([]Status, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := r.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}
	out := make([]Status, 0, len(ids))
	for _, id := range ids {
		st, ok, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *Redis) Close() error { return r.client.Close() }

// Ping reports broker liveness for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
