package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/binrental/binrental-backend/internal/domain"
)

const snapshotTTL = 15 * time.Minute

// RequestCache keeps recent service request snapshots in Redis so the hot
// "where is my order" read does not hit Postgres every time.
type RequestCache struct {
	client *redis.Client
}

// NewRequestCache connects to Redis and verifies the connection.
func NewRequestCache(addr, password string, db int) (*RequestCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RequestCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *RequestCache) Close() error {
	return c.client.Close()
}

// StoreRequest caches a request snapshot under its business reference.
func (c *RequestCache) StoreRequest(ctx context.Context, req *domain.ServiceRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, requestKey(req.RequestID), data, snapshotTTL).Err()
}

// GetRequest returns the cached snapshot, or nil on a cache miss.
func (c *RequestCache) GetRequest(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	data, err := c.client.Get(ctx, requestKey(requestID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var req domain.ServiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func requestKey(requestID string) string {
	return fmt.Sprintf("request:%s", requestID)
}
