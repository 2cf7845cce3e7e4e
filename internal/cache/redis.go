// Package cache keeps each caregiver's newest history record in redis so the
// dashboard's "latest location" read does not hit the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/models"
)

const keyPrefix = "care_tracker:latest:"

// LatestCache is disabled (every call a no-op or miss) when redis is not configured
// or unreachable at startup.
type LatestCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
}

// NewLatestCache connects to redisURL. An empty URL or a failed ping yields a
// disabled cache rather than an error.
func NewLatestCache(redisURL string, ttl time.Duration) *LatestCache {
	c := &LatestCache{ttl: ttl}
	if redisURL == "" {
		logrus.Info("Redis URL not provided, latest-location cache disabled")
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logrus.WithError(err).Warn("Failed to parse Redis URL, latest-location cache disabled")
		return c
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis, latest-location cache disabled")
		client.Close()
		return c
	}

	c.client = client
	c.enabled = true
	logrus.Info("Redis latest-location cache initialized")
	return c
}

func (c *LatestCache) Enabled() bool { return c != nil && c.enabled }

// Notify stores record as the caregiver's latest unless a newer one is cached.
func (c *LatestCache) Notify(caregiverID string, record models.HistoryRecord, _ []models.GeofenceEvent) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	current, err := c.Get(ctx, caregiverID)
	if err == nil && current != nil && current.Timestamp.After(record.Timestamp) {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Warn("Failed to encode record for cache")
		return
	}
	if err := c.client.Set(ctx, keyPrefix+caregiverID, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Warn("Failed to cache latest record")
	}
}

// Get returns the cached latest record, or nil on a miss.
func (c *LatestCache) Get(ctx context.Context, caregiverID string) (*models.HistoryRecord, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.client.Get(ctx, keyPrefix+caregiverID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record models.HistoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *LatestCache) Close() {
	if c.Enabled() {
		c.client.Close()
	}
}
