// Package cache contains the Redis-backed caches.
package cache

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	subservices "github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

const (
	snapshotKeyPrefix      = "membership:tier:"
	baseSnapshotTTL        = 30 * time.Minute
	snapshotTTLJitter      = 10 * time.Minute // TTL range: 30-40 min (anti-stampede)
	fieldTier              = "tier"
	fieldStatus            = "status"
	fieldPeriodStart       = "period_start"
	fieldPeriodEnd         = "period_end"
	fieldCancelAtPeriodEnd = "cancel_at_period_end"
)

// RedisTierSnapshotCache implements the tier cache port using a Redis
// hash per user. Entries carry the billing period fields so readers can
// detect when a cached snapshot predates a due lazy transition.
type RedisTierSnapshotCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisTierSnapshotCache(client *redis.Client, log logger.Interface) *RedisTierSnapshotCache {
	return &RedisTierSnapshotCache{
		client: client,
		logger: log,
	}
}

func (c *RedisTierSnapshotCache) key(userID uint) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, userID)
}

// GetSnapshot retrieves a cached tier snapshot. Returns (nil, nil) on miss.
func (c *RedisTierSnapshotCache) GetSnapshot(ctx context.Context, userID uint) (*subservices.TierSnapshot, error) {
	result, err := c.client.HGetAll(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tier snapshot from cache: %w", err)
	}

	if len(result) == 0 {
		return nil, nil // Cache miss
	}

	snapshot := &subservices.TierSnapshot{
		Tier:   catalog.Tier(result[fieldTier]),
		Status: vo.SubscriptionStatus(result[fieldStatus]),
	}
	if !snapshot.Tier.IsValid() || !vo.ValidStatuses[snapshot.Status] {
		// Corrupt or partially written entry; treat as a miss.
		return nil, nil
	}

	if startStr, ok := result[fieldPeriodStart]; ok {
		if startUnix, err := strconv.ParseInt(startStr, 10, 64); err == nil && startUnix > 0 {
			snapshot.PeriodStart = time.Unix(startUnix, 0).UTC()
		}
	}
	if endStr, ok := result[fieldPeriodEnd]; ok {
		if endUnix, err := strconv.ParseInt(endStr, 10, 64); err == nil && endUnix > 0 {
			snapshot.PeriodEnd = time.Unix(endUnix, 0).UTC()
		}
	}
	snapshot.CancelAtPeriodEnd = result[fieldCancelAtPeriodEnd] == "1"

	return snapshot, nil
}

// SetSnapshot stores a tier snapshot with a jittered TTL.
func (c *RedisTierSnapshotCache) SetSnapshot(ctx context.Context, userID uint, snapshot *subservices.TierSnapshot) error {
	key := c.key(userID)

	fields := map[string]interface{}{
		fieldTier:              snapshot.Tier.String(),
		fieldStatus:            snapshot.Status.String(),
		fieldPeriodStart:       unixOrZero(snapshot.PeriodStart),
		fieldPeriodEnd:         unixOrZero(snapshot.PeriodEnd),
		fieldCancelAtPeriodEnd: boolToInt(snapshot.CancelAtPeriodEnd),
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, snapshotTTLWithJitter())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set tier snapshot in cache: %w", err)
	}

	c.logger.Debugw("tier snapshot cached",
		"user_id", userID,
		"tier", snapshot.Tier,
		"status", snapshot.Status,
	)
	return nil
}

// Invalidate removes the user's tier snapshot.
func (c *RedisTierSnapshotCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tier snapshot cache: %w", err)
	}

	c.logger.Debugw("tier snapshot cache invalidated", "user_id", userID)
	return nil
}

// snapshotTTLWithJitter returns a randomized TTL to prevent cache stampede.
func snapshotTTLWithJitter() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(snapshotTTLJitter)))
	return baseSnapshotTTL + jitter
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
