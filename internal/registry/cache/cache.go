// Package cache is a redis read-through cache for asset views. Asset
// attributes never change after minting, but the holder does, so cached
// entries carry a short TTL and every holder transition invalidates the
// entry explicitly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"curio/internal/registry/models"
	id "curio/pkg/domain"
)

const DefaultTTL = 30 * time.Second

type AssetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *AssetCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AssetCache{client: client, ttl: ttl}
}

func key(assetID id.AssetID) string {
	return "asset:view:" + assetID.String()
}

// Get returns the cached asset view, or (nil, nil) on a miss.
func (c *AssetCache) Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	raw, err := c.client.Get(ctx, key(assetID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var asset models.Asset
	if err := json.Unmarshal(raw, &asset); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return nil, nil
	}
	return &asset, nil
}

func (c *AssetCache) Set(ctx context.Context, asset *models.Asset) error {
	raw, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key(asset.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached view after a holder transition.
func (c *AssetCache) Invalidate(ctx context.Context, assetID id.AssetID) error {
	if err := c.client.Del(ctx, key(assetID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
