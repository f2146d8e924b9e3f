// Package cache provides the content-hash-keyed result cache in front of the
// extraction pipeline.
//
// The cache guarantees at-most-one concurrent extraction per content hash:
// concurrent requests for the same hash collapse into one computation whose
// result every caller receives. Stores are advisory; a store failure only
// costs latency, never correctness.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/singleflight"

	"hwocr/internal/logger"
	"hwocr/pkg/models"
)

// Store persists completed extraction results by content hash. Get reports
// (result, found, error); both stores treat errors as misses upstream.
type Store interface {
	Get(ctx context.Context, key string) (*models.ExtractionResult, bool, error)
	Set(ctx context.Context, key string, result *models.ExtractionResult) error
}

// Key derives the deterministic content hash for raw image bytes.
func Key(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ResultCache combines a Store with single-flight collapsing of concurrent
// requests for the same hash.
type ResultCache struct {
	store Store
	group singleflight.Group
}

// New creates a ResultCache over the given store. A nil store disables
// persistence but keeps the single-flight guarantee.
func New(store Store) *ResultCache {
	return &ResultCache{store: store}
}

// GetOrCompute returns the cached result for key, or runs compute exactly
// once across all concurrent callers of the same key.
//
// The computation runs detached from the caller's cancellation: recognition
// work is expensive, and a disconnecting caller must not waste it for the
// duplicates waiting on the same flight. Bounded per-call timeouts inside
// compute still apply.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*models.ExtractionResult, error)) (*models.ExtractionResult, error) {
	log := logger.WithComponent("cache")

	if c.store != nil {
		result, found, err := c.store.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Cache read failed, computing instead")
		} else if found {
			log.Debug().Str("key", key).Msg("Cache hit")
			return result, nil
		}
	}

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		detached := context.WithoutCancel(ctx)

		result, err := compute(detached)
		if err != nil {
			return nil, err
		}
		if c.store != nil {
			if err := c.store.Set(detached, key, result); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Str("key", key).Msg("Joined in-flight extraction")
	}
	return value.(*models.ExtractionResult), nil
}
