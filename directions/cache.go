package directions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"itinera/models"
)

// Cache is a byte store with expiry, implemented by rdx.RouteCache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached serves repeated requests for the same stops and mode from cache.
// Only provider-backed results are stored; cache failures are logged and
// otherwise ignored.
type Cached struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

func NewCached(next Provider, cache Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error) {
	mode, err := req.normalize()
	if err != nil {
		return nil, err
	}
	key := CacheKey(req.Stops(), mode)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		log.Printf("[RouteCache] Get %s failed: %v", key, err)
	} else if ok {
		var cached models.RouteResult
		if err := json.Unmarshal(data, &cached); err == nil {
			// Stop identities belong to the request, not to the cached geometry.
			cached.Stops = req.Stops()
			return &cached, nil
		}
		log.Printf("[RouteCache] Discarding undecodable entry %s", key)
	}

	result, err := c.next.ComputeRoute(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Estimated {
		return result, nil
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			log.Printf("[RouteCache] Set %s failed: %v", key, err)
		}
	}
	return result, nil
}

// CacheKey identifies a route by mode and stop coordinates rounded to five
// decimals (about a metre).
func CacheKey(stops []models.RouteStop, mode models.TravelMode) string {
	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = fmt.Sprintf("%.5f,%.5f", s.Coordinates.Latitude, s.Coordinates.Longitude)
	}
	sum := sha256.Sum256([]byte(string(mode) + "|" + strings.Join(parts, ";")))
	return "route:" + hex.EncodeToString(sum[:16])
}
