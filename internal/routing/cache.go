package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// CacheStore is the persistence surface the cached oracle needs.
type CacheStore interface {
	Get(key string, now time.Time) (string, error)
	Put(key, payload string, ttl time.Duration, now time.Time) error
}

// CachedOracle is a read-through cache in front of an Oracle. Entries are
// shared across sessions and keyed by origin, destination, and a hash of
// the avoidance polygons; concurrent fills for the same key are collapsed
// with singleflight.
type CachedOracle struct {
	oracle Oracle
	store  CacheStore
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
}

// NewCachedOracle wraps oracle with a TTL cache backed by store.
func NewCachedOracle(oracle Oracle, store CacheStore, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		oracle: oracle,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Routes returns cached plans when fresh, otherwise queries the oracle and
// stores the result. Cache failures degrade to a direct oracle call.
func (c *CachedOracle) Routes(ctx context.Context, origin, destination models.Coordinate, avoid []models.Polygon) ([]models.RoutePlan, error) {
	key := CacheKey(origin, destination, avoid)

	if payload, err := c.store.Get(key, c.now()); err != nil {
		zap.L().Warn("route cache read failed", zap.Error(err))
	} else if payload != "" {
		var plans []models.RoutePlan
		if err := json.Unmarshal([]byte(payload), &plans); err == nil {
			return plans, nil
		}
		zap.L().Warn("route cache entry corrupt, refetching", zap.String("key", key))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		plans, err := c.oracle.Routes(ctx, origin, destination, avoid)
		if err != nil {
			return nil, err
		}

		if encoded, err := json.Marshal(plans); err == nil {
			if err := c.store.Put(key, string(encoded), c.ttl, c.now()); err != nil {
				zap.L().Warn("route cache write failed", zap.Error(err))
			}
		}
		return plans, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "cached oracle: fetch routes")
	}

	return v.([]models.RoutePlan), nil
}

// CacheKey builds the shared cache key. Coordinates are rounded to ~11 m
// so jittery origins still hit the same entry.
func CacheKey(origin, destination models.Coordinate, avoid []models.Polygon) string {
	h := sha256.New()
	for _, ring := range avoid {
		for _, p := range ring {
			fmt.Fprintf(h, "%.4f,%.4f;", p.Latitude, p.Longitude)
		}
		h.Write([]byte("|"))
	}
	avoidHash := hex.EncodeToString(h.Sum(nil))[:16]

	return fmt.Sprintf("%.4f,%.4f|%.4f,%.4f|%s",
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
		avoidHash)
}
