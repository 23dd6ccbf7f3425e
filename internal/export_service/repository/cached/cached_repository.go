package cached

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "saiku_export",
		Name:      "repository_cache_lookups_total",
		Help:      "Repository cache lookups, by result.",
	},
	[]string{"result"}, // hit, miss
)

// Repository caches successful lookups of another domain.Repository for a fixed TTL.
// Failed lookups are never cached.
type Repository struct {
	next   domain.Repository
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewRepository wraps next with a cache bounded by maxCost bytes of resource content.
func NewRepository(next domain.Repository, ttl time.Duration, maxCost int64, logger *slog.Logger) (*Repository, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository cache: %w", err)
	}
	return &Repository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "resource_repository_cache"),
	}, nil
}

func (r *Repository) GetResource(ctx context.Context, key string) (*domain.Resource, error) {
	if val, found := r.cache.Get(key); found {
		if res, ok := val.(*domain.Resource); ok {
			cacheLookups.WithLabelValues("hit").Inc()
			return res, nil
		}
	}
	cacheLookups.WithLabelValues("miss").Inc()

	res, err := r.next.GetResource(ctx, key)
	if err != nil {
		return nil, err
	}
	if !r.cache.SetWithTTL(key, res, int64(len(res.Content))+1, r.ttl) {
		r.logger.DebugContext(ctx, "Repository entry not admitted to cache", "path", key)
	}
	return res, nil
}

// Wait blocks until buffered writes are visible to Get.
func (r *Repository) Wait() { r.cache.Wait() }

func (r *Repository) Close() { r.cache.Close() }
