// Package configstore resolves trading parameters from a remote sheet
// with a layered fallback: fresh local cache, live fetch, stale cache,
// built-in defaults. It never fails: Get always returns a usable config.
package configstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"go.uber.org/zap"
)

// DefaultTTL is the freshness window for the cached config before a live
// re-fetch is attempted.
const DefaultTTL = 30 * time.Minute

// Store is the layered config resolver.
type Store struct {
	fetcher Fetcher
	cache   *cacheFile
	ttl     time.Duration
	log     *zap.Logger

	// now is overridable for tests
	now func() time.Time
}

// New creates a config store backed by the given fetcher and cache path.
func New(fetcher Fetcher, cachePath string, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		fetcher: fetcher,
		cache:   newCacheFile(cachePath),
		ttl:     ttl,
		log:     logger,
		now:     time.Now,
	}
}

// Get resolves the current trading config. Resolution order:
//
//  1. cached config younger than the TTL -> cached-fresh
//  2. live fetch from the sheet (persisted to cache) -> live
//  3. any cache entry, even stale -> cached-stale
//  4. built-in defaults -> default
//
// Every failure along the way is logged and swallowed; the caller always
// receives a valid config.
func (s *Store) Get(ctx context.Context) (domain.TradingConfig, domain.ConfigSource) {
	cached, cacheErr := s.cache.Load()
	if cacheErr != nil {
		s.log.Warn("ignoring unreadable config cache", zap.Error(cacheErr))
	}

	if cached != nil && s.now().Sub(cached.FetchedAt) <= s.ttl {
		return cached.Data.toConfig(), domain.SourceCachedFresh
	}

	if cfg, err := s.fetchLive(ctx); err == nil {
		return cfg, domain.SourceLive
	} else {
		s.log.Error("live config fetch failed, falling back to cache/defaults", zap.Error(err))
	}

	if cached != nil {
		s.log.Warn("using stale config cache",
			zap.Time("fetched_at", cached.FetchedAt),
			zap.Duration("age", s.now().Sub(cached.FetchedAt)))
		return cached.Data.toConfig(), domain.SourceCachedStale
	}

	s.log.Warn("no config cache available, using built-in defaults")
	return domain.DefaultTradingConfig(), domain.SourceDefault
}

// fetchLive pulls the sheet, applies typed rows over defaults and
// persists the merged result to the cache.
func (s *Store) fetchLive(ctx context.Context) (domain.TradingConfig, error) {
	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return domain.TradingConfig{}, errors.Wrap(err, "fetch config rows")
	}

	cfg := domain.DefaultTradingConfig()
	for _, row := range rows {
		if err := cfg.SetField(row.Key, row.Value, row.Type); err != nil {
			if errors.Is(err, domain.ErrUnknownConfigKey) {
				s.log.Debug("ignoring unknown config key", zap.String("key", row.Key))
				continue
			}
			// the field keeps its default; the rest of the config loads
			s.log.Warn("config row rejected",
				zap.String("key", row.Key),
				zap.String("value", row.Value),
				zap.Error(err))
		}
	}

	payload := cachePayload{
		FetchedAt: s.now().UTC(),
		Source:    string(domain.SourceLive),
		Data:      newConfigValues(cfg),
	}
	if err := s.cache.Save(payload); err != nil {
		s.log.Warn("failed to persist config cache", zap.Error(err))
	}

	return cfg, nil
}
