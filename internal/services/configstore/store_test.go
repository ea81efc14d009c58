package configstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"go.uber.org/zap"
)

type stubFetcher struct {
	rows  []Row
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context) ([]Row, error) {
	f.calls++
	return f.rows, f.err
}

func TestStoreGet_LiveFetchPersistsCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	fetcher := &stubFetcher{rows: []Row{
		{Key: "budget_usd", Value: "2000", Type: "int"},
		{Key: "dca_drop_pct", Value: "7.5", Type: "float"},
		{Key: "enable_telegram", Value: "no", Type: "bool"},
	}}

	store := New(fetcher, cachePath, time.Minute, zap.NewNop())

	cfg, source := store.Get(context.Background())

	assert.Equal(t, domain.SourceLive, source)
	assert.Equal(t, "2000", cfg.BudgetUSD.String())
	assert.Equal(t, "7.5", cfg.DCADropPct.String())
	assert.False(t, cfg.EnableTelegram)
	// untouched fields keep their defaults
	assert.Equal(t, "500", cfg.DCABuyAmountUSD.String())

	require.FileExists(t, cachePath)
	assert.NoFileExists(t, cachePath+".tmp")
}

func TestStoreGet_FreshCacheSkipsFetch(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	fetcher := &stubFetcher{rows: []Row{{Key: "budget_usd", Value: "2000", Type: "int"}}}
	store := New(fetcher, cachePath, time.Hour, zap.NewNop())

	_, source := store.Get(context.Background())
	require.Equal(t, domain.SourceLive, source)
	require.Equal(t, 1, fetcher.calls)

	cfg, source := store.Get(context.Background())
	assert.Equal(t, domain.SourceCachedFresh, source)
	assert.Equal(t, "2000", cfg.BudgetUSD.String())
	assert.Equal(t, 1, fetcher.calls, "fresh cache must not trigger a fetch")
}

func TestStoreGet_StaleCacheWhenFetchFails(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	fetcher := &stubFetcher{rows: []Row{{Key: "budget_usd", Value: "2000", Type: "int"}}}
	store := New(fetcher, cachePath, time.Hour, zap.NewNop())

	_, source := store.Get(context.Background())
	require.Equal(t, domain.SourceLive, source)

	// cache ages past the TTL, then the sheet goes down
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	fetcher.err = errors.New("sheet unreachable")

	cfg, source := store.Get(context.Background())
	assert.Equal(t, domain.SourceCachedStale, source)
	assert.Equal(t, "2000", cfg.BudgetUSD.String())
}

func TestStoreGet_DefaultsWhenNothingAvailable(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	fetcher := &stubFetcher{err: errors.New("sheet unreachable")}
	store := New(fetcher, cachePath, time.Hour, zap.NewNop())

	cfg, source := store.Get(context.Background())

	assert.Equal(t, domain.SourceDefault, source)
	assert.Equal(t, domain.DefaultTradingConfig(), cfg)
	assert.NoFileExists(t, cachePath)
}

func TestStoreGet_RejectedRowsKeepDefaults(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	fetcher := &stubFetcher{rows: []Row{
		{Key: "budget_usd", Value: "not-a-number", Type: "float"},
		{Key: "dca_drop_pct", Value: "4", Type: "int"},
		{Key: "some_future_key", Value: "whatever", Type: "str"},
	}}
	store := New(fetcher, cachePath, time.Minute, zap.NewNop())

	cfg, source := store.Get(context.Background())

	assert.Equal(t, domain.SourceLive, source)
	assert.Equal(t, "10000", cfg.BudgetUSD.String(), "bad row keeps the default")
	assert.Equal(t, "4", cfg.DCADropPct.String(), "good rows still apply")
}

func TestStoreGet_UnreadableCacheFallsThrough(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "config_cache.json")
	require.NoError(t, os.WriteFile(cachePath, []byte("{corrupt"), 0o644))

	fetcher := &stubFetcher{rows: []Row{{Key: "budget_usd", Value: "2000", Type: "int"}}}
	store := New(fetcher, cachePath, time.Hour, zap.NewNop())

	cfg, source := store.Get(context.Background())

	assert.Equal(t, domain.SourceLive, source)
	assert.Equal(t, "2000", cfg.BudgetUSD.String())
}

func TestCacheToConfig_RejectsValuesTheSheetParserWouldReject(t *testing.T) {
	values := newConfigValues(domain.DefaultTradingConfig())
	values.DCADropPct = "150"
	values.BudgetUSD = "-5"
	values.Mode = "yolo"
	values.ReportTime = "25:00"

	cfg := values.toConfig()

	defaults := domain.DefaultTradingConfig()
	assert.True(t, cfg.DCADropPct.Equal(defaults.DCADropPct), "drop pct above 100 must fall back to the default")
	assert.True(t, cfg.BudgetUSD.Equal(defaults.BudgetUSD))
	assert.Equal(t, defaults.Mode, cfg.Mode)
	assert.Equal(t, defaults.ReportTime, cfg.ReportTime)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newCacheFile(filepath.Join(t.TempDir(), "cache.json"))

	missing, err := cache.Load()
	require.NoError(t, err)
	require.Nil(t, missing)

	cfg := domain.DefaultTradingConfig()
	require.NoError(t, cfg.SetField("budget_usd", "1234.56", "float"))

	fetchedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Save(cachePayload{
		FetchedAt: fetchedAt,
		Source:    string(domain.SourceLive),
		Data:      newConfigValues(cfg),
	}))

	loaded, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.FetchedAt.Equal(fetchedAt))
	assert.Equal(t, cfg, loaded.Data.toConfig())
}
