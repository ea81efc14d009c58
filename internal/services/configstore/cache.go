package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

// cachePayload is the on-disk cache format:
// { fetched_at, source, data: {field: value} }.
type cachePayload struct {
	FetchedAt time.Time    `json:"fetched_at"`
	Source    string       `json:"source"`
	Data      configValues `json:"data"`
}

// configValues is the serializable form of domain.TradingConfig.
// Decimals are stored as strings so the cache round-trips exactly.
type configValues struct {
	BudgetUSD            string `json:"budget_usd"`
	DCADropPct           string `json:"dca_drop_pct"`
	DCABuyAmountUSD      string `json:"dca_buy_amount_usd"`
	DataFetchIntervalMin int    `json:"data_fetch_interval_min"`
	MaxDailyTrades       int    `json:"max_daily_trades"`
	Mode                 string `json:"mode"`
	EnableDCA            bool   `json:"enable_dca"`
	EnableTelegram       bool   `json:"enable_telegram"`
	EnableEmailReports   bool   `json:"enable_email_reports"`
	ReportDay            string `json:"report_day"`
	ReportTime           string `json:"report_time"`
}

func newConfigValues(cfg domain.TradingConfig) configValues {
	return configValues{
		BudgetUSD:            cfg.BudgetUSD.String(),
		DCADropPct:           cfg.DCADropPct.String(),
		DCABuyAmountUSD:      cfg.DCABuyAmountUSD.String(),
		DataFetchIntervalMin: cfg.DataFetchIntervalMin,
		MaxDailyTrades:       cfg.MaxDailyTrades,
		Mode:                 string(cfg.Mode),
		EnableDCA:            cfg.EnableDCA,
		EnableTelegram:       cfg.EnableTelegram,
		EnableEmailReports:   cfg.EnableEmailReports,
		ReportDay:            cfg.ReportDay,
		ReportTime:           cfg.ReportTime,
	}
}

// toConfig rebuilds a typed config merged over defaults. Every field
// goes through the same validators as the sheet fetch path, so a
// hand-edited cache file cannot smuggle in a value the parser would
// reject; a field that fails validation keeps its default.
func (v configValues) toConfig() domain.TradingConfig {
	cfg := domain.DefaultTradingConfig()

	fields := []struct{ key, raw string }{
		{"budget_usd", v.BudgetUSD},
		{"dca_drop_pct", v.DCADropPct},
		{"dca_buy_amount_usd", v.DCABuyAmountUSD},
		{"data_fetch_interval_min", strconv.Itoa(v.DataFetchIntervalMin)},
		{"max_daily_trades", strconv.Itoa(v.MaxDailyTrades)},
		{"mode", v.Mode},
		{"enable_dca", strconv.FormatBool(v.EnableDCA)},
		{"enable_telegram", strconv.FormatBool(v.EnableTelegram)},
		{"enable_email_reports", strconv.FormatBool(v.EnableEmailReports)},
		{"report_day", v.ReportDay},
		{"report_time", v.ReportTime},
	}
	for _, f := range fields {
		// invalid cached value: the field keeps its default
		_ = cfg.SetField(f.key, f.raw, "str")
	}

	return cfg
}

// cacheFile persists the last successfully fetched config so the bot can
// keep trading through sheet outages.
type cacheFile struct {
	path string
}

func newCacheFile(path string) *cacheFile {
	return &cacheFile{path: path}
}

// Load reads the cached payload. Returns (nil, nil) when no cache exists.
func (c *cacheFile) Load() (*cachePayload, error) {
	if c == nil || c.path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read config cache")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var payload cachePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode config cache")
	}

	return &payload, nil
}

// Save overwrites the cache atomically via temp file + rename so a crash
// mid-write never corrupts the existing entry.
func (c *cacheFile) Save(payload cachePayload) error {
	if c == nil || c.path == "" {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config cache dir")
		}
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config cache")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "write config cache temp file")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errors.Wrap(err, "persist config cache")
	}

	return nil
}
