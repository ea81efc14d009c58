package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ConfigSource tags where a resolved config came from, for observability.
type ConfigSource string

const (
	SourceLive        ConfigSource = "live"
	SourceCachedFresh ConfigSource = "cached-fresh"
	SourceCachedStale ConfigSource = "cached-stale"
	SourceDefault     ConfigSource = "default"
)

// Mode is the trading mode published in the sheet. Only DCA is acted on,
// the other modes gate future strategies.
type Mode string

const (
	ModeDCA    Mode = "dca"
	ModeSwing  Mode = "swing"
	ModeHybrid Mode = "hybrid"
)

var validModes = map[Mode]struct{}{
	ModeDCA:    {},
	ModeSwing:  {},
	ModeHybrid: {},
}

var validReportDays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// ErrUnknownConfigKey marks sheet rows for keys the bot does not recognize.
// Unknown keys are ignored by callers, not treated as failures.
var ErrUnknownConfigKey = errors.New("unknown config key")

// TradingConfig is the typed trading configuration resolved from the
// remote sheet merged over built-in defaults.
type TradingConfig struct {
	BudgetUSD            decimal.Decimal
	DCADropPct           decimal.Decimal
	DCABuyAmountUSD      decimal.Decimal
	DataFetchIntervalMin int
	MaxDailyTrades       int
	Mode                 Mode
	EnableDCA            bool
	EnableTelegram       bool
	EnableEmailReports   bool
	ReportDay            string
	ReportTime           string
}

// DefaultTradingConfig returns the built-in defaults used when the sheet
// and the local cache are both unavailable, and as the base every fetched
// config is merged over.
func DefaultTradingConfig() TradingConfig {
	return TradingConfig{
		BudgetUSD:            decimal.NewFromInt(10000),
		DCADropPct:           decimal.NewFromInt(3),
		DCABuyAmountUSD:      decimal.NewFromInt(500),
		DataFetchIntervalMin: 30,
		MaxDailyTrades:       1,
		Mode:                 ModeHybrid,
		EnableDCA:            true,
		EnableTelegram:       true,
		EnableEmailReports:   true,
		ReportDay:            "monday",
		ReportTime:           "09:00",
	}
}

// SetField parses a raw sheet value according to its declared type and
// assigns it to the matching config field. A value that fails its type
// parser or the field validator is rejected and the field keeps its
// previous (default) value.
func (c *TradingConfig) SetField(key, raw, declaredType string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	raw = strings.TrimSpace(raw)
	declaredType = strings.ToLower(strings.TrimSpace(declaredType))
	if declaredType == "" {
		declaredType = "str"
	}

	switch key {
	case "budget_usd":
		v, err := parseDecimal(raw, declaredType)
		if err != nil {
			return err
		}
		if v.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("budget_usd must be positive, got %s", v.String())
		}
		c.BudgetUSD = v
	case "dca_drop_pct":
		v, err := parseDecimal(raw, declaredType)
		if err != nil {
			return err
		}
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("dca_drop_pct must be within 0-100, got %s", v.String())
		}
		c.DCADropPct = v
	case "dca_buy_amount_usd":
		v, err := parseDecimal(raw, declaredType)
		if err != nil {
			return err
		}
		if v.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("dca_buy_amount_usd must be positive, got %s", v.String())
		}
		c.DCABuyAmountUSD = v
	case "data_fetch_interval_min":
		v, err := parseInt(raw, declaredType)
		if err != nil {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("data_fetch_interval_min must be positive, got %d", v)
		}
		c.DataFetchIntervalMin = v
	case "max_daily_trades":
		v, err := parseInt(raw, declaredType)
		if err != nil {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("max_daily_trades must be positive, got %d", v)
		}
		c.MaxDailyTrades = v
	case "mode":
		m := Mode(strings.ToLower(raw))
		if _, ok := validModes[m]; !ok {
			return fmt.Errorf("invalid mode %q, allowed: dca|swing|hybrid", raw)
		}
		c.Mode = m
	case "enable_dca":
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		c.EnableDCA = v
	case "enable_telegram":
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		c.EnableTelegram = v
	case "enable_email_reports":
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		c.EnableEmailReports = v
	case "report_day":
		day := strings.ToLower(raw)
		if _, ok := validReportDays[day]; !ok {
			return fmt.Errorf("invalid report_day %q, allowed: monday..sunday", raw)
		}
		c.ReportDay = day
	case "report_time":
		if _, _, err := ParseReportTime(raw); err != nil {
			return err
		}
		c.ReportTime = raw
	default:
		return errors.Wrap(ErrUnknownConfigKey, key)
	}

	return nil
}

// ParseReportTime parses a 24h HH:MM string.
func ParseReportTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid report_time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid report_time hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid report_time minute in %q", s)
	}
	return hour, minute, nil
}

func parseDecimal(raw, declaredType string) (decimal.Decimal, error) {
	switch declaredType {
	case "int":
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("value %q is not a valid int: %w", raw, err)
		}
		return decimal.NewFromInt(v), nil
	case "float", "str":
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("value %q is not a valid number: %w", raw, err)
		}
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("declared type %q is not numeric", declaredType)
	}
}

func parseInt(raw, declaredType string) (int, error) {
	if declaredType != "int" && declaredType != "str" {
		return 0, fmt.Errorf("declared type %q is not an int", declaredType)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a valid int: %w", raw, err)
	}
	return v, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("value %q is not a valid bool", raw)
	}
}
