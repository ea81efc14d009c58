// Package internal wires the fetch -> decide -> record -> notify cycle.
package internal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"github.com/vadiminshakov/dcabot/internal/report"
	"github.com/vadiminshakov/dcabot/internal/services/history"
	"github.com/vadiminshakov/dcabot/internal/services/indicators"
	"github.com/vadiminshakov/dcabot/internal/services/notifier"
	"github.com/vadiminshakov/dcabot/internal/services/pricer"
	"github.com/vadiminshakov/dcabot/internal/storage/botstate"
	"go.uber.org/zap"
)

// ErrCycleInFlight is returned when a tick arrives while the previous
// cycle is still running. The new tick is skipped, never run
// concurrently: history and cache writes assume a single writer.
var ErrCycleInFlight = errors.New("previous cycle still in flight")

// Per-step timeouts so one hung network call cannot wedge the scheduler.
const (
	defaultFetchTimeout  = 30 * time.Second
	defaultPriceTimeout  = 15 * time.Second
	defaultNotifyTimeout = 60 * time.Second
)

// ConfigGetter resolves the current trading config. Never fails.
type ConfigGetter interface {
	Get(ctx context.Context) (domain.TradingConfig, domain.ConfigSource)
}

// Notifier dispatches a message through the channel chain.
type Notifier interface {
	Notify(ctx context.Context, msg notifier.Message, toggles notifier.Toggles) notifier.DeliveryResult
}

// Candle window feeding the weekly report indicators.
const (
	reportKlineInterval = "1d"
	reportKlineLimit    = 30
)

// Bot runs the periodic DCA evaluation cycle.
type Bot struct {
	pair       domain.Pair
	configs    ConfigGetter
	pricer     pricer.MarketDataSource
	history    *history.PurchaseHistory
	dispatcher Notifier
	state      *botstate.Store
	log        *zap.Logger

	cycleMu sync.Mutex

	fetchTimeout  time.Duration
	priceTimeout  time.Duration
	notifyTimeout time.Duration

	// now is overridable for tests
	now func() time.Time
}

// NewBot assembles the cycle over its collaborators.
func NewBot(pair domain.Pair, configs ConfigGetter, priceSource pricer.MarketDataSource,
	purchases *history.PurchaseHistory, dispatcher Notifier, state *botstate.Store,
	logger *zap.Logger) *Bot {

	return &Bot{
		pair:          pair,
		configs:       configs,
		pricer:        priceSource,
		history:       purchases,
		dispatcher:    dispatcher,
		state:         state,
		log:           logger,
		fetchTimeout:  defaultFetchTimeout,
		priceTimeout:  defaultPriceTimeout,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
}

// RunCycle performs one fetch -> decide -> record -> notify pass.
// All failures are handled at this boundary: a failed cycle is logged
// and skipped, it never crashes the scheduler or leaves history and
// state inconsistent. The resolved config is returned so the scheduler
// can pick up interval changes.
func (b *Bot) RunCycle(ctx context.Context) (domain.TradingConfig, error) {
	if !b.cycleMu.TryLock() {
		b.log.Warn("cycle tick skipped, previous cycle still running")
		return domain.TradingConfig{}, ErrCycleInFlight
	}
	defer b.cycleMu.Unlock()

	fetchCtx, cancelFetch := context.WithTimeout(ctx, b.fetchTimeout)
	cfg, source := b.configs.Get(fetchCtx)
	cancelFetch()

	b.log.Debug("config resolved", zap.String("source", string(source)))

	state, err := b.state.Load()
	if err != nil {
		b.log.Error("failed to load bot state, starting from zero counters", zap.Error(err))
		state = botstate.State{}
	}
	now := b.now()
	state.RollDay(now)
	state.ChecksToday++
	state.LastCheck = now
	defer b.saveState(&state)

	priceCtx, cancelPrice := context.WithTimeout(ctx, b.priceTimeout)
	price, err := b.pricer.GetPrice(priceCtx, b.pair)
	cancelPrice()
	if err != nil {
		// skip the tick: no decision, no notification
		b.log.Error("market data unavailable, skipping cycle",
			zap.String("pair", b.pair.String()), zap.Error(err))
		return cfg, nil
	}

	summary := b.history.Summary()

	decision, err := domain.Decide(cfg, price, summary)
	if err != nil {
		b.log.Error("invalid market reading, skipping cycle",
			zap.String("price", price.String()), zap.Error(err))
		return cfg, nil
	}

	if !decision.ShouldBuy {
		b.log.Debug("no buy this cycle",
			zap.String("reason", decision.Reason),
			zap.String("price", price.String()))
		return cfg, nil
	}

	if state.TradesToday >= cfg.MaxDailyTrades {
		b.log.Info("buy signal suppressed, daily trade limit reached",
			zap.Int("trades_today", state.TradesToday),
			zap.Int("max_daily_trades", cfg.MaxDailyTrades))
		return cfg, nil
	}

	rec, err := domain.NewPurchaseRecord(price, decision.RecommendedAmountUSD, now)
	if err != nil {
		b.log.Error("failed to build purchase record", zap.Error(err))
		return cfg, nil
	}

	if err := b.history.Record(rec); err != nil {
		// the purchase did not persist, so nothing is announced
		b.log.Error("failed to record purchase, skipping notification", zap.Error(err))
		return cfg, nil
	}
	state.TradesToday++

	b.log.Info("simulated purchase recorded",
		zap.String("pair", b.pair.String()),
		zap.String("price", rec.Price.String()),
		zap.String("amount_usd", rec.AmountUSD.String()),
		zap.String("reason", decision.Reason))

	msg := report.BuildTrade(b.pair, rec, decision, b.history.Summary())

	notifyCtx, cancelNotify := context.WithTimeout(ctx, b.notifyTimeout)
	result := b.dispatcher.Notify(notifyCtx, msg, togglesFrom(cfg))
	cancelNotify()

	b.log.Info("trade notification dispatched",
		zap.String("channel", result.Channel),
		zap.Bool("success", result.Success),
		zap.Int("attempts", result.Attempts))

	return cfg, nil
}

// WeeklyReport builds and dispatches the weekly summary.
func (b *Bot) WeeklyReport(ctx context.Context) {
	fetchCtx, cancelFetch := context.WithTimeout(ctx, b.fetchTimeout)
	cfg, _ := b.configs.Get(fetchCtx)
	cancelFetch()

	summary := b.history.Summary()

	priceCtx, cancelPrice := context.WithTimeout(ctx, b.priceTimeout)
	price, err := b.pricer.GetPrice(priceCtx, b.pair)
	cancelPrice()
	if err != nil {
		b.log.Warn("weekly report without current price", zap.Error(err))
	}

	msg := report.BuildWeekly(b.pair, summary, price, b.indicatorSnapshot(ctx))

	notifyCtx, cancelNotify := context.WithTimeout(ctx, b.notifyTimeout)
	result := b.dispatcher.Notify(notifyCtx, msg, togglesFrom(cfg))
	cancelNotify()

	b.log.Info("weekly report dispatched",
		zap.String("channel", result.Channel),
		zap.Bool("success", result.Success))
}

// indicatorSnapshot derives the weekly report's technical context from
// recent candles. The report goes out without it when candles are
// unavailable.
func (b *Bot) indicatorSnapshot(ctx context.Context) *indicators.Snapshot {
	klineCtx, cancel := context.WithTimeout(ctx, b.priceTimeout)
	defer cancel()

	candles, err := b.pricer.GetKlines(klineCtx, b.pair, reportKlineInterval, reportKlineLimit)
	if err != nil {
		b.log.Warn("weekly report without indicators, kline fetch failed", zap.Error(err))
		return nil
	}

	snap, err := indicators.Summarize(candles)
	if err != nil {
		b.log.Warn("weekly report without indicators", zap.Error(err))
		return nil
	}
	return &snap
}

// ResetDailyCounters rolls the persisted counters over to the new day.
func (b *Bot) ResetDailyCounters() {
	state, err := b.state.Load()
	if err != nil {
		b.log.Error("failed to load bot state for daily reset", zap.Error(err))
		return
	}
	state.RollDay(b.now())
	b.saveState(&state)
}

func (b *Bot) saveState(state *botstate.State) {
	if err := b.state.Save(*state); err != nil {
		b.log.Error("failed to persist bot state", zap.Error(err))
	}
}

func togglesFrom(cfg domain.TradingConfig) notifier.Toggles {
	return notifier.Toggles{
		Telegram: cfg.EnableTelegram,
		Email:    cfg.EnableEmailReports,
	}
}
