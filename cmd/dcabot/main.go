// Command dcabot runs the sheet-driven DCA simulation bot.
// It periodically pulls trading parameters from a remote sheet (with a
// local cache fallback), evaluates the DCA rule against the current
// market price, records simulated purchases and dispatches notifications
// through Telegram, email and the console.
//
// Usage:
//
//	dcabot --config config.yaml
//
// Optional environment variables (secrets, also read from .env):
//
//	SHEET_API_KEY, SHEET_BEARER_TOKEN
//	TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID
//	SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, EMAIL_FROM, EMAIL_TO
//	HYPERLIQUID_PRIVATE_KEY (only for platform: hyperliquid)
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/joho/godotenv"
	"github.com/vadiminshakov/dcabot/config"
	"github.com/vadiminshakov/dcabot/internal"
	"github.com/vadiminshakov/dcabot/internal/scheduler"
	"github.com/vadiminshakov/dcabot/internal/services/configstore"
	"github.com/vadiminshakov/dcabot/internal/services/history"
	"github.com/vadiminshakov/dcabot/internal/services/notifier"
	"github.com/vadiminshakov/dcabot/internal/services/pricer"
	"github.com/vadiminshakov/dcabot/internal/storage/botstate"
	"go.uber.org/zap"
)

const marketRequestsPerSec = 5

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on actual environment variables")
	}

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var source pricer.MarketDataSource
	switch conf.Platform {
	case "bybit":
		source = pricer.NewBybitPricer(bybit.NewClient())
	case "hyperliquid":
		info, err := pricer.NewHyperliquidInfo(conf.HyperliquidPrivateKey, pricer.HyperliquidAPIURL)
		if err != nil {
			logger.Fatal("failed to create hyperliquid client", zap.Error(err))
		}
		source = pricer.NewHyperliquidSource(info)
	default:
		// public endpoints only, no API keys needed for prices
		source = pricer.NewBinancePricer(binance.NewClient("", ""))
	}
	marketData := pricer.NewRateLimited(source, marketRequestsPerSec)

	var creds []configstore.Credential
	if conf.SheetBearerToken != "" {
		creds = append(creds, configstore.BearerTokenCredential{Token: conf.SheetBearerToken})
	}
	if conf.SheetAPIKey != "" {
		creds = append(creds, configstore.APIKeyCredential{Key: conf.SheetAPIKey})
	}
	fetcher := configstore.NewSheetFetcher(conf.SheetURL, creds, logger)
	configs := configstore.New(fetcher, filepath.Join(conf.DataDir, "config_cache.json"), conf.ConfigTTL, logger)

	purchases, err := history.New(filepath.Join(conf.DataDir, "history", conf.Pair.String()), logger)
	if err != nil {
		logger.Fatal("failed to open purchase history", zap.Error(err))
	}
	defer purchases.Close()

	audit, err := notifier.NewAuditLog(filepath.Join(conf.DataDir, "notifications"), logger)
	if err != nil {
		logger.Fatal("failed to open notification audit log", zap.Error(err))
	}
	defer audit.Close()

	channels := []notifier.Channel{
		notifier.NewTelegramChannel(conf.TelegramToken, conf.TelegramChatID, logger),
		notifier.NewEmailChannel(notifier.EmailConfig{
			Host:     conf.SMTPHost,
			Port:     conf.SMTPPort,
			Username: conf.SMTPUsername,
			Password: conf.SMTPPassword,
			From:     conf.EmailFrom,
			To:       conf.EmailTo,
		}),
		notifier.NewConsoleChannel(logger),
	}
	dispatcher := notifier.NewDispatcher(channels, audit, logger)

	stateStore, err := botstate.NewStore(filepath.Join(conf.DataDir, "bot_state.json"))
	if err != nil {
		logger.Fatal("failed to create bot state store", zap.Error(err))
	}

	bot := internal.NewBot(conf.Pair, configs, marketData, purchases, dispatcher, stateStore, logger)

	initialCfg, initialSource := configs.Get(ctx)
	logger.Info("starting dcabot",
		zap.String("pair", conf.Pair.String()),
		zap.String("platform", conf.Platform),
		zap.String("config_source", string(initialSource)),
		zap.Int("interval_min", initialCfg.DataFetchIntervalMin))

	sched := scheduler.New(bot, logger)
	if err := sched.Start(ctx, initialCfg); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()
}
