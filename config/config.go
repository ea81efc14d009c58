// Package config loads the bootstrap configuration: everything the bot
// needs before it can reach the remote sheet (file paths, exchange
// choice, channel credentials). Trading parameters themselves live in
// the sheet and are resolved by the configstore.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vadiminshakov/dcabot/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config is the resolved bootstrap configuration.
type Config struct {
	Pair     domain.Pair
	Platform string

	SheetURL         string
	SheetAPIKey      string
	SheetBearerToken string
	ConfigTTL        time.Duration

	DataDir string

	TelegramToken  string
	TelegramChatID int64

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailTo      []string

	HyperliquidPrivateKey string
}

type configTmp struct {
	Pair      string        `yaml:"pair"`
	Platform  string        `yaml:"platform"`
	SheetURL  string        `yaml:"sheet_url"`
	ConfigTTL time.Duration `yaml:"config_ttl,omitempty"`
	DataDir   string        `yaml:"data_dir,omitempty"`
	EmailTo   []string      `yaml:"email_to,omitempty"`
}

// Get loads the yaml config given via --config and applies environment
// overrides for secrets (never stored in the yaml file).
func Get() (*Config, error) {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	return load(*configPath)
}

func load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}

	pair, err := getPairFromString(tmp.Pair)
	if err != nil {
		return nil, fmt.Errorf("incorrect 'pair' param in yaml config: %q: %w", tmp.Pair, err)
	}

	platform := strings.ToLower(tmp.Platform)
	if platform == "" {
		platform = "binance"
	}
	if platform != "binance" && platform != "bybit" && platform != "hyperliquid" {
		return nil, fmt.Errorf("unsupported platform %q, allowed: binance|bybit|hyperliquid", tmp.Platform)
	}

	cfg := &Config{
		Pair:             pair,
		Platform:         platform,
		SheetURL:         tmp.SheetURL,
		ConfigTTL:        tmp.ConfigTTL,
		DataDir:          tmp.DataDir,
		EmailTo:          tmp.EmailTo,
		SheetAPIKey:      os.Getenv("SHEET_API_KEY"),
		SheetBearerToken: os.Getenv("SHEET_BEARER_TOKEN"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         os.Getenv("SMTP_PORT"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		EmailFrom:        os.Getenv("EMAIL_FROM"),

		HyperliquidPrivateKey: os.Getenv("HYPERLIQUID_PRIVATE_KEY"),
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatID, err)
		}
		cfg.TelegramChatID = id
	}

	if envTo := os.Getenv("EMAIL_TO"); envTo != "" {
		cfg.EmailTo = splitAndTrim(envTo)
	}

	return cfg, nil
}

func getPairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("invalid pair param, expected FROM_TO")
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
