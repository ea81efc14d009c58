package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYaml(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeYaml(t, `
pair: BTC_USDT
platform: binance
sheet_url: https://example.com/sheet.csv
data_dir: /var/lib/dcabot
email_to:
  - ops@example.com
`)

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "BTC", cfg.Pair.From)
	assert.Equal(t, "USDT", cfg.Pair.To)
	assert.Equal(t, "binance", cfg.Platform)
	assert.Equal(t, "https://example.com/sheet.csv", cfg.SheetURL)
	assert.Equal(t, "/var/lib/dcabot", cfg.DataDir)
	assert.Equal(t, []string{"ops@example.com"}, cfg.EmailTo)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeYaml(t, "pair: ETH_USDT\n")

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Platform, "platform defaults to binance")
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("EMAIL_TO", "a@example.com, b@example.com")

	path := writeYaml(t, "pair: BTC_USDT\nemail_to: [ignored@example.com]\n")

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.EmailTo)
}

func TestLoad_HyperliquidPlatform(t *testing.T) {
	t.Setenv("HYPERLIQUID_PRIVATE_KEY", "0xdeadbeef")

	cfg, err := load(writeYaml(t, "pair: BTC_USDT\nplatform: hyperliquid\n"))
	require.NoError(t, err)

	assert.Equal(t, "hyperliquid", cfg.Platform)
	assert.Equal(t, "0xdeadbeef", cfg.HyperliquidPrivateKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("bad pair", func(t *testing.T) {
		_, err := load(writeYaml(t, "pair: BTCUSDT\n"))
		require.Error(t, err)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		_, err := load(writeYaml(t, "pair: BTC_USDT\nplatform: kraken\n"))
		require.Error(t, err)
	})

	t.Run("bad chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
		_, err := load(writeYaml(t, "pair: BTC_USDT\n"))
		require.Error(t, err)
	})
}
