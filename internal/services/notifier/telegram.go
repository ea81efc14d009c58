package notifier

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// telegramMessageLimit is the Telegram API hard cap per message.
const telegramMessageLimit = 4096

// telegramMaxRetries bounds send retries per chunk before falling
// through to the next channel.
const telegramMaxRetries = 3

// telegramRequestTimeout caps a single bot API call so a hung TCP
// connection cannot outlive the notify deadline.
const telegramRequestTimeout = 15 * time.Second

// botAPI is the slice of tgbotapi.BotAPI the channel uses, extracted for
// testing.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel delivers notifications through a Telegram bot.
// Available iff a bot token and chat ID were configured at startup.
type TelegramChannel struct {
	bot    botAPI
	chatID int64
	log    *zap.Logger
}

// NewTelegramChannel connects to the Telegram bot API. An empty token
// yields an unavailable channel (the dispatcher skips it).
func NewTelegramChannel(token string, chatID int64, logger *zap.Logger) *TelegramChannel {
	ch := &TelegramChannel{chatID: chatID, log: logger}
	if token == "" || chatID == 0 {
		return ch
	}

	client := &http.Client{Timeout: telegramRequestTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		logger.Warn("telegram bot initialization failed, channel unavailable", zap.Error(err))
		return ch
	}

	ch.bot = bot
	return ch
}

func (c *TelegramChannel) Name() string { return ChannelTelegram }

func (c *TelegramChannel) Available() bool { return c.bot != nil && c.chatID != 0 }

// Send delivers the message, splitting bodies longer than the Telegram
// limit into ordered chunks. Each chunk is retried with exponential
// backoff; a chunk that still fails aborts the send so the dispatcher
// can fall through.
func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	if !c.Available() {
		return errors.New("telegram channel is not configured")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "telegram send aborted")
	}

	text := msg.Body
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + msg.Body
	}

	chunks := splitMessage(text, telegramMessageLimit)
	for i, chunk := range chunks {
		if err := c.sendChunk(ctx, chunk); err != nil {
			return errors.Wrapf(err, "send chunk %d/%d", i+1, len(chunks))
		}
	}

	return nil
}

func (c *TelegramChannel) sendChunk(ctx context.Context, text string) error {
	op := func() error {
		_, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), telegramMaxRetries), ctx)

	return backoff.Retry(op, policy)
}

// splitMessage splits text into chunks of at most limit runes, breaking
// on newlines where possible so chunks stay readable in order.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		window := string(runes[:limit])
		if idx := strings.LastIndexByte(window, '\n'); idx > 0 {
			cut = len([]rune(window[:idx])) + 1
		}

		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}

	return chunks
}
