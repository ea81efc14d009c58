// Package notifier delivers bot events through a prioritized channel
// chain (Telegram, email, console) with graceful degradation. Notify
// never fails past its own boundary: the console channel is the always-on
// last resort, and every attempt lands in the audit log.
package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a notification for formatting and audit purposes.
type Kind string

const (
	KindTrade  Kind = "trade"
	KindReport Kind = "report"
	KindStatus Kind = "status"
	KindError  Kind = "error"
)

// Message is a notification payload.
type Message struct {
	Kind    Kind
	Subject string
	Body    string
}

// Toggles are the per-cycle config switches for the configured channels.
// The console channel cannot be toggled off.
type Toggles struct {
	Telegram bool
	Email    bool
}

// AllEnabled returns toggles with every channel switched on.
func AllEnabled() Toggles {
	return Toggles{Telegram: true, Email: true}
}

func (t Toggles) allows(channel string) bool {
	switch channel {
	case ChannelTelegram:
		return t.Telegram
	case ChannelEmail:
		return t.Email
	default:
		return true
	}
}

// Channel names in priority order.
const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"
	ChannelConsole  = "console"
)

// Channel is one delivery mechanism. Availability is computed from
// static configuration (token/credentials present) and does not change
// during the process lifetime.
type Channel interface {
	Name() string
	Available() bool
	Send(ctx context.Context, msg Message) error
}

// ChannelError records a per-channel delivery failure.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// DeliveryResult reports which channel actually delivered a message.
type DeliveryResult struct {
	Channel  string
	Success  bool
	Attempts int
	Err      error
}

// Dispatcher walks the channel chain in priority order.
type Dispatcher struct {
	channels []Channel
	audit    *AuditLog
	log      *zap.Logger
}

// NewDispatcher creates a dispatcher over the given ordered channels.
// The audit log may be nil (attempts are then only logged).
func NewDispatcher(channels []Channel, audit *AuditLog, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{channels: channels, audit: audit, log: logger}
}

// Notify tries each enabled, available channel in order until one
// delivers. Failures are recorded in the result and the audit log, never
// raised. With the console channel in the chain the result is always a
// successful delivery.
func (d *Dispatcher) Notify(ctx context.Context, msg Message, toggles Toggles) DeliveryResult {
	result := DeliveryResult{}

	for _, ch := range d.channels {
		if !toggles.allows(ch.Name()) {
			d.log.Debug("channel disabled by config", zap.String("channel", ch.Name()))
			continue
		}
		if !ch.Available() {
			d.log.Debug("channel not configured", zap.String("channel", ch.Name()))
			continue
		}

		result.Attempts++
		err := ch.Send(ctx, msg)
		d.recordAttempt(ch.Name(), msg, err)

		if err == nil {
			result.Channel = ch.Name()
			result.Success = true
			result.Err = nil
			return result
		}

		result.Err = &ChannelError{Channel: ch.Name(), Err: err}
		d.log.Warn("notification channel failed, falling through",
			zap.String("channel", ch.Name()),
			zap.Error(err))
	}

	if !result.Success {
		d.log.Error("no notification channel delivered", zap.Error(result.Err))
	}
	return result
}

func (d *Dispatcher) recordAttempt(channel string, msg Message, sendErr error) {
	if d.audit == nil {
		return
	}

	entry := AuditEntry{
		Timestamp:      time.Now().UTC(),
		Channel:        channel,
		Success:        sendErr == nil,
		Kind:           string(msg.Kind),
		MessageExcerpt: excerpt(msg.Body, excerptLimit),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}

	if err := d.audit.Append(entry); err != nil {
		d.log.Warn("failed to append notification audit entry", zap.Error(err))
	}
}

const excerptLimit = 120

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
