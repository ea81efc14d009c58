package notifier

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleChannel is the always-available last resort. It writes the
// notification to the process log and never fails.
type ConsoleChannel struct {
	log *zap.Logger
}

// NewConsoleChannel creates the console channel.
func NewConsoleChannel(logger *zap.Logger) *ConsoleChannel {
	return &ConsoleChannel{log: logger}
}

func (c *ConsoleChannel) Name() string { return ChannelConsole }

func (c *ConsoleChannel) Available() bool { return true }

func (c *ConsoleChannel) Send(_ context.Context, msg Message) error {
	c.log.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
