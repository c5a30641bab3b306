// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package notify delivers one-time codes and transactional messages to members.

The delivery channel (email vs SMS) is selected by the destination format.
Production wiring plugs in a real provider; development and tests use the
logging sender, which makes codes visible in the server log instead of
sending anything.
*/
package notify

import (
	"context"
	"log/slog"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSms   Channel = "sms"
)

// Sender delivers a one-time code to a destination.
//
// Implementations must return an error when delivery fails so the caller can
// roll back the issued code: a generated-but-undelivered code must never be
// silently invisible to the member.
type Sender interface {
	SendCode(ctx context.Context, channel Channel, destination string, code string, purpose string) error
}

// # Development Sender

// LogSender writes codes to the structured log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a [Sender] for development and test environments.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendCode implements [Sender] by logging the code.
func (sender *LogSender) SendCode(ctx context.Context, channel Channel, destination string, code string, purpose string) error {
	sender.logger.Info("one_time_code_issued",
		slog.String("channel", string(channel)),
		slog.String("destination", destination),
		slog.String("code", code),
		slog.String("purpose", purpose),
	)
	return nil
}
