// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package message is the notification sink external collaborator: the
// driver reports successfully queued downloads here instead of owning
// a concrete delivery mechanism itself.
package message

import (
	"context"

	"github.com/rs/zerolog"
)

// Sink delivers a human-readable notification somewhere.
type Sink interface {
	Notify(ctx context.Context, text string) error
}

// LogSink is the default Sink: it writes every notification to the
// structured log instead of an external channel, since no concrete
// notification-service contract is part of the spec's external
// interfaces.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink builds a Sink backed by log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Notify logs text at info level.
func (s *LogSink) Notify(ctx context.Context, text string) error {
	s.log.Info().Msg(text)
	return nil
}
