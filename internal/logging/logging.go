// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package logging wires zerolog to a rotating lumberjack file sink,
// console output, and the bracketed subsystem tags ([RSS], [PLANNER],
// [DRIVER], ...) carried throughout this codebase's log lines.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Subsystem tags, written in brackets (e.g. "[RSS]") into the "tag"
// field of every line a Tagged logger emits, mirroring the original daemon's
// 【PT】/【RSS】 log convention.
const (
	TagRSS      = "RSS"
	TagGap      = "GAP"
	TagPlanner  = "PLANNER"
	TagDriver   = "DRIVER"
	TagTransfer = "TRANSFER"
	TagReaper   = "REAPER"
	TagRetry    = "RETRY"
	TagSub      = "SUBTITLE"
	TagStats    = "STATS"
	TagStore    = "STORE"
)

// Config controls the logger's destination and rotation policy.
type Config struct {
	Level      string
	Path       string // file path; empty disables file logging
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger wraps a zerolog.Logger with the rotator it owns, so callers
// can Close it on shutdown.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// New builds the process-wide Logger from cfg.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	var out io.Writer = console
	var rotator *lumberjack.Logger

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err == nil {
			rotator = &lumberjack.Logger{
				Filename:   cfg.Path,
				MaxSize:    positiveOrDefault(cfg.MaxSizeMB, 50),
				MaxBackups: positiveOrDefault(cfg.MaxBackups, 5),
				MaxAge:     positiveOrDefault(cfg.MaxAgeDays, 30),
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			fileOut := zerolog.ConsoleWriter{Out: rotator, TimeFormat: time.RFC3339, NoColor: true}
			out = zerolog.MultiLevelWriter(console, fileOut)
		}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: zl, rotator: rotator}
}

// Tagged returns a child logger that stamps every line with the given
// subsystem tag, e.g. log.Tagged(TagRSS).Info().Msg("fetch ok").
func (l *Logger) Tagged(tag string) zerolog.Logger {
	return l.Logger.With().Str("tag", "["+tag+"]").Logger()
}

// Close flushes and closes the rotating file, if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func positiveOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
