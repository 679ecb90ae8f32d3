// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package subtitles supplements a feature dropped by the spec.md
// distillation: original_source/pt/subtitle.py dispatches to one of
// two subtitle providers after a successful transfer. The dispatch and
// provider-selection logic is implemented here; the actual HTTP calls
// to each provider are left undone since no concrete API contract
// exists in the spec and indexer/scraper calls beyond RSS XML are a
// declared non-goal.
package subtitles

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
)

// Provider fetches subtitles for a transferred media file.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, path string) error
}

// Config selects and authenticates a provider.
type Config struct {
	Server   string // "opensubtitles" or "chinesesubfinder"
	Endpoint string
	APIKey   string
	Username string
	Password string
}

// New constructs the configured Provider, or nil if Server is empty
// (subtitle fetching disabled).
func New(cfg Config, log zerolog.Logger) (Provider, error) {
	switch cfg.Server {
	case "":
		return nil, nil
	case "opensubtitles":
		return &openSubtitlesProvider{cfg: cfg, log: log}, nil
	case "chinesesubfinder":
		return &chineseSubFinderProvider{cfg: cfg, log: log}, nil
	default:
		return nil, errors.Wrapf(domain.ErrFatal, "unknown subtitle provider %q", cfg.Server)
	}
}

// Dispatcher invokes the configured Provider for a file path, the
// counterpart of original_source/pt/subtitle.py's post-transfer hook.
// The transfer worker does not call it; `serve` builds one and
// discards it.
type Dispatcher struct {
	provider Provider
	log      zerolog.Logger
}

// NewDispatcher builds a Dispatcher. provider may be nil, in which
// case Dispatch is a no-op.
func NewDispatcher(provider Provider, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{provider: provider, log: log}
}

// Dispatch fetches subtitles for path if a provider is configured.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) {
	if d.provider == nil {
		return
	}
	if err := d.provider.Fetch(ctx, path); err != nil {
		d.log.Warn().Err(err).Str("provider", d.provider.Name()).Str("path", path).Msg("[SUBTITLE] fetch failed")
	}
}

type openSubtitlesProvider struct {
	cfg Config
	log zerolog.Logger
}

func (p *openSubtitlesProvider) Name() string { return "opensubtitles" }

// Fetch is a documented stub: no concrete OpenSubtitles API contract
// is part of the spec's external interfaces.
func (p *openSubtitlesProvider) Fetch(ctx context.Context, path string) error {
	p.log.Debug().Str("path", path).Msg("[SUBTITLE] opensubtitles fetch not implemented")
	return nil
}

type chineseSubFinderProvider struct {
	cfg Config
	log zerolog.Logger
}

func (p *chineseSubFinderProvider) Name() string { return "chinesesubfinder" }

// Fetch is a documented stub, see openSubtitlesProvider.Fetch.
func (p *chineseSubFinderProvider) Fetch(ctx context.Context, path string) error {
	p.log.Debug().Str("path", path).Msg("[SUBTITLE] chinesesubfinder fetch not implemented")
	return nil
}
