// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package seedingreaper periodically deletes torrents that have met
// the configured seeding-time policy.
package seedingreaper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/torrentclient"
)

// Reaper deletes torrents that have seeded at least SeedingTime. A
// zero SeedingTime disables reaping entirely (spec §4.7).
type Reaper struct {
	client      torrentclient.Client
	log         zerolog.Logger
	seedingTime time.Duration
	tag         string
}

// New builds a Reaper. If seedingTime is zero, Run is a no-op.
func New(client torrentclient.Client, log zerolog.Logger, seedingTime time.Duration, tag string) *Reaper {
	return &Reaper{client: client, log: log, seedingTime: seedingTime, tag: tag}
}

// Run blocks, sweeping every interval until ctx is canceled. Returns
// immediately if SeedingTime is zero.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	if r.seedingTime <= 0 {
		r.log.Debug().Msg("[REAPER] seeding time unset, reaper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	handles, err := r.client.ListForReap(ctx, r.seedingTime, r.tag)
	if err != nil {
		r.log.Warn().Err(err).Msg("[REAPER] list for reap failed")
		return
	}
	for _, h := range handles {
		if err := r.client.Delete(ctx, h, true); err != nil {
			r.log.Warn().Err(err).Str("id", h.ID).Msg("[REAPER] delete failed")
		}
	}
}
