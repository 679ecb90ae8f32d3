// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package statsreporter supplements a feature dropped by the spec.md
// distillation: original_source/pt/downloader.py's get_pt_data() and
// pt_downloading_torrents() are recovered here as a periodic logger
// over TorrentClient.Counters and ListDownloading.
package statsreporter

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/torrentclient"
)

// Reporter periodically logs global transfer counters and the list of
// actively downloading torrents.
type Reporter struct {
	client torrentclient.Client
	log    zerolog.Logger
	tag    string
}

// New builds a Reporter.
func New(client torrentclient.Client, log zerolog.Logger, tag string) *Reporter {
	return &Reporter{client: client, log: log, tag: tag}
}

// Run blocks, reporting every interval until ctx is canceled.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *Reporter) report(ctx context.Context) {
	uploaded, downloaded, err := r.client.Counters(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("[STATS] counters failed")
	} else {
		r.log.Info().Int64("uploaded", uploaded).Int64("downloaded", downloaded).Msg("[STATS] transfer totals")
	}

	downloading, err := r.client.ListDownloading(ctx, r.tag)
	if err != nil {
		r.log.Warn().Err(err).Msg("[STATS] list downloading failed")
		return
	}
	for _, d := range downloading {
		r.log.Info().Str("name", d.Name).Float64("progress", d.Progress).Str("state", d.State).Msg("[STATS] downloading")
	}
}
