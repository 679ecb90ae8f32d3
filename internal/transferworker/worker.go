// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package transferworker periodically sweeps completed torrents and
// hands them to an external transfer collaborator (the filesystem
// rename/move step that is out of scope per spec.md §1).
package transferworker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/torrentclient"
)

// Transferer moves a completed torrent's files into the library. It is
// the external collaborator spec.md §1 calls out as out-of-scope; this
// repo only defines the interface plus a logging no-op adapter.
type Transferer interface {
	Transfer(ctx context.Context, sourceKind, path string) error
}

// LogTransferer is a Transferer that only logs, used when no real
// filesystem mover is configured (and in tests).
type LogTransferer struct {
	Log zerolog.Logger
}

// Transfer logs the transfer it would have performed.
func (t LogTransferer) Transfer(ctx context.Context, sourceKind, path string) error {
	t.Log.Info().Str("source", sourceKind).Str("path", path).Msg("[TRANSFER] would transfer")
	return nil
}

// Worker sweeps torrentclient.Client.ListTransferable on a ticker.
type Worker struct {
	client      torrentclient.Client
	transferer  Transferer
	log         zerolog.Logger
	monitorOnly bool
	tag         string
}

// New builds a Worker. When monitorOnly is true, only torrents tagged
// tag are considered transferable, matching spec §4.6.
func New(client torrentclient.Client, transferer Transferer, log zerolog.Logger, monitorOnly bool, tag string) *Worker {
	return &Worker{client: client, transferer: transferer, log: log, monitorOnly: monitorOnly, tag: tag}
}

// Run blocks, sweeping every interval until ctx is canceled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one pass. Per-item failures are logged and do not abort
// the sweep, and mark_transferred is always called even on failure
// (spec §4.6/§9: retrying an unfixable path would loop forever).
func (w *Worker) sweep(ctx context.Context) {
	tag := ""
	if w.monitorOnly {
		tag = w.tag
	}

	items, err := w.client.ListTransferable(ctx, tag)
	if err != nil {
		w.log.Warn().Err(err).Msg("[TRANSFER] list transferable failed")
		return
	}

	for _, item := range items {
		if err := w.transferer.Transfer(ctx, "torrent", item.SavePath); err != nil {
			w.log.Warn().Err(err).Str("path", item.SavePath).Msg("[TRANSFER] transfer failed")
		}
		if err := w.client.MarkTransferred(ctx, &item.Handle); err != nil {
			w.log.Warn().Err(err).Msg("[TRANSFER] mark transferred failed")
		}
	}
}
