// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torrentclient defines the capability contract both backend
// variants (qBittorrent-style, Transmission-style) implement, so the
// rest of the pipeline dispatches through a single interface instead
// of branching on backend type.
package torrentclient

import (
	"context"
	"time"

	"github.com/ptarr/ptarr/internal/domain"
)

// File is one file inside a (possibly multi-file) torrent.
type File struct {
	Index    int
	Name     string
	Size     int64
	Selected bool
}

// Transferable is a completed torrent ready for the transfer worker.
type Transferable struct {
	Handle     domain.TorrentHandle
	Name       string
	SavePath   string
	TitleKey   string
	EpisodeKey string
}

// HandleInfo is a lightweight progress summary used for stats reporting.
type HandleInfo struct {
	Handle   domain.TorrentHandle
	Name     string
	Progress float64
	State    string
}

// Client is the capability contract every torrent-client backend
// implements. Callers (DownloadDriver, TransferWorker, SeedingReaper,
// StatsReporter) depend only on this interface, never on a concrete
// backend type.
type Client interface {
	Add(ctx context.Context, url string, mediaType domain.MediaType, paused bool, tag string) (*domain.TorrentHandle, error)
	ResolveByTag(ctx context.Context, tag string) (*domain.TorrentHandle, error)
	SetFileSelection(ctx context.Context, h *domain.TorrentHandle, selected, unselected []int) error
	ListFiles(ctx context.Context, h *domain.TorrentHandle) ([]File, error)
	ListTransferable(ctx context.Context, tag string) ([]Transferable, error)
	MarkTransferred(ctx context.Context, h *domain.TorrentHandle) error
	ListForReap(ctx context.Context, seedingTime time.Duration, tag string) ([]*domain.TorrentHandle, error)
	ListDownloading(ctx context.Context, tag string) ([]HandleInfo, error)
	Start(ctx context.Context, h *domain.TorrentHandle) error
	Stop(ctx context.Context, h *domain.TorrentHandle) error
	Delete(ctx context.Context, h *domain.TorrentHandle, deleteFiles bool) error
	Counters(ctx context.Context) (uploaded, downloaded int64, err error)
	SetTag(ctx context.Context, h *domain.TorrentHandle, tag string) error
	RemoveTag(ctx context.Context, h *domain.TorrentHandle, tag string) error
}

// ResolveWaitInterval is the fixed poll interval the qBittorrent
// backend uses while waiting for a just-added torrent to appear by
// tag; a single fixed wait rather than exponential backoff, matching
// the original daemon's behavior.
const ResolveWaitInterval = 10 * time.Second

// LegacyTag is a tag some torrents were added with prior to this
// system adopting a configurable tag; the qBittorrent backend strips
// it on resolve so stale-tagged torrents from the old system don't
// confuse ListDownloading/ListForReap.
const LegacyTag = "NASTOOL"
