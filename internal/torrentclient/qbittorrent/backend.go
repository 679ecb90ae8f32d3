// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package qbittorrent adapts autobrr/go-qbittorrent to the
// torrentclient.Client capability contract.
package qbittorrent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/torrentclient"
)

var minSetTagsVersion = semver.MustParse("2.11.4")

// Backend adapts a qBittorrent Web API connection to torrentclient.Client.
type Backend struct {
	client          *qbt.Client
	log             zerolog.Logger
	supportsSetTags bool
}

// Config holds connection settings for the qBittorrent Web API.
type Config struct {
	Host     string
	Username string
	Password string
}

// New logs into qBittorrent and probes its webapi version for the
// newer bulk SetTags endpoint, falling back to AddTags/RemoveTags on
// older servers.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Backend, error) {
	client := qbt.NewClient(qbt.Config{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  30,
	})

	if err := client.LoginCtx(ctx); err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}

	supportsSetTags := false
	if webAPIVersion, err := client.GetWebAPIVersionCtx(ctx); err == nil && webAPIVersion != "" {
		if v, err := semver.NewVersion(webAPIVersion); err == nil {
			supportsSetTags = !v.LessThan(minSetTagsVersion)
		}
	}

	return &Backend{client: client, log: log, supportsSetTags: supportsSetTags}, nil
}

// Add submits url (a magnet or direct .torrent link) to qBittorrent,
// paused or not, tagged per mode. mediaType is unused on this backend
// (qBittorrent has no native media-type concept); it exists for
// interface symmetry with the Transmission backend.
func (b *Backend) Add(ctx context.Context, url string, mediaType domain.MediaType, paused bool, tag string) (*domain.TorrentHandle, error) {
	opts := map[string]string{
		"paused": strconv.FormatBool(paused),
	}
	if tag != "" {
		opts["tags"] = tag
	}
	if err := b.client.AddTorrentFromUrlsCtx(ctx, []string{url}, opts); err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	return b.ResolveByTag(ctx, tag)
}

// ResolveByTag waits a single fixed interval and then looks the
// torrent up by tag. A fixed wait rather than a poll loop, matching
// the daemon's original handle-resolution behavior.
func (b *Backend) ResolveByTag(ctx context.Context, tag string) (*domain.TorrentHandle, error) {
	if tag == "" {
		return nil, errors.Wrap(domain.ErrBackendInconsistency, "resolve by tag: empty tag")
	}

	select {
	case <-time.After(torrentclient.ResolveWaitInterval):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	torrents, err := b.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Tag: tag, Sort: "added_on", Reverse: true, Limit: 1})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	if len(torrents) == 0 {
		return nil, errors.Wrapf(domain.ErrBackendInconsistency, "no torrent resolved for tag %q", tag)
	}

	t := torrents[0]
	if hasTag(t.Tags, torrentclient.LegacyTag) {
		_ = b.client.RemoveTagsCtx(ctx, []string{t.Hash}, torrentclient.LegacyTag)
	}

	return &domain.TorrentHandle{ID: t.Hash, Tags: splitTags(t.Tags)}, nil
}

// SetFileSelection marks selected files as normal priority and
// unselected ones as do-not-download, per qBittorrent's 0/1 priority
// file-selection API.
func (b *Backend) SetFileSelection(ctx context.Context, h *domain.TorrentHandle, selected, unselected []int) error {
	if len(selected) > 0 {
		if err := b.client.SetFilePriorityCtx(ctx, h.ID, joinIndices(selected), 1); err != nil {
			return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
		}
	}
	if len(unselected) > 0 {
		if err := b.client.SetFilePriorityCtx(ctx, h.ID, joinIndices(unselected), 0); err != nil {
			return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
		}
	}
	return nil
}

// ListFiles returns the files inside a torrent.
func (b *Backend) ListFiles(ctx context.Context, h *domain.TorrentHandle) ([]torrentclient.File, error) {
	files, err := b.client.GetFilesInformationCtx(ctx, h.ID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	out := make([]torrentclient.File, 0, len(*files))
	for _, f := range *files {
		out = append(out, torrentclient.File{
			Index:    f.Index,
			Name:     f.Name,
			Size:     f.Size,
			Selected: f.Priority != 0,
		})
	}
	return out, nil
}

// ListTransferable returns completed torrents under tag, ready for
// TransferWorker.
func (b *Backend) ListTransferable(ctx context.Context, tag string) ([]torrentclient.Transferable, error) {
	torrents, err := b.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Tag: tag, Filter: qbt.TorrentFilterCompleted})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	out := make([]torrentclient.Transferable, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, torrentclient.Transferable{
			Handle:   domain.TorrentHandle{ID: t.Hash, Tags: splitTags(t.Tags)},
			Name:     t.Name,
			SavePath: t.SavePath,
		})
	}
	return out, nil
}

// MarkTransferred is a no-op on the qBittorrent backend: transfer
// completion is tracked entirely in internal/store, not in the client.
func (b *Backend) MarkTransferred(ctx context.Context, h *domain.TorrentHandle) error {
	return nil
}

// ListForReap returns torrents that have seeded at least seedingTime.
func (b *Backend) ListForReap(ctx context.Context, seedingTime time.Duration, tag string) ([]*domain.TorrentHandle, error) {
	torrents, err := b.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Tag: tag, Filter: qbt.TorrentFilterSeeding})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	var out []*domain.TorrentHandle
	threshold := seedingTime.Seconds()
	for _, t := range torrents {
		if float64(t.SeedingTime) >= threshold {
			out = append(out, &domain.TorrentHandle{ID: t.Hash, Tags: splitTags(t.Tags)})
		}
	}
	return out, nil
}

// ListDownloading returns active torrents under tag for stats reporting.
func (b *Backend) ListDownloading(ctx context.Context, tag string) ([]torrentclient.HandleInfo, error) {
	torrents, err := b.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Tag: tag, Filter: qbt.TorrentFilterDownloading})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	out := make([]torrentclient.HandleInfo, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, torrentclient.HandleInfo{
			Handle:   domain.TorrentHandle{ID: t.Hash, Tags: splitTags(t.Tags)},
			Name:     t.Name,
			Progress: t.Progress,
			State:    string(t.State),
		})
	}
	return out, nil
}

// Start resumes a paused torrent.
func (b *Backend) Start(ctx context.Context, h *domain.TorrentHandle) error {
	if err := b.client.ResumeCtx(ctx, []string{h.ID}); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Stop pauses a torrent.
func (b *Backend) Stop(ctx context.Context, h *domain.TorrentHandle) error {
	if err := b.client.PauseCtx(ctx, []string{h.ID}); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Delete removes a torrent, optionally with its files.
func (b *Backend) Delete(ctx context.Context, h *domain.TorrentHandle, deleteFiles bool) error {
	if err := b.client.DeleteTorrentsCtx(ctx, []string{h.ID}, deleteFiles); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Counters returns global upload/download byte counters.
func (b *Backend) Counters(ctx context.Context) (uploaded, downloaded int64, err error) {
	info, err := b.client.GetTransferInfoCtx(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	return info.UpInfoData, info.DlInfoData, nil
}

// SetTag adds tag, preferring the bulk SetTags endpoint when the
// server's webapi version supports it (>= 2.11.4), falling back to
// AddTags otherwise.
func (b *Backend) SetTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	if b.supportsSetTags {
		if err := b.client.SetTags(ctx, []string{h.ID}, tag); err == nil {
			return nil
		}
	}
	if err := b.client.AddTagsCtx(ctx, []string{h.ID}, tag); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// RemoveTag removes tag from a torrent.
func (b *Backend) RemoveTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	if err := b.client.RemoveTagsCtx(ctx, []string{h.ID}, tag); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasTag(tags, tag string) bool {
	for _, t := range splitTags(tags) {
		if t == tag {
			return true
		}
	}
	return false
}

func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "|")
}

var _ torrentclient.Client = (*Backend)(nil)
