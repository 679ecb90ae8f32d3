// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package transmission adapts hekmon/transmissionrpc/v3 to the
// torrentclient.Client capability contract. Transmission has no
// concept of tags; its per-torrent Labels field stands in for them.
package transmission

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/torrentclient"
)

// Backend adapts a Transmission RPC endpoint to torrentclient.Client.
type Backend struct {
	client *transmissionrpc.Client
	log    zerolog.Logger
}

// Config holds connection settings for the Transmission RPC endpoint.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// New builds a Backend and verifies connectivity via session arguments.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Backend, error) {
	endpoint := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/transmission/rpc",
	}
	if cfg.Username != "" {
		endpoint.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	client, err := transmissionrpc.New(endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(domain.ErrFatal, err.Error())
	}
	if _, err := client.SessionArgumentsGet(ctx); err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	return &Backend{client: client, log: log}, nil
}

// Add submits url (a magnet link or direct .torrent URL) to
// Transmission. mediaType is unused by this backend, kept for
// interface symmetry. The RPC response carries the new torrent's ID
// synchronously, so unlike qBittorrent no resolve wait is needed.
func (b *Backend) Add(ctx context.Context, u string, mediaType domain.MediaType, paused bool, tag string) (*domain.TorrentHandle, error) {
	payload := transmissionrpc.TorrentAddPayload{
		Filename: &u,
		Paused:   &paused,
	}
	torrent, err := b.client.TorrentAdd(ctx, payload)
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	if torrent.ID == nil {
		return nil, errors.Wrap(domain.ErrBackendInconsistency, "transmission torrent-add returned no id")
	}

	handle := &domain.TorrentHandle{ID: strconv.FormatInt(*torrent.ID, 10)}
	if tag != "" {
		if err := b.SetTag(ctx, handle, tag); err != nil {
			return nil, err
		}
		handle.Tags = []string{tag}
	}
	return handle, nil
}

// ResolveByTag is not supported on Transmission and always returns
// ErrBackendInconsistency: Add already returns a resolved handle
// synchronously from the RPC response.
func (b *Backend) ResolveByTag(ctx context.Context, tag string) (*domain.TorrentHandle, error) {
	return nil, errors.Wrap(domain.ErrBackendInconsistency, "transmission backend resolves handles synchronously on Add")
}

// SetFileSelection applies Transmission's wanted/unwanted file-index mutator.
func (b *Backend) SetFileSelection(ctx context.Context, h *domain.TorrentHandle, selected, unselected []int) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	payload := transmissionrpc.TorrentSetPayload{
		IDs:           []int64{id},
		FilesWanted:   toInt64(selected),
		FilesUnwanted: toInt64(unselected),
	}
	if err := b.client.TorrentSet(ctx, payload); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// ListFiles returns the files inside a torrent.
func (b *Backend) ListFiles(ctx context.Context, h *domain.TorrentHandle) ([]torrentclient.File, error) {
	id, err := parseID(h.ID)
	if err != nil {
		return nil, err
	}
	torrents, err := b.client.TorrentGet(ctx, []string{"id", "files", "fileStats"}, []int64{id})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	if len(torrents) == 0 {
		return nil, errors.Wrap(domain.ErrBackendInconsistency, "torrent not found")
	}
	t := torrents[0]
	out := make([]torrentclient.File, 0, len(t.Files))
	for i, f := range t.Files {
		selected := true
		if i < len(t.FileStats) {
			selected = t.FileStats[i].Wanted
		}
		out = append(out, torrentclient.File{Index: i, Name: f.Name, Size: int64(f.Length), Selected: selected})
	}
	return out, nil
}

// ListTransferable returns completed torrents labeled tag.
func (b *Backend) ListTransferable(ctx context.Context, tag string) ([]torrentclient.Transferable, error) {
	torrents, err := b.listByLabel(ctx, tag, []string{"id", "name", "downloadDir", "percentDone", "labels"})
	if err != nil {
		return nil, err
	}
	var out []torrentclient.Transferable
	for _, t := range torrents {
		if t.PercentDone == nil || *t.PercentDone < 1 {
			continue
		}
		out = append(out, torrentclient.Transferable{
			Handle:   domain.TorrentHandle{ID: strconv.FormatInt(*t.ID, 10), Tags: t.Labels},
			Name:     derefStr(t.Name),
			SavePath: derefStr(t.DownloadDir),
		})
	}
	return out, nil
}

// MarkTransferred is a no-op on this backend; completion is tracked in
// internal/store.
func (b *Backend) MarkTransferred(ctx context.Context, h *domain.TorrentHandle) error {
	return nil
}

// ListForReap returns torrents that have seeded at least seedingTime.
func (b *Backend) ListForReap(ctx context.Context, seedingTime time.Duration, tag string) ([]*domain.TorrentHandle, error) {
	torrents, err := b.listByLabel(ctx, tag, []string{"id", "labels", "secondsSeeding", "isFinished"})
	if err != nil {
		return nil, err
	}
	var out []*domain.TorrentHandle
	threshold := int64(seedingTime.Seconds())
	for _, t := range torrents {
		if t.SecondsSeeding != nil && *t.SecondsSeeding >= threshold {
			out = append(out, &domain.TorrentHandle{ID: strconv.FormatInt(*t.ID, 10), Tags: t.Labels})
		}
	}
	return out, nil
}

// ListDownloading returns actively downloading torrents labeled tag.
func (b *Backend) ListDownloading(ctx context.Context, tag string) ([]torrentclient.HandleInfo, error) {
	torrents, err := b.listByLabel(ctx, tag, []string{"id", "name", "labels", "percentDone", "status"})
	if err != nil {
		return nil, err
	}
	var out []torrentclient.HandleInfo
	for _, t := range torrents {
		if t.Status != nil && *t.Status != transmissionrpc.TorrentStatusDownload {
			continue
		}
		out = append(out, torrentclient.HandleInfo{
			Handle:   domain.TorrentHandle{ID: strconv.FormatInt(*t.ID, 10), Tags: t.Labels},
			Name:     derefStr(t.Name),
			Progress: derefFloat(t.PercentDone),
			State:    "downloading",
		})
	}
	return out, nil
}

// Start resumes a stopped torrent.
func (b *Backend) Start(ctx context.Context, h *domain.TorrentHandle) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	if err := b.client.TorrentStartIDs(ctx, []int64{id}); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Stop pauses a torrent.
func (b *Backend) Stop(ctx context.Context, h *domain.TorrentHandle) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	if err := b.client.TorrentStopIDs(ctx, []int64{id}); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Delete removes a torrent, optionally with its files.
func (b *Backend) Delete(ctx context.Context, h *domain.TorrentHandle, deleteFiles bool) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	if err := b.client.TorrentRemove(ctx, transmissionrpc.TorrentRemovePayload{
		IDs:             []int64{id},
		DeleteLocalData: deleteFiles,
	}); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// Counters returns the session-wide upload/download byte totals.
func (b *Backend) Counters(ctx context.Context) (uploaded, downloaded int64, err error) {
	stats, err := b.client.SessionStats(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	return int64(stats.CumulativeStats.UploadedBytes), int64(stats.CumulativeStats.DownloadedBytes), nil
}

// SetTag appends tag to the torrent's label set.
func (b *Backend) SetTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	existing, ferr := b.currentLabels(ctx, id)
	if ferr != nil {
		return ferr
	}
	if containsString(existing, tag) {
		return nil
	}
	payload := transmissionrpc.TorrentSetPayload{IDs: []int64{id}, Labels: append(existing, tag)}
	if err := b.client.TorrentSet(ctx, payload); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

// RemoveTag removes tag from the torrent's label set.
func (b *Backend) RemoveTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}
	existing, ferr := b.currentLabels(ctx, id)
	if ferr != nil {
		return ferr
	}
	filtered := existing[:0]
	for _, l := range existing {
		if l != tag {
			filtered = append(filtered, l)
		}
	}
	payload := transmissionrpc.TorrentSetPayload{IDs: []int64{id}, Labels: filtered}
	if err := b.client.TorrentSet(ctx, payload); err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, err.Error())
	}
	return nil
}

func (b *Backend) currentLabels(ctx context.Context, id int64) ([]string, error) {
	torrents, err := b.client.TorrentGet(ctx, []string{"id", "labels"}, []int64{id})
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	if len(torrents) == 0 {
		return nil, errors.Wrap(domain.ErrBackendInconsistency, "torrent not found")
	}
	return append([]string(nil), torrents[0].Labels...), nil
}

func (b *Backend) listByLabel(ctx context.Context, tag string, fields []string) ([]transmissionrpc.Torrent, error) {
	torrents, err := b.client.TorrentGet(ctx, fields, nil)
	if err != nil {
		return nil, errors.Wrap(domain.ErrTransientIO, err.Error())
	}
	if tag == "" {
		return torrents, nil
	}
	var out []transmissionrpc.Torrent
	for _, t := range torrents {
		if containsString(t.Labels, tag) {
			out = append(out, t)
		}
	}
	return out, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(domain.ErrBackendInconsistency, "invalid transmission torrent id: "+s)
	}
	return id, nil
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

var _ torrentclient.Client = (*Backend)(nil)
