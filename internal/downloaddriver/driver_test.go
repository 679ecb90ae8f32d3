// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package downloaddriver

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/planner"
	"github.com/ptarr/ptarr/internal/titleparse"
	"github.com/ptarr/ptarr/internal/torrentclient"
)

type fakeClient struct {
	addedTags    []string
	files        []torrentclient.File
	deleted      bool
	started      bool
	selectedIdx  []int
	removedTags  []string
	legacyOnAdd  bool
}

func (f *fakeClient) Add(ctx context.Context, url string, mediaType domain.MediaType, paused bool, tag string) (*domain.TorrentHandle, error) {
	f.addedTags = append(f.addedTags, tag)
	tags := []string{tag}
	if f.legacyOnAdd {
		tags = append(tags, torrentclient.LegacyTag)
	}
	return &domain.TorrentHandle{ID: "h1", Tags: tags}, nil
}
func (f *fakeClient) ResolveByTag(ctx context.Context, tag string) (*domain.TorrentHandle, error) {
	return &domain.TorrentHandle{ID: "h1"}, nil
}
func (f *fakeClient) SetFileSelection(ctx context.Context, h *domain.TorrentHandle, selected, unselected []int) error {
	f.selectedIdx = selected
	return nil
}
func (f *fakeClient) ListFiles(ctx context.Context, h *domain.TorrentHandle) ([]torrentclient.File, error) {
	return f.files, nil
}
func (f *fakeClient) ListTransferable(ctx context.Context, tag string) ([]torrentclient.Transferable, error) {
	return nil, nil
}
func (f *fakeClient) MarkTransferred(ctx context.Context, h *domain.TorrentHandle) error { return nil }
func (f *fakeClient) ListForReap(ctx context.Context, seedingTime time.Duration, tag string) ([]*domain.TorrentHandle, error) {
	return nil, nil
}
func (f *fakeClient) ListDownloading(ctx context.Context, tag string) ([]torrentclient.HandleInfo, error) {
	return nil, nil
}
func (f *fakeClient) Start(ctx context.Context, h *domain.TorrentHandle) error {
	f.started = true
	return nil
}
func (f *fakeClient) Stop(ctx context.Context, h *domain.TorrentHandle) error { return nil }
func (f *fakeClient) Delete(ctx context.Context, h *domain.TorrentHandle, deleteFiles bool) error {
	f.deleted = true
	return nil
}
func (f *fakeClient) Counters(ctx context.Context) (int64, int64, error) { return 0, 0, nil }
func (f *fakeClient) SetTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	return nil
}
func (f *fakeClient) RemoveTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	f.removedTags = append(f.removedTags, tag)
	return nil
}

type noopSink struct{ notified []string }

func (s *noopSink) Notify(ctx context.Context, text string) error {
	s.notified = append(s.notified, text)
	return nil
}

func partialSelection(target []int) planner.Selection {
	return planner.Selection{
		Candidate: domain.Candidate{
			MediaItem: domain.NewMediaItem(domain.TV, "Show", 0, []int{1}, nil, nil),
			RawTitle:  "Show.S01.PACK",
			Enclosure: "https://example/show.torrent",
		},
		Directive: planner.PartialDownload,
		Target:    target,
	}
}

// S4 — backend asymmetry / legacy tag cleanup.
func TestDrivePartialRemovesLegacyTag(t *testing.T) {
	client := &fakeClient{
		legacyOnAdd: true,
		files: []torrentclient.File{
			{Index: 0, Name: "Show.S01E08.mkv"},
			{Index: 1, Name: "Show.S01E01.mkv"},
		},
	}
	sink := &noopSink{}
	d := New(client, titleparse.NewParser(), sink, zerolog.Nop(), "ptarr", nil)

	d.Drive(context.Background(), []planner.Selection{partialSelection([]int{8})})

	assert.Equal(t, []string{torrentclient.LegacyTag}, client.removedTags)
	assert.Equal(t, []int{0}, client.selectedIdx)
	assert.True(t, client.started)
	assert.False(t, client.deleted)
	assert.Len(t, sink.notified, 1)
}

// S5 — no-selection abort: no file matches the target episode.
func TestDrivePartialAbortsOnEmptySelection(t *testing.T) {
	client := &fakeClient{
		files: []torrentclient.File{
			{Index: 0, Name: "Show.S01E01.mkv"},
		},
	}
	sink := &noopSink{}
	d := New(client, titleparse.NewParser(), sink, zerolog.Nop(), "ptarr", nil)

	d.Drive(context.Background(), []planner.Selection{partialSelection([]int{42})})

	assert.True(t, client.deleted)
	assert.False(t, client.started)
	assert.Empty(t, sink.notified)
}

func TestDriveFullNotifies(t *testing.T) {
	client := &fakeClient{}
	sink := &noopSink{}
	d := New(client, titleparse.NewParser(), sink, zerolog.Nop(), "ptarr", nil)

	sel := planner.Selection{
		Directive: planner.FullDownload,
		Candidate: domain.Candidate{
			MediaItem: domain.NewMediaItem(domain.Movie, "Film", 2020, nil, nil, nil),
			RawTitle:  "Film.2020",
			Enclosure: "https://example/film.torrent",
		},
	}
	d.Drive(context.Background(), []planner.Selection{sel})

	require.Len(t, client.addedTags, 1)
	assert.Equal(t, "ptarr", client.addedTags[0])
	assert.Len(t, sink.notified, 1)
}
