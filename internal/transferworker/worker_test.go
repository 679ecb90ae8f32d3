// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package transferworker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/torrentclient"
)

type fakeClient struct {
	transferable []torrentclient.Transferable
	marked       []string
}

func (f *fakeClient) Add(ctx context.Context, url string, mediaType domain.MediaType, paused bool, tag string) (*domain.TorrentHandle, error) {
	return nil, nil
}
func (f *fakeClient) ResolveByTag(ctx context.Context, tag string) (*domain.TorrentHandle, error) {
	return nil, nil
}
func (f *fakeClient) SetFileSelection(ctx context.Context, h *domain.TorrentHandle, selected, unselected []int) error {
	return nil
}
func (f *fakeClient) ListFiles(ctx context.Context, h *domain.TorrentHandle) ([]torrentclient.File, error) {
	return nil, nil
}
func (f *fakeClient) ListTransferable(ctx context.Context, tag string) ([]torrentclient.Transferable, error) {
	return f.transferable, nil
}
func (f *fakeClient) MarkTransferred(ctx context.Context, h *domain.TorrentHandle) error {
	f.marked = append(f.marked, h.ID)
	return nil
}
func (f *fakeClient) ListForReap(ctx context.Context, seedingTime time.Duration, tag string) ([]*domain.TorrentHandle, error) {
	return nil, nil
}
func (f *fakeClient) ListDownloading(ctx context.Context, tag string) ([]torrentclient.HandleInfo, error) {
	return nil, nil
}
func (f *fakeClient) Start(ctx context.Context, h *domain.TorrentHandle) error { return nil }
func (f *fakeClient) Stop(ctx context.Context, h *domain.TorrentHandle) error { return nil }
func (f *fakeClient) Delete(ctx context.Context, h *domain.TorrentHandle, deleteFiles bool) error {
	return nil
}
func (f *fakeClient) Counters(ctx context.Context) (int64, int64, error) { return 0, 0, nil }
func (f *fakeClient) SetTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	return nil
}
func (f *fakeClient) RemoveTag(ctx context.Context, h *domain.TorrentHandle, tag string) error {
	return nil
}

type failingTransferer struct{}

func (failingTransferer) Transfer(ctx context.Context, sourceKind, path string) error {
	return errors.New("boom")
}

func TestSweepMarksTransferredEvenOnFailure(t *testing.T) {
	client := &fakeClient{
		transferable: []torrentclient.Transferable{
			{Handle: domain.TorrentHandle{ID: "a"}, SavePath: "/tmp/a"},
			{Handle: domain.TorrentHandle{ID: "b"}, SavePath: "/tmp/b"},
		},
	}
	w := New(client, failingTransferer{}, zerolog.Nop(), false, "ptarr")

	w.sweep(context.Background())

	require.Len(t, client.marked, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, client.marked)
}
