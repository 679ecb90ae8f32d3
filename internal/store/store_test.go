// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/ptarr/ptarr/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := NewForTest(conn)
	require.NoError(t, err)
	return db
}

func TestSiteStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sites := NewSiteStore(db.Conn())

	require.NoError(t, sites.Upsert(ctx, Site{SortOrder: 2, Name: "b", URL: "https://b", Enabled: true}))
	require.NoError(t, sites.Upsert(ctx, Site{SortOrder: 1, Name: "a", URL: "https://a", Enabled: true}))
	require.NoError(t, sites.Upsert(ctx, Site{SortOrder: 0, Name: "c", URL: "https://c", Enabled: false}))

	list, err := sites.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}

func TestMovieStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	movies := NewMovieStore(db.Conn())

	m := domain.MovieSubscription{Title: "Dune", Year: 2021, State: domain.StatePendingResearch}
	require.NoError(t, movies.Upsert(ctx, m))

	got, err := movies.Get(ctx, "Dune", 2021)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingResearch, got.State)

	require.NoError(t, movies.SetState(ctx, "Dune", 2021, domain.StateSearching))
	got, err = movies.Get(ctx, "Dune", 2021)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSearching, got.State)

	pending, err := movies.ListByState(ctx, domain.StatePendingResearch)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, movies.Delete(ctx, "Dune", 2021))
	_, err = movies.Get(ctx, "Dune", 2021)
	assert.Error(t, err)
}

func TestTVStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tvs := NewTVStore(db.Conn())

	t1 := domain.TVSubscription{Title: "Severance", Year: 2022, Season: 2, LackCount: 5, State: domain.StateReady}
	require.NoError(t, tvs.Upsert(ctx, t1))

	require.NoError(t, tvs.SetLackAndState(ctx, "Severance", 2022, 2, 3, domain.StateReady))
	got, err := tvs.Get(ctx, "Severance", 2022, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got.LackCount)

	ready, err := tvs.ListByState(ctx, domain.StateReady)
	require.NoError(t, err)
	require.Len(t, ready, 1)
}

func TestTorrentStoreDedup(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	torrents := NewTorrentStore(db.Conn())

	exists, err := torrents.Exists(ctx, "dune:2021", "S01")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, torrents.Record(ctx, "dune:2021", "S01", "abc123", "https://example/abc.torrent"))

	exists, err = torrents.Exists(ctx, "dune:2021", "S01")
	require.NoError(t, err)
	assert.True(t, exists)

	transferable, err := torrents.ListTransferable(ctx)
	require.NoError(t, err)
	require.Len(t, transferable, 1)

	require.NoError(t, torrents.MarkTransferred(ctx, "dune:2021", "S01"))
	transferable, err = torrents.ListTransferable(ctx)
	require.NoError(t, err)
	assert.Empty(t, transferable)
}

func TestRSSRuleStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rules := NewRSSRuleStore(db.Conn())

	id, err := rules.Add(ctx, `Size > 0`)
	require.NoError(t, err)

	notes, err := rules.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	require.NoError(t, rules.Delete(ctx, id))
	notes, err = rules.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
