// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"
	"time"

	"github.com/ptarr/ptarr/internal/dbinterface"
)

// TorrentRecord is a persisted rss_torrents row: the dedup/history key
// for one download decision, plus transfer-completion bookkeeping.
type TorrentRecord struct {
	TitleKey         string
	SeasonEpisodeKey string
	TorrentID        string
	Enclosure        string
	AddedAt          time.Time
	Transferred      bool
}

// TorrentStore persists rss_torrents rows.
type TorrentStore struct {
	db       dbinterface.Querier
	interner *titleKeyInterner
}

// NewTorrentStore builds a TorrentStore bound to db.
func NewTorrentStore(db dbinterface.Querier) *TorrentStore {
	return &TorrentStore{db: db, interner: newTitleKeyInterner()}
}

// Exists reports whether a (title_key, season_episode_key) pair has
// already been downloaded, the RSS-history dedup check §4.3 requires.
func (s *TorrentStore) Exists(ctx context.Context, titleKey, seasonEpisodeKey string) (bool, error) {
	titleKey = s.interner.intern(titleKey)
	var n int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM rss_torrents WHERE title_key = ? AND season_episode_key = ?
	`, titleKey, seasonEpisodeKey)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Record inserts a new download decision into history.
func (s *TorrentStore) Record(ctx context.Context, titleKey, seasonEpisodeKey, torrentID, enclosure string) error {
	titleKey = s.interner.intern(titleKey)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rss_torrents (title_key, season_episode_key, torrent_id, enclosure)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(title_key, season_episode_key) DO UPDATE SET
			torrent_id = excluded.torrent_id,
			enclosure = excluded.enclosure
	`, titleKey, seasonEpisodeKey, torrentID, enclosure)
	return err
}

// ListTransferable returns history rows whose torrent has not yet been
// marked transferred.
func (s *TorrentStore) ListTransferable(ctx context.Context) ([]TorrentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title_key, season_episode_key, torrent_id, enclosure, added_at, transferred
		FROM rss_torrents WHERE transferred = 0
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TorrentRecord
	for rows.Next() {
		var r TorrentRecord
		var transferred int
		if err := rows.Scan(&r.TitleKey, &r.SeasonEpisodeKey, &r.TorrentID, &r.Enclosure, &r.AddedAt, &transferred); err != nil {
			return nil, err
		}
		r.Transferred = transferred != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkTransferred flags a history row as transferred, unconditionally
// (the transfer worker calls this even when the external transfer step
// failed — see internal/transferworker).
func (s *TorrentStore) MarkTransferred(ctx context.Context, titleKey, seasonEpisodeKey string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rss_torrents SET transferred = 1 WHERE title_key = ? AND season_episode_key = ?
	`, titleKey, seasonEpisodeKey)
	return err
}
