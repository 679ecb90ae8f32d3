// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"

	"github.com/ptarr/ptarr/internal/dbinterface"
)

// RSSRuleStore persists the global free-form note rules layered onto
// every site's own include/exclude/size rules.
type RSSRuleStore struct {
	db dbinterface.Querier
}

// NewRSSRuleStore builds an RSSRuleStore bound to db.
func NewRSSRuleStore(db dbinterface.Querier) *RSSRuleStore {
	return &RSSRuleStore{db: db}
}

// ListNotes returns every configured note rule expression.
func (s *RSSRuleStore) ListNotes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT note FROM rss_rule WHERE note != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var note string
		if err := rows.Scan(&note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Add inserts a new note rule and returns its id.
func (s *RSSRuleStore) Add(ctx context.Context, note string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO rss_rule (note) VALUES (?)`, note)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Delete removes a note rule by id.
func (s *RSSRuleStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rss_rule WHERE id = ?`, id)
	return err
}
