// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"

	"github.com/ptarr/ptarr/internal/dbinterface"
	"github.com/ptarr/ptarr/internal/domain"
)

// TVStore persists rss_tvs rows, one per (title, year, season).
type TVStore struct {
	db dbinterface.Querier
}

// NewTVStore builds a TVStore bound to db.
func NewTVStore(db dbinterface.Querier) *TVStore {
	return &TVStore{db: db}
}

// ListByState returns every TV-season subscription in the given state.
func (s *TVStore) ListByState(ctx context.Context, state domain.SubscriptionState) ([]domain.TVSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, year, season, lack, state FROM rss_tvs WHERE state = ?
	`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TVSubscription
	for rows.Next() {
		var t domain.TVSubscription
		var state string
		if err := rows.Scan(&t.Title, &t.Year, &t.Season, &t.LackCount, &state); err != nil {
			return nil, err
		}
		t.State = domain.SubscriptionState(state)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get returns the subscription row for (title, year, season).
func (s *TVStore) Get(ctx context.Context, title string, year, season int) (domain.TVSubscription, error) {
	var t domain.TVSubscription
	var state string
	row := s.db.QueryRowContext(ctx, `
		SELECT title, year, season, lack, state FROM rss_tvs WHERE title = ? AND year = ? AND season = ?
	`, title, year, season)
	if err := row.Scan(&t.Title, &t.Year, &t.Season, &t.LackCount, &state); err != nil {
		return domain.TVSubscription{}, err
	}
	t.State = domain.SubscriptionState(state)
	return t, nil
}

// Upsert inserts or updates a TV-season subscription.
func (s *TVStore) Upsert(ctx context.Context, t domain.TVSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rss_tvs (title, year, season, lack, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title, year, season) DO UPDATE SET
			lack = excluded.lack,
			state = excluded.state
	`, t.Title, t.Year, t.Season, t.LackCount, string(t.State))
	return err
}

// SetLackAndState updates the residual gap count and state for a season.
func (s *TVStore) SetLackAndState(ctx context.Context, title string, year, season, lack int, state domain.SubscriptionState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rss_tvs SET lack = ?, state = ? WHERE title = ? AND year = ? AND season = ?
	`, lack, string(state), title, year, season)
	return err
}

// Delete removes a TV-season subscription.
func (s *TVStore) Delete(ctx context.Context, title string, year, season int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rss_tvs WHERE title = ? AND year = ? AND season = ?`, title, year, season)
	return err
}
