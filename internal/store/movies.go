// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"

	"github.com/ptarr/ptarr/internal/dbinterface"
	"github.com/ptarr/ptarr/internal/domain"
)

// MovieStore persists rss_movies rows.
type MovieStore struct {
	db dbinterface.Querier
}

// NewMovieStore builds a MovieStore bound to db.
func NewMovieStore(db dbinterface.Querier) *MovieStore {
	return &MovieStore{db: db}
}

// ListByState returns every movie subscription in the given state.
func (s *MovieStore) ListByState(ctx context.Context, state domain.SubscriptionState) ([]domain.MovieSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, year, state FROM rss_movies WHERE state = ?
	`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MovieSubscription
	for rows.Next() {
		var m domain.MovieSubscription
		var state string
		if err := rows.Scan(&m.Title, &m.Year, &state); err != nil {
			return nil, err
		}
		m.State = domain.SubscriptionState(state)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns the subscription row for (title, year), or sql.ErrNoRows.
func (s *MovieStore) Get(ctx context.Context, title string, year int) (domain.MovieSubscription, error) {
	var m domain.MovieSubscription
	var state string
	row := s.db.QueryRowContext(ctx, `
		SELECT title, year, state FROM rss_movies WHERE title = ? AND year = ?
	`, title, year)
	if err := row.Scan(&m.Title, &m.Year, &state); err != nil {
		return domain.MovieSubscription{}, err
	}
	m.State = domain.SubscriptionState(state)
	return m, nil
}

// Upsert inserts or updates a movie subscription's state.
func (s *MovieStore) Upsert(ctx context.Context, m domain.MovieSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rss_movies (title, year, state, lack)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(title, year) DO UPDATE SET state = excluded.state
	`, m.Title, m.Year, string(m.State))
	return err
}

// SetState transitions an existing subscription's state.
func (s *MovieStore) SetState(ctx context.Context, title string, year int, state domain.SubscriptionState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rss_movies SET state = ? WHERE title = ? AND year = ?
	`, string(state), title, year)
	return err
}

// Delete removes a movie subscription, used once it is satisfied or retired.
func (s *MovieStore) Delete(ctx context.Context, title string, year int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rss_movies WHERE title = ? AND year = ?`, title, year)
	return err
}
