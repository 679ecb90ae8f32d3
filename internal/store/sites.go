// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"

	"github.com/ptarr/ptarr/internal/dbinterface"
)

// Site is a persisted row of the sites table: one configured RSS feed
// plus its filter rules, in ingest priority order.
type Site struct {
	ID           int
	SortOrder    int
	Name         string
	URL          string
	IncludeRules string
	ExcludeRules string
	SizeRule     string
	Enabled      bool
}

// SiteStore persists Site rows.
type SiteStore struct {
	db dbinterface.Querier
}

// NewSiteStore builds a SiteStore bound to db (a *sql.DB or *sql.Tx).
func NewSiteStore(db dbinterface.Querier) *SiteStore {
	return &SiteStore{db: db}
}

// ListEnabled returns enabled sites ordered by sort_order, the order
// RSSIngest must process them in to assign deterministic priorities.
func (s *SiteStore) ListEnabled(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sort_order, name, url, include_rules, exclude_rules, size_rule, enabled
		FROM sites
		WHERE enabled = 1
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		var site Site
		var enabled int
		if err := rows.Scan(&site.ID, &site.SortOrder, &site.Name, &site.URL,
			&site.IncludeRules, &site.ExcludeRules, &site.SizeRule, &enabled); err != nil {
			return nil, err
		}
		site.Enabled = enabled != 0
		out = append(out, site)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a site identified by name.
func (s *SiteStore) Upsert(ctx context.Context, site Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (sort_order, name, url, include_rules, exclude_rules, size_rule, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			sort_order = excluded.sort_order,
			url = excluded.url,
			include_rules = excluded.include_rules,
			exclude_rules = excluded.exclude_rules,
			size_rule = excluded.size_rule,
			enabled = excluded.enabled
	`, site.SortOrder, site.Name, site.URL, site.IncludeRules, site.ExcludeRules, site.SizeRule, boolToInt(site.Enabled))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
