// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rssretry implements the D -> S -> {R, deleted} subscription
// retry state machine (spec §4.8): subscriptions whose initial RSS
// pass found nothing get a second, single-item search pass.
package rssretry

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
)

// Outcome is the result of a single-subscription search.
type Outcome int

const (
	// OutcomeResolvedNoGap means the item was found, downloaded, and
	// no residual gap remains.
	OutcomeResolvedNoGap Outcome = iota
	// OutcomeNoMediaInfo means the searcher could not resolve any
	// media info for this subscription.
	OutcomeNoMediaInfo
	// OutcomeResidual means a gap remains after searching.
	OutcomeResidual
)

// SearchResult is what Searcher reports back for one subscription.
type SearchResult struct {
	Outcome        Outcome
	ResidualLack   int // for TV: residual missing-episode count for the matching season
}

// Searcher runs a single-item RSS ingest + GapReconciler + DownloadPlanner
// pass for exactly one subscription — the same pipeline components
// used by the bulk rssdownload job, just scoped to one title.
type Searcher interface {
	SearchMovie(ctx context.Context, sub domain.MovieSubscription) (SearchResult, error)
	SearchTV(ctx context.Context, sub domain.TVSubscription) (SearchResult, error)
}

// MovieStore and TVStore are the minimal persistence operations the
// retry job needs; internal/store's concrete stores satisfy these.
type MovieStore interface {
	ListByState(ctx context.Context, state domain.SubscriptionState) ([]domain.MovieSubscription, error)
	SetState(ctx context.Context, title string, year int, state domain.SubscriptionState) error
	Delete(ctx context.Context, title string, year int) error
}

type TVStore interface {
	ListByState(ctx context.Context, state domain.SubscriptionState) ([]domain.TVSubscription, error)
	SetLackAndState(ctx context.Context, title string, year, season, lack int, state domain.SubscriptionState) error
	Delete(ctx context.Context, title string, year, season int) error
}

// Retrier runs one retry pass over every subscription in state D.
type Retrier struct {
	movies   MovieStore
	tvs      TVStore
	searcher Searcher
	log      zerolog.Logger
}

// New builds a Retrier.
func New(movies MovieStore, tvs TVStore, searcher Searcher, log zerolog.Logger) *Retrier {
	return &Retrier{movies: movies, tvs: tvs, searcher: searcher, log: log}
}

// Run processes every subscription currently in StatePendingResearch.
func (r *Retrier) Run(ctx context.Context) {
	r.runMovies(ctx)
	r.runTVs(ctx)
}

func (r *Retrier) runMovies(ctx context.Context) {
	pending, err := r.movies.ListByState(ctx, domain.StatePendingResearch)
	if err != nil {
		r.log.Warn().Err(err).Msg("[RETRY] list pending movies failed")
		return
	}
	for _, sub := range pending {
		if err := r.movies.SetState(ctx, sub.Title, sub.Year, domain.StateSearching); err != nil {
			r.log.Warn().Err(err).Str("title", sub.Title).Msg("[RETRY] transition to searching failed")
			continue
		}

		result, err := r.searcher.SearchMovie(ctx, sub)
		if err != nil {
			r.log.Warn().Err(err).Str("title", sub.Title).Msg("[RETRY] movie search failed")
			_ = r.movies.SetState(ctx, sub.Title, sub.Year, domain.StatePendingResearch)
			continue
		}

		switch result.Outcome {
		case OutcomeResolvedNoGap:
			_ = r.movies.Delete(ctx, sub.Title, sub.Year)
		case OutcomeNoMediaInfo:
			_ = r.movies.SetState(ctx, sub.Title, sub.Year, domain.StatePendingResearch)
		default:
			_ = r.movies.SetState(ctx, sub.Title, sub.Year, domain.StateReady)
		}
	}
}

func (r *Retrier) runTVs(ctx context.Context) {
	pending, err := r.tvs.ListByState(ctx, domain.StatePendingResearch)
	if err != nil {
		r.log.Warn().Err(err).Msg("[RETRY] list pending tv failed")
		return
	}
	for _, sub := range pending {
		if err := r.tvs.SetLackAndState(ctx, sub.Title, sub.Year, sub.Season, sub.LackCount, domain.StateSearching); err != nil {
			r.log.Warn().Err(err).Str("title", sub.Title).Msg("[RETRY] transition to searching failed")
			continue
		}

		result, err := r.searcher.SearchTV(ctx, sub)
		if err != nil {
			r.log.Warn().Err(err).Str("title", sub.Title).Msg("[RETRY] tv search failed")
			_ = r.tvs.SetLackAndState(ctx, sub.Title, sub.Year, sub.Season, sub.LackCount, domain.StatePendingResearch)
			continue
		}

		switch result.Outcome {
		case OutcomeResolvedNoGap:
			_ = r.tvs.Delete(ctx, sub.Title, sub.Year, sub.Season)
		case OutcomeNoMediaInfo:
			_ = r.tvs.SetLackAndState(ctx, sub.Title, sub.Year, sub.Season, sub.LackCount, domain.StatePendingResearch)
		default:
			_ = r.tvs.SetLackAndState(ctx, sub.Title, sub.Year, sub.Season, result.ResidualLack, domain.StateReady)
		}
	}
}
