// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scheduler

import (
	"context"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/rssretry"
)

// pipelineSearcher implements rssretry.Searcher by re-running the same
// RSSIngest -> GapReconciler -> DownloadPlanner -> DownloadDriver
// pipeline the bulk rssdownload job uses, scoped to a single
// subscription (spec §4.8: "the same pipeline components ... just
// scoped to one title").
type pipelineSearcher struct {
	svc *Service
}

func newPipelineSearcher(svc *Service) *pipelineSearcher {
	return &pipelineSearcher{svc: svc}
}

func (s *pipelineSearcher) SearchMovie(ctx context.Context, sub domain.MovieSubscription) (rssretry.SearchResult, error) {
	items, siteCfgs, err := s.svc.fetchSites(ctx)
	if err != nil {
		return rssretry.SearchResult{}, err
	}

	result := s.svc.reconciler.Reconcile(ctx, items, siteCfgs, []domain.MovieSubscription{sub}, nil, s.svc.history, domain.GapMap{})
	if len(result.Candidates) == 0 {
		return rssretry.SearchResult{Outcome: rssretry.OutcomeNoMediaInfo}, nil
	}

	selections, _ := s.svc.planner.Plan(result.Candidates, result.Gaps)
	s.svc.driver.Drive(ctx, selections)
	return rssretry.SearchResult{Outcome: rssretry.OutcomeResolvedNoGap}, nil
}

func (s *pipelineSearcher) SearchTV(ctx context.Context, sub domain.TVSubscription) (rssretry.SearchResult, error) {
	items, siteCfgs, err := s.svc.fetchSites(ctx)
	if err != nil {
		return rssretry.SearchResult{}, err
	}

	gaps := domain.GapMap{}
	result := s.svc.reconciler.Reconcile(ctx, items, siteCfgs, nil, []domain.TVSubscription{sub}, s.svc.history, gaps)
	if len(result.Candidates) == 0 {
		return rssretry.SearchResult{Outcome: rssretry.OutcomeNoMediaInfo}, nil
	}

	selections, updatedGaps := s.svc.planner.Plan(result.Candidates, result.Gaps)
	s.svc.driver.Drive(ctx, selections)

	residual := residualLack(updatedGaps, sub)
	if residual == 0 {
		return rssretry.SearchResult{Outcome: rssretry.OutcomeResolvedNoGap}, nil
	}
	return rssretry.SearchResult{Outcome: rssretry.OutcomeResidual, ResidualLack: residual}, nil
}
