// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scheduler ties the independent periodic jobs together —
// rssdownload, pt_transfer, pt_removetorrents, and the retry-search
// path — mirroring the teacher's automations.Service ticker-loop shape
// (spec §5: each job owns disjoint state, runs on its own ticker).
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/downloaddriver"
	"github.com/ptarr/ptarr/internal/gapreconciler"
	"github.com/ptarr/ptarr/internal/metrics"
	"github.com/ptarr/ptarr/internal/planner"
	"github.com/ptarr/ptarr/internal/rssingest"
	"github.com/ptarr/ptarr/internal/rssretry"
	"github.com/ptarr/ptarr/internal/seedingreaper"
	"github.com/ptarr/ptarr/internal/statsreporter"
	"github.com/ptarr/ptarr/internal/store"
	"github.com/ptarr/ptarr/internal/transferworker"
)

// Service owns every periodic job and the collaborators the
// rssdownload job needs on each tick.
type Service struct {
	log zerolog.Logger

	sites   *store.SiteStore
	movies  *store.MovieStore
	tvs     *store.TVStore
	history *store.TorrentStore

	ingester    *rssingest.Ingester
	reconciler  *gapreconciler.Reconciler
	planner     *planner.Planner
	driver      *downloaddriver.Driver
	transfer    *transferworker.Worker
	reaper      *seedingreaper.Reaper
	reporter    *statsreporter.Reporter
	retrier     *rssretry.Retrier
	metrics     *metrics.Collector

	rssInterval    time.Duration
	transferInterval time.Duration
	reapInterval   time.Duration
	retryInterval  time.Duration
}

// Config bundles the collaborators and intervals a Service needs.
type Config struct {
	Log zerolog.Logger

	Sites   *store.SiteStore
	Movies  *store.MovieStore
	TVs     *store.TVStore
	History *store.TorrentStore

	Ingester   *rssingest.Ingester
	Reconciler *gapreconciler.Reconciler
	Planner    *planner.Planner
	Driver     *downloaddriver.Driver
	Transfer   *transferworker.Worker
	Reaper     *seedingreaper.Reaper
	Reporter   *statsreporter.Reporter
	Metrics    *metrics.Collector

	RSSInterval      time.Duration
	TransferInterval time.Duration
	ReapInterval     time.Duration
	RetryInterval    time.Duration
}

// New builds a Service from cfg. The retry job's Searcher is built
// internally (pipelineSearcher) since it needs to call back into this
// same Service's ingest/reconcile/plan/drive collaborators.
func New(cfg Config) *Service {
	svc := &Service{
		log:              cfg.Log,
		sites:            cfg.Sites,
		movies:           cfg.Movies,
		tvs:              cfg.TVs,
		history:          cfg.History,
		ingester:         cfg.Ingester,
		reconciler:       cfg.Reconciler,
		planner:          cfg.Planner,
		driver:           cfg.Driver,
		transfer:         cfg.Transfer,
		reaper:           cfg.Reaper,
		reporter:         cfg.Reporter,
		metrics:          cfg.Metrics,
		rssInterval:      cfg.RSSInterval,
		transferInterval: cfg.TransferInterval,
		reapInterval:     cfg.ReapInterval,
		retryInterval:    cfg.RetryInterval,
	}
	svc.retrier = rssretry.New(cfg.Movies, cfg.TVs, newPipelineSearcher(svc), cfg.Log)
	return svc
}

// fetchSites loads the enabled site list and runs one RSS ingest pass,
// shared by the bulk rssdownload job and the single-subscription retry
// searcher.
func (s *Service) fetchSites(ctx context.Context) ([]gapreconciler.RawItem, map[string]gapreconciler.SiteRule, error) {
	sites, err := s.sites.ListEnabled(ctx)
	if err != nil {
		return nil, nil, err
	}

	siteCfgs := make([]rssingest.SiteConfig, 0, len(sites))
	for _, site := range sites {
		siteCfgs = append(siteCfgs, rssingest.SiteConfig{
			Name:         site.Name,
			URL:          site.URL,
			IncludeRules: splitRules(site.IncludeRules),
			ExcludeRules: splitRules(site.ExcludeRules),
			MinSize:      minSize(site.SizeRule),
			MaxSize:      maxSize(site.SizeRule),
			Enabled:      site.Enabled,
		})
	}

	items, rules := s.ingester.Ingest(ctx, siteCfgs)
	return items, rules, nil
}

// Run starts every job's goroutine and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	go s.runRSSDownload(ctx)
	go s.transfer.Run(ctx, s.transferInterval)
	go s.reaper.Run(ctx, s.reapInterval)
	go s.reporter.Run(ctx, s.rssInterval)
	go s.runRetry(ctx)

	<-ctx.Done()
}

func (s *Service) runRSSDownload(ctx context.Context) {
	ticker := time.NewTicker(s.rssInterval)
	defer ticker.Stop()
	s.rssDownloadTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rssDownloadTick(ctx)
		}
	}
}

func (s *Service) runRetry(ctx context.Context) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.retrier.Run(ctx)
		}
	}
}

// rssDownloadTick runs one full RSSIngest -> GapReconciler ->
// DownloadPlanner -> DownloadDriver pass, then persists subscription
// retirements and residual gap counts.
func (s *Service) rssDownloadTick(ctx context.Context) {
	items, rules, err := s.fetchSites(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("[SCHEDULER] list sites failed")
		return
	}
	if s.metrics != nil {
		for _, item := range items {
			s.metrics.RSSItemsIngested.WithLabelValues(item.Site).Inc()
		}
	}

	movies, err := s.movies.ListByState(ctx, domain.StateReady)
	if err != nil {
		s.log.Warn().Err(err).Msg("[SCHEDULER] list movies failed")
	}
	tvs, err := s.tvs.ListByState(ctx, domain.StateReady)
	if err != nil {
		s.log.Warn().Err(err).Msg("[SCHEDULER] list tv subscriptions failed")
	}

	gaps := make(domain.GapMap)
	result := s.reconciler.Reconcile(ctx, items, rules, movies, tvs, s.history, gaps)

	selections, updatedGaps := s.planner.Plan(result.Candidates, result.Gaps)
	s.driver.Drive(ctx, selections)

	for _, m := range result.RetiredMovies {
		_ = s.movies.Delete(ctx, m.Title, m.Year)
	}
	for _, t := range result.RetiredTVs {
		_ = s.tvs.Delete(ctx, t.Title, t.Year, t.Season)
	}
	for _, t := range tvs {
		if isRetired(result.RetiredTVs, t) {
			continue
		}
		lack := residualLack(updatedGaps, t)
		_ = s.tvs.SetLackAndState(ctx, t.Title, t.Year, t.Season, lack, domain.StateReady)
	}
}

func isRetired(retired []domain.TVSubscription, t domain.TVSubscription) bool {
	for _, r := range retired {
		if r.Title == t.Title && r.Year == t.Year && r.Season == t.Season {
			return true
		}
	}
	return false
}

func residualLack(gaps domain.GapMap, t domain.TVSubscription) int {
	for _, e := range gaps[domain.TitleKey(t.Title, t.Year)] {
		if e.Season == t.Season {
			if e.WholeSeason() {
				return e.TotalEpisodes
			}
			return len(e.Episodes)
		}
	}
	return 0
}

func splitRules(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// minSize/maxSize parse a "min-max" byte-range size_rule string (spec
// §6 pt.sites[].size_rule), e.g. "104857600-5368709120". Either bound
// may be omitted; an unparseable rule disables size filtering.
func minSize(rule string) int64 {
	lo, _ := splitSizeRule(rule)
	return lo
}

func maxSize(rule string) int64 {
	_, hi := splitSizeRule(rule)
	return hi
}

func splitSizeRule(rule string) (lo, hi int64) {
	parts := strings.SplitN(rule, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	lo, _ = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	hi, _ = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	return lo, hi
}
