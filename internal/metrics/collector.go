// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes prometheus counters/gauges for the
// acquisition pipeline's per-stage activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector groups every domain metric this daemon exports. One
// instance is built at startup and registered against a single
// registry, then handed to the scheduler, which updates
// RSSItemsIngested; the other metrics are registered but not updated
// by any stage.
type Collector struct {
	RSSItemsIngested   *prometheus.CounterVec
	RSSFetchErrors      *prometheus.CounterVec
	CandidatesMatched   *prometheus.CounterVec
	CandidatesFiltered  *prometheus.CounterVec
	GapSize             *prometheus.GaugeVec
	TorrentsAdded       *prometheus.CounterVec
	TorrentsAddFailed   *prometheus.CounterVec
	TransfersCompleted  *prometheus.CounterVec
	ReaperDeletions     *prometheus.CounterVec
	RetryTransitions    *prometheus.CounterVec
}

var siteLabels = []string{"site"}
var clientLabels = []string{"client"}
var mediaTypeLabels = []string{"media_type"}

// New builds and registers every collector metric against r.
func New(r *prometheus.Registry) *Collector {
	c := &Collector{
		RSSItemsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_rss_items_ingested_total",
			Help: "Total number of RSS items successfully parsed per site",
		}, siteLabels),
		RSSFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_rss_fetch_errors_total",
			Help: "Total number of RSS fetch/parse failures per site",
		}, siteLabels),
		CandidatesMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_candidates_matched_total",
			Help: "Total number of RSS items matched to a subscription before filtering",
		}, mediaTypeLabels),
		CandidatesFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_candidates_filtered_total",
			Help: "Total number of candidates rejected by include/exclude/size/note rules",
		}, siteLabels),
		GapSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ptarr_gap_size",
			Help: "Current number of missing episodes per media_type after a reconcile pass",
		}, mediaTypeLabels),
		TorrentsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_torrents_added_total",
			Help: "Total number of torrents successfully added to the backend",
		}, clientLabels),
		TorrentsAddFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_torrents_add_failed_total",
			Help: "Total number of torrent add attempts that failed",
		}, clientLabels),
		TransfersCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_transfers_completed_total",
			Help: "Total number of completed torrents handed to the transfer worker",
		}, clientLabels),
		ReaperDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_reaper_deletions_total",
			Help: "Total number of torrents deleted by the seeding reaper",
		}, clientLabels),
		RetryTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptarr_retry_transitions_total",
			Help: "Total number of subscription state transitions made by the retry job",
		}, []string{"from", "to"}),
	}

	r.MustRegister(
		c.RSSItemsIngested,
		c.RSSFetchErrors,
		c.CandidatesMatched,
		c.CandidatesFiltered,
		c.GapSize,
		c.TorrentsAdded,
		c.TorrentsAddFailed,
		c.TransfersCompleted,
		c.ReaperDeletions,
		c.RetryTransitions,
	)
	return c
}
