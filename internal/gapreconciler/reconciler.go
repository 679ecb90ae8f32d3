// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package gapreconciler implements the subscription-matching,
// filtering, and library-existence steps that turn raw RSS items into
// a filtered candidate list plus an updated gap map, ready for
// internal/planner.
package gapreconciler

import (
	"context"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/libraryprobe"
	"github.com/ptarr/ptarr/internal/mediaresolver"
)

// RawItem is one parsed RSS entry, annotated with its site of origin
// per internal/rssingest.
type RawItem struct {
	RawTitle     string
	Enclosure    string
	Size         int64
	Description  string
	Site         string
	SitePriority int
}

// SiteRule is one site's filter rule set (spec §4.2/§6).
type SiteRule struct {
	Include []string
	Exclude []string
	MinSize int64
	MaxSize int64
	Notes   []string
}

// History is the RSSHistory dedup collaborator.
type History interface {
	Exists(ctx context.Context, titleKey, seasonEpisodeKey string) (bool, error)
	Record(ctx context.Context, titleKey, seasonEpisodeKey, torrentID, enclosure string) error
}

// Result is the output of one Reconcile call.
type Result struct {
	Candidates    []domain.Candidate
	Gaps          domain.GapMap
	RetiredMovies []domain.MovieSubscription
	RetiredTVs    []domain.TVSubscription
}

// Reconciler holds the construction-pure collaborators steps 1-7
// depend on (§9 design note: no global singletons).
type Reconciler struct {
	resolver mediaresolver.Resolver
	probe    libraryprobe.Probe
	log      zerolog.Logger
}

// New builds a Reconciler.
func New(resolver mediaresolver.Resolver, probe libraryprobe.Probe, log zerolog.Logger) *Reconciler {
	return &Reconciler{resolver: resolver, probe: probe, log: log}
}

// Reconcile runs steps 1-7 of the gap-reconciliation algorithm over
// items, against the given subscription lists, history, and an
// incoming gap map (mutated in place across candidates per §4.3/§9).
func (r *Reconciler) Reconcile(
	ctx context.Context,
	items []RawItem,
	rules map[string]SiteRule,
	movies []domain.MovieSubscription,
	tvs []domain.TVSubscription,
	history History,
	gaps domain.GapMap,
) Result {
	res := Result{Gaps: gaps}
	retiredMovie := make(map[string]bool)
	retiredTVKey := make(map[string]bool) // title_key + season

	for _, item := range items {
		info, err := r.resolver.Resolve(ctx, item.RawTitle)
		if err != nil {
			r.log.Debug().Str("title", item.RawTitle).Err(err).Msg("[GAP] metadata miss, dropping candidate")
			continue
		}

		titleKey := domain.TitleKey(info.Title, info.Year)
		seasonEpKey := domain.SeasonEpisodeKey(singleSeason(info.Seasons), info.Episodes)

		if exists, err := history.Exists(ctx, titleKey, seasonEpKey); err == nil && exists {
			continue
		}

		rule := rules[item.Site]
		if !matchesFilter(item.RawTitle, item.Description, item.Size, item.Site, rule) {
			continue
		}
		if info.Type == domain.Movie && !withinSize(item.Size, rule) {
			continue
		}
		resourcePriority := includeRank(item.RawTitle, item.Description, rule.Include)

		switch info.Type {
		case domain.Movie:
			sub, ok := matchMovie(movies, info.Title, info.Year)
			if !ok {
				continue
			}
			present, err := r.probe.MoviePresent(ctx, sub.Title, sub.Year)
			if err != nil {
				r.log.Warn().Err(err).Str("title", sub.Title).Msg("[GAP] library probe failed")
				continue
			}
			if present {
				retiredMovie[domain.TitleKey(sub.Title, sub.Year)] = true
				continue
			}

			res.Candidates = append(res.Candidates, newCandidate(domain.Movie, info, item, resourcePriority))
			_ = history.Record(ctx, titleKey, seasonEpKey, "", item.Enclosure)

		default: // TV, Anime
			matched := matchTVSeasons(tvs, info.Title, info.Year, info.Seasons)
			if len(matched) == 0 {
				continue
			}

			alreadyHave := false
			for _, sub := range matched {
				total := info.TotalEpisodes
				missing, err := r.probe.MissingEpisodes(ctx, sub.Title, sub.Year, sub.Season, total)
				if err != nil {
					r.log.Warn().Err(err).Str("title", sub.Title).Msg("[GAP] library probe failed")
					continue
				}
				updateGap(gaps, domain.TitleKey(sub.Title, sub.Year), sub.Season, missing, total)

				requested := info.Episodes
				if len(requested) == 0 {
					requested = allEpisodes(total)
				}
				if intersect(requested, missing) == nil {
					// already have every episode this candidate offers for this season
					retireIfEmpty(gaps, domain.TitleKey(sub.Title, sub.Year), sub.Season, retiredTVKey)
					alreadyHave = true
					break // §9: return_flag short-circuit, matches original check_exists_medias
				}
			}
			if alreadyHave {
				continue
			}

			res.Candidates = append(res.Candidates, newCandidate(info.Type, info, item, resourcePriority))
			_ = history.Record(ctx, titleKey, seasonEpKey, "", item.Enclosure)
		}
	}

	for _, m := range movies {
		if retiredMovie[domain.TitleKey(m.Title, m.Year)] {
			res.RetiredMovies = append(res.RetiredMovies, m)
		}
	}
	for _, t := range tvs {
		key := domain.TitleKey(t.Title, t.Year)
		if gaps.IsEmpty(key) || allSeasonsClosed(gaps, key, t.Season) {
			res.RetiredTVs = append(res.RetiredTVs, t)
		}
	}
	return res
}

func newCandidate(typ domain.MediaType, info *mediaresolver.Info, item RawItem, resourcePriority int) domain.Candidate {
	return domain.Candidate{
		MediaItem:        domain.NewMediaItem(typ, info.Title, info.Year, info.Seasons, info.Episodes, info.Tags),
		Enclosure:        item.Enclosure,
		Size:             item.Size,
		Site:             item.Site,
		SitePriority:     item.SitePriority,
		ResourcePriority: resourcePriority,
		RawTitle:         item.RawTitle,
		Description:      item.Description,
	}
}

func singleSeason(seasons []int) int {
	if len(seasons) != 1 {
		return 0
	}
	return seasons[0]
}

func matchesFilter(title, description string, size int64, site string, rule SiteRule) bool {
	text := title + " " + description
	if len(rule.Exclude) > 0 {
		for _, pattern := range rule.Exclude {
			if re, err := regexp.Compile(pattern); err == nil && re.MatchString(text) {
				return false
			}
		}
	}
	if len(rule.Include) > 0 {
		matched := false
		for _, pattern := range rule.Include {
			if re, err := regexp.Compile(pattern); err == nil && re.MatchString(text) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, note := range rule.Notes {
		env := map[string]any{"Title": title, "Description": description, "Size": size, "Site": site}
		program, err := expr.Compile(note, expr.Env(env))
		if err != nil {
			continue
		}
		out, err := expr.Run(program, env)
		if err != nil {
			continue
		}
		if ok, isBool := out.(bool); isBool && !ok {
			return false
		}
	}
	return true
}

func withinSize(size int64, rule SiteRule) bool {
	if rule.MinSize > 0 && size < rule.MinSize {
		return false
	}
	if rule.MaxSize > 0 && size > rule.MaxSize {
		return false
	}
	return true
}

func includeRank(title, description string, includes []string) int {
	text := title + " " + description
	for i, pattern := range includes {
		if re, err := regexp.Compile(pattern); err == nil && re.MatchString(text) {
			return i
		}
	}
	return 99
}

func matchMovie(movies []domain.MovieSubscription, title string, year int) (domain.MovieSubscription, bool) {
	for _, m := range movies {
		if m.Year == year && (equalFold(m.Title, title) || fuzzy.Match(m.Title, title)) {
			return m, true
		}
	}
	return domain.MovieSubscription{}, false
}

func matchTVSeasons(tvs []domain.TVSubscription, title string, year int, seasons []int) []domain.TVSubscription {
	var out []domain.TVSubscription
	for _, t := range tvs {
		if year != 0 && t.Year != 0 && t.Year != year {
			continue
		}
		if !(equalFold(t.Title, title) || fuzzy.Match(t.Title, title)) {
			continue
		}
		for _, s := range seasons {
			if s == t.Season {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func allEpisodes(total int) []int {
	if total <= 0 {
		return nil
	}
	out := make([]int, total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func intersect(a, b []int) []int {
	set := make(map[int]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []int
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func updateGap(gaps domain.GapMap, titleKey string, season int, missing []int, total int) {
	entries := gaps[titleKey]
	for i, e := range entries {
		if e.Season == season {
			entries[i].Episodes = missing
			entries[i].TotalEpisodes = total
			gaps[titleKey] = entries
			return
		}
	}
	gaps[titleKey] = append(entries, domain.GapEntry{Season: season, Episodes: missing, TotalEpisodes: total})
}

func retireIfEmpty(gaps domain.GapMap, titleKey string, season int, retired map[string]bool) {
	entries := gaps[titleKey]
	for _, e := range entries {
		if e.Season == season && len(e.Episodes) == 0 {
			retired[titleKey] = true
		}
	}
}

func allSeasonsClosed(gaps domain.GapMap, titleKey string, season int) bool {
	entries := gaps[titleKey]
	for _, e := range entries {
		if e.Season == season {
			return len(e.Episodes) == 0
		}
	}
	return false
}
