// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package planner implements the download-planning core: given a
// filtered candidate list and a working gap map, it produces a
// minimal, deterministic set of download directives. Planner is
// construction-pure — it takes no collaborators at all, only its
// inputs — satisfying the determinism property (spec §8 property 5).
package planner

import (
	"sort"

	"github.com/ptarr/ptarr/internal/domain"
)

// Directive distinguishes a full-torrent download from a per-file
// partial selection.
type Directive int

const (
	FullDownload Directive = iota
	PartialDownload
)

// Selection is one planner decision.
type Selection struct {
	Candidate domain.Candidate
	Directive Directive
	// Target is the episode set to keep, only meaningful for
	// PartialDownload; nil for FullDownload.
	Target []int
}

// Planner implements passes A-D of the download-planning algorithm.
type Planner struct{}

// New returns a ready-to-use Planner.
func New() *Planner {
	return &Planner{}
}

// Plan sorts candidates deterministically and runs passes A through D,
// returning the selections made and the gap map updated to reflect
// them. gaps is mutated in place; callers that need the pre-plan state
// should pass gaps.Clone().
func (p *Planner) Plan(candidates []domain.Candidate, gaps domain.GapMap) ([]Selection, domain.GapMap) {
	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	selected := make([]bool, len(sorted))
	var selections []Selection

	passA(sorted, selected, gaps, &selections)
	passB(sorted, selected, gaps, &selections)
	passC(sorted, selected, &selections)
	passD(sorted, selected, gaps, &selections)

	return selections, gaps
}

// less implements the pre-order: movies sort after TV/Anime, then
// descending by season-count, episode-count, site_priority, and
// resource_priority, with raw_title as the final deterministic
// tiebreak.
func less(a, b domain.Candidate) bool {
	aMovie, bMovie := a.Type == domain.Movie, b.Type == domain.Movie
	if aMovie != bMovie {
		return !aMovie
	}
	if len(a.Seasons) != len(b.Seasons) {
		return len(a.Seasons) > len(b.Seasons)
	}
	if len(a.Episodes) != len(b.Episodes) {
		return len(a.Episodes) > len(b.Episodes)
	}
	if a.SitePriority != b.SitePriority {
		return a.SitePriority > b.SitePriority
	}
	if a.ResourcePriority != b.ResourcePriority {
		return a.ResourcePriority > b.ResourcePriority
	}
	return a.RawTitle < b.RawTitle
}

// passA selects whole-season packs against seasons that are entirely
// missing (NeedSeasons), consuming those seasons exclusively.
func passA(candidates []domain.Candidate, selected []bool, gaps domain.GapMap, out *[]Selection) {
	needSeasons := make(map[string]map[int]bool)
	for key, entries := range gaps {
		for _, e := range entries {
			if e.WholeSeason() {
				if needSeasons[key] == nil {
					needSeasons[key] = make(map[int]bool)
				}
				needSeasons[key][e.Season] = true
			}
		}
	}

	for i, c := range candidates {
		if selected[i] || c.Type == domain.Movie || len(c.Episodes) != 0 {
			continue
		}
		key := c.TitleKey()
		need := needSeasons[key]
		if need == nil || len(c.Seasons) == 0 {
			continue
		}
		allNeeded := true
		for _, s := range c.Seasons {
			if !need[s] {
				allNeeded = false
				break
			}
		}
		if !allNeeded {
			continue
		}

		selected[i] = true
		*out = append(*out, Selection{Candidate: c, Directive: FullDownload})
		for _, s := range c.Seasons {
			removeSeason(gaps, key, s)
			delete(need, s)
		}
	}
}

// passB selects per-episode packs against the remaining gap entries, a
// snapshot of (title_key, season) pairs taken once at the pass start;
// each step re-reads the live entry by key so entries shrunk earlier
// in the pass are visible to later candidates without risking skipped
// entries from live-slice mutation.
func passB(candidates []domain.Candidate, selected []bool, gaps domain.GapMap, out *[]Selection) {
	type seasonKey struct {
		titleKey string
		season   int
	}
	var keys []string
	for key := range gaps {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var order []seasonKey
	for _, key := range keys {
		for _, e := range gaps[key] {
			order = append(order, seasonKey{titleKey: key, season: e.Season})
		}
	}

	for _, sk := range order {
		entries := gaps[sk.titleKey]
		idx := findSeason(entries, sk.season)
		if idx < 0 {
			continue
		}
		effective := entries[idx].EffectiveEpisodes()

		for i, c := range candidates {
			if selected[i] || c.Type == domain.Movie || len(c.Seasons) != 1 || len(c.Episodes) == 0 {
				continue
			}
			if c.TitleKey() != sk.titleKey || c.Seasons[0] != sk.season {
				continue
			}
			if !subset(c.Episodes, effective) {
				continue
			}

			selected[i] = true
			*out = append(*out, Selection{Candidate: c, Directive: FullDownload})
			effective = subtract(effective, c.Episodes)
		}

		entries = gaps[sk.titleKey]
		idx = findSeason(entries, sk.season)
		if idx < 0 {
			continue
		}
		if len(effective) == 0 {
			gaps[sk.titleKey] = append(entries[:idx:idx], entries[idx+1:]...)
		} else {
			entries[idx].Episodes = effective
		}
		if len(gaps[sk.titleKey]) == 0 {
			delete(gaps, sk.titleKey)
		}
	}
}

// passC selects every remaining movie candidate unconditionally;
// filtering already happened in internal/gapreconciler.
func passC(candidates []domain.Candidate, selected []bool, out *[]Selection) {
	for i, c := range candidates {
		if selected[i] || c.Type != domain.Movie {
			continue
		}
		selected[i] = true
		*out = append(*out, Selection{Candidate: c, Directive: FullDownload})
	}
}

// passD covers remaining gap entries with a single unselected
// whole-season pack each, via per-file selection. The planner has no
// visibility into which files a torrent actually contains (that is an
// I/O-bound query the downloaddriver makes); this pass closes the gap
// entry on selection. The driver does not report back which episodes
// its file selection covered, so the returned gap map is not adjusted
// for episodes the torrent turns out not to contain; those are found
// missing again by the library probe on the next rssdownload cycle.
func passD(candidates []domain.Candidate, selected []bool, gaps domain.GapMap, out *[]Selection) {
	var order []string
	for key := range gaps {
		order = append(order, key)
	}
	sort.Strings(order)

	for _, key := range order {
		entries := gaps[key]
		for idx := 0; idx < len(entries); idx++ {
			e := entries[idx]
			if len(e.Episodes) == 0 {
				continue
			}

			target := append([]int(nil), e.Episodes...)
			for i, c := range candidates {
				if selected[i] || c.Type == domain.Movie {
					continue
				}
				if c.TitleKey() != key || len(c.Seasons) != 1 || c.Seasons[0] != e.Season || len(c.Episodes) != 0 {
					continue
				}

				selected[i] = true
				*out = append(*out, Selection{Candidate: c, Directive: PartialDownload, Target: target})
				entries[idx].Episodes = nil
				break
			}
		}

		filtered := make([]domain.GapEntry, 0, len(entries))
		for _, e := range entries {
			if len(e.Episodes) > 0 {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(gaps, key)
		} else {
			gaps[key] = filtered
		}
	}
}

func removeSeason(gaps domain.GapMap, key string, season int) {
	entries := gaps[key]
	idx := findSeason(entries, season)
	if idx < 0 {
		return
	}
	entries = append(entries[:idx:idx], entries[idx+1:]...)
	if len(entries) == 0 {
		delete(gaps, key)
	} else {
		gaps[key] = entries
	}
}

func findSeason(entries []domain.GapEntry, season int) int {
	for i, e := range entries {
		if e.Season == season {
			return i
		}
	}
	return -1
}

func subset(a, b []int) bool {
	set := make(map[int]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func subtract(a, b []int) []int {
	remove := make(map[int]struct{}, len(b))
	for _, v := range b {
		remove[v] = struct{}{}
	}
	var out []int
	for _, v := range a {
		if _, ok := remove[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
