// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package titleparse wraps moistari/rls to turn raw release names into
// structured title/season/episode/quality data, for both RSS item
// titles (candidate resolution) and file names inside a multi-file
// torrent (per-file episode selection).
package titleparse

import (
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/moistari/rls"
)

// Release is the subset of rls.Release fields the pipeline consumes.
// Series and Episode mirror rls.Release: both are scalar, since rls
// parses a release name down to a single season/episode number, never
// a slice.
type Release struct {
	Type    string
	Title   string
	Year    int
	Series  int
	Episode int
	// Episodes is the full set of episode numbers this release name
	// covers. For a plain single-episode release it's just {Episode};
	// for a whole-season pack (Episode == 0) it's empty; for a
	// multi-episode file or pack (e.g. "S02E05E06" or "S02E05-E06"),
	// which rls itself cannot express, it's recovered by regex against
	// the raw name.
	Episodes   []int
	Resolution string
	Source     string
	Codec      []string
	Audio      []string
	HDR        []string
	Group      string
	Container  string
}

// Parser parses release names with a small in-memory cache, since the
// same torrent title is frequently re-parsed across an RSS cycle (once
// per filter rule, once per gap match).
type Parser struct {
	mu    sync.Mutex
	cache map[string]Release
}

// NewParser returns a ready-to-use Parser.
func NewParser() *Parser {
	return &Parser{cache: make(map[string]Release)}
}

// Parse parses a single release name.
func (p *Parser) Parse(name string) Release {
	p.mu.Lock()
	if r, ok := p.cache[name]; ok {
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()

	rel := rls.ParseString(name)
	out := Release{
		Type:       rel.Type.String(),
		Title:      rel.Title,
		Year:       rel.Year,
		Series:     rel.Series,
		Episode:    rel.Episode,
		Episodes:   extractEpisodeSet(name, rel.Episode),
		Resolution: rel.Resolution,
		Source:     rel.Source,
		Codec:      append([]string(nil), rel.Codec...),
		Audio:      append([]string(nil), rel.Audio...),
		HDR:        append([]string(nil), rel.HDR...),
		Group:      rel.Group,
		Container:  rel.Container,
	}

	p.mu.Lock()
	p.cache[name] = out
	p.mu.Unlock()
	return out
}

// ParseAll parses a batch of names, skipping empties.
func (p *Parser) ParseAll(names []string) []Release {
	out := make([]Release, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		out = append(out, p.Parse(n))
	}
	return out
}

// ExtractEpisode parses a file name (as found inside a multi-file
// torrent) and returns its season/episode numbers, or ok=false if rls
// found no episode number. A missing season defaults to 1. The download
// driver leaves files with ok=false unselected.
func (p *Parser) ExtractEpisode(fileName string) (season, episode int, ok bool) {
	r := p.Parse(fileName)
	if r.Episode == 0 {
		return 0, 0, false
	}
	s := 1
	if r.Series > 0 {
		s = r.Series
	}
	return s, r.Episode, true
}

// episodeRangeRe catches "S02E05-E06" / "S02E05-06": a dash-joined
// first/last episode pair, expanded to the inclusive range between them.
var episodeRangeRe = regexp.MustCompile(`(?i)s\d{1,3}e(\d{1,3})-e?(\d{1,3})\b`)

// episodeConcatRe catches "S02E05E06E07": two or more EXX tokens run
// together with no separator, each naming a discrete episode.
var episodeConcatRe = regexp.MustCompile(`(?i)s\d{1,3}((?:e\d{1,3}){2,})`)
var episodeTokenRe = regexp.MustCompile(`(?i)e(\d{1,3})`)

// extractEpisodeSet recovers the full episode list a release name
// covers. rls.ParseString only ever yields a single Episode number, so
// multi-episode ranges and concatenations have to be picked out of the
// raw name directly. Falls back to {primary} when primary > 0 and
// neither pattern matches, or nil for a whole-season pack.
func extractEpisodeSet(name string, primary int) []int {
	if m := episodeRangeRe.FindStringSubmatch(name); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > 0 && hi >= lo {
			out := make([]int, 0, hi-lo+1)
			for e := lo; e <= hi; e++ {
				out = append(out, e)
			}
			return out
		}
	}

	if m := episodeConcatRe.FindStringSubmatch(name); m != nil {
		toks := episodeTokenRe.FindAllStringSubmatch(m[1], -1)
		seen := make(map[int]bool, len(toks))
		out := make([]int, 0, len(toks))
		for _, t := range toks {
			n, _ := strconv.Atoi(t[1])
			if n > 0 && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		if len(out) > 0 {
			sort.Ints(out)
			return out
		}
	}

	if primary > 0 {
		return []int{primary}
	}
	return nil
}
