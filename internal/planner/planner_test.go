// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptarr/ptarr/internal/domain"
)

func tv(title string, season int, episodes []int) domain.Candidate {
	return domain.Candidate{
		MediaItem: domain.NewMediaItem(domain.TV, title, 0, []int{season}, episodes, nil),
		RawTitle:  title,
	}
}

// S1 — whole-season hit.
func TestPlanWholeSeasonHit(t *testing.T) {
	gaps := domain.GapMap{
		"show": {{Season: 2, Episodes: nil, TotalEpisodes: 10}},
	}
	a := tv("show", 2, nil)
	b := tv("show", 2, []int{3})

	selections, updated := New().Plan([]domain.Candidate{a, b}, gaps)

	require.Len(t, selections, 1)
	assert.Equal(t, FullDownload, selections[0].Directive)
	assert.Equal(t, []int{2}, selections[0].Candidate.Seasons)
	assert.True(t, updated.IsEmpty("show"))
}

// S2 — mixed pack: per-episode packs first, then a whole-season pack
// closes the remainder via per-file selection.
func TestPlanMixedPack(t *testing.T) {
	gaps := domain.GapMap{
		"show": {{Season: 1, Episodes: []int{5, 6, 7, 8}, TotalEpisodes: 10}},
	}
	x := tv("show", 1, []int{5, 6})
	y := tv("show", 1, []int{7})
	z := tv("show", 1, nil)

	selections, updated := New().Plan([]domain.Candidate{x, y, z}, gaps)

	require.Len(t, selections, 3)
	full := 0
	var partial *Selection
	for i := range selections {
		if selections[i].Directive == FullDownload {
			full++
		} else {
			partial = &selections[i]
		}
	}
	assert.Equal(t, 2, full)
	require.NotNil(t, partial)
	assert.ElementsMatch(t, []int{8}, partial.Target)
	assert.True(t, updated.IsEmpty("show"))
}

func TestPlanMovieAlwaysSelected(t *testing.T) {
	gaps := domain.GapMap{}
	m := domain.Candidate{
		MediaItem: domain.NewMediaItem(domain.Movie, "Film", 2020, nil, nil, nil),
		RawTitle:  "Film",
	}

	selections, _ := New().Plan([]domain.Candidate{m}, gaps)

	require.Len(t, selections, 1)
	assert.Equal(t, FullDownload, selections[0].Directive)
}

func TestPlanDeterministic(t *testing.T) {
	gaps1 := domain.GapMap{"show": {{Season: 1, Episodes: []int{1, 2}, TotalEpisodes: 2}}}
	gaps2 := gaps1.Clone()
	cands := []domain.Candidate{tv("show", 1, []int{1, 2}), tv("show", 1, []int{1})}

	sel1, _ := New().Plan(cands, gaps1)
	sel2, _ := New().Plan(cands, gaps2)

	require.Equal(t, len(sel1), len(sel2))
	for i := range sel1 {
		assert.Equal(t, sel1[i].Candidate.RawTitle, sel2[i].Candidate.RawTitle)
		assert.Equal(t, sel1[i].Directive, sel2[i].Directive)
	}
}
