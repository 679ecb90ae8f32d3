// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package mediaresolver is the external collaborator that turns a raw
// torrent title into a resolved media identity. The real system would
// query a TMDB-style catalog for season episode counts; this repo
// ships a Resolver interface plus a concrete adapter built on
// internal/titleparse alone, since no metadata API contract is given
// in the spec.
package mediaresolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/titleparse"
)

// Info is the resolved media identity for one raw torrent title.
type Info struct {
	Type     domain.MediaType
	Title    string
	Year     int
	Seasons  []int
	Episodes []int
	Tags     []string
	// TotalEpisodes is the known episode count for the single season
	// in Seasons, when len(Seasons) == 1. Zero means unknown.
	TotalEpisodes int
}

// Resolver resolves a raw torrent title into an Info, or returns
// domain.ErrMetadataMiss when nothing could be matched.
type Resolver interface {
	Resolve(ctx context.Context, rawTitle string) (*Info, error)
}

// EpisodeCounter supplies the total episode count for a (title, year,
// season), used to expand whole-season gap entries. A nil counter
// means "unknown" and TotalEpisodes stays 0.
type EpisodeCounter interface {
	TotalEpisodes(ctx context.Context, title string, year, season int) (int, error)
}

// TitleParseResolver resolves titles using only rls-based parsing — no
// external metadata lookup. It is the resolver of record for this repo
// since no concrete TMDB-style API was part of the spec's external
// interfaces.
type TitleParseResolver struct {
	parser  *titleparse.Parser
	counter EpisodeCounter
}

// New builds a TitleParseResolver. counter may be nil.
func New(parser *titleparse.Parser, counter EpisodeCounter) *TitleParseResolver {
	return &TitleParseResolver{parser: parser, counter: counter}
}

// Resolve parses rawTitle and classifies it into an Info.
func (r *TitleParseResolver) Resolve(ctx context.Context, rawTitle string) (*Info, error) {
	rel := r.parser.Parse(rawTitle)
	if rel.Title == "" {
		return nil, errors.Wrap(domain.ErrMetadataMiss, "no title extracted from "+rawTitle)
	}

	info := &Info{
		Type:     classify(rel),
		Title:    rel.Title,
		Year:     rel.Year,
		Seasons:  seriesSlice(rel.Series),
		Episodes: rel.Episodes,
		Tags:     resourceTags(rel),
	}

	if len(info.Seasons) == 1 && r.counter != nil {
		total, err := r.counter.TotalEpisodes(ctx, info.Title, info.Year, info.Seasons[0])
		if err == nil {
			info.TotalEpisodes = total
		}
	}
	return info, nil
}

// classify maps rls's free-form release type onto domain.MediaType.
// TV is the default for anything with series/episode numbers; everything
// else is treated as a movie. Anime is distinguished by rls's own
// "anime" type tag when present.
func classify(rel titleparse.Release) domain.MediaType {
	switch rel.Type {
	case "anime":
		return domain.Anime
	case "episode", "series":
		return domain.TV
	}
	if rel.Series > 0 || rel.Episode > 0 {
		return domain.TV
	}
	return domain.Movie
}

// seriesSlice adapts rls's scalar season number to the single-element
// Seasons slice domain.MediaItem expects; 0 (no season detected) maps
// to nil, matching a movie or a season-less release.
func seriesSlice(series int) []int {
	if series <= 0 {
		return nil
	}
	return []int{series}
}

func resourceTags(rel titleparse.Release) []string {
	var tags []string
	if rel.Resolution != "" {
		tags = append(tags, rel.Resolution)
	}
	if rel.Source != "" {
		tags = append(tags, rel.Source)
	}
	if rel.Group != "" {
		tags = append(tags, rel.Group)
	}
	tags = append(tags, rel.Codec...)
	tags = append(tags, rel.Audio...)
	tags = append(tags, rel.HDR...)
	return tags
}
