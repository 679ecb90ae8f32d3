// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package libraryprobe is the external collaborator that reports which
// episodes of a (title, year, season) are actually absent from the
// user's media library. The only implementation here is
// FilesystemProbe, a plain scan of the library directory; no
// media-server catalog (Plex/Jellyfin-style) is queried.
package libraryprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ptarr/ptarr/internal/titleparse"
)

// Probe answers existence queries the GapReconciler needs.
type Probe interface {
	// MoviePresent reports whether a movie is already in the library.
	MoviePresent(ctx context.Context, title string, year int) (bool, error)
	// MissingEpisodes returns the episode numbers of (title, year,
	// season) that are absent, given totalEpisodes known episodes.
	// A nil or empty result means no episode is reported missing.
	MissingEpisodes(ctx context.Context, title string, year, season, totalEpisodes int) ([]int, error)
}

// FilesystemProbe scans a root media directory, grouping files by the
// season/episode the title parser extracts from their names. It is the
// Probe the daemon always uses.
type FilesystemProbe struct {
	root   string
	parser *titleparse.Parser
}

// New builds a FilesystemProbe rooted at root.
func New(root string, parser *titleparse.Parser) *FilesystemProbe {
	return &FilesystemProbe{root: root, parser: parser}
}

// MoviePresent reports whether any file under a directory matching
// "Title (Year)" exists.
func (p *FilesystemProbe) MoviePresent(ctx context.Context, title string, year int) (bool, error) {
	dir := filepath.Join(p.root, fmt.Sprintf("%s (%d)", title, year))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// MissingEpisodes walks the title's season directory and returns which
// of [1..totalEpisodes] have no corresponding file, by parsing each
// file name's episode number.
func (p *FilesystemProbe) MissingEpisodes(ctx context.Context, title string, year, season, totalEpisodes int) ([]int, error) {
	dir := filepath.Join(p.root, fmt.Sprintf("%s (%d)", title, year), fmt.Sprintf("Season %02d", season))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return allEpisodes(totalEpisodes), nil
		}
		return nil, err
	}

	have := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		_, ep, ok := p.parser.ExtractEpisode(e.Name())
		if ok {
			have[ep] = true
		}
	}

	var missing []int
	for ep := 1; ep <= totalEpisodes; ep++ {
		if !have[ep] {
			missing = append(missing, ep)
		}
	}
	return missing, nil
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
