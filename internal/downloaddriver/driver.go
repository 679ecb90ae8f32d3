// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package downloaddriver translates planner.Selection values into
// torrentclient.Client calls, handling legacy tag cleanup and per-file
// episode selection for partial downloads. The QB-style resolve-by-tag
// wait happens inside the backend's Add, not here.
package downloaddriver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ptarr/ptarr/internal/domain"
	"github.com/ptarr/ptarr/internal/message"
	"github.com/ptarr/ptarr/internal/planner"
	"github.com/ptarr/ptarr/internal/titleparse"
	"github.com/ptarr/ptarr/internal/torrentclient"
)

// TagGenerator returns a fresh, unique per-torrent tag for partial
// downloads. The default implementation uses a counter that starts at
// zero in each Driver rather than wall-clock time, since this package
// must stay deterministic-friendly for tests.
type TagGenerator func() string

// Driver drives a torrentclient.Client from planner selections.
type Driver struct {
	client  torrentclient.Client
	parser  *titleparse.Parser
	sink    message.Sink
	log     zerolog.Logger
	tagFunc TagGenerator
	pttag   string
}

// New builds a Driver. pttag is the fixed PT_TAG used for FullDownload
// items; tagFunc generates the unique per-item tag used for
// PartialDownload items.
func New(client torrentclient.Client, parser *titleparse.Parser, sink message.Sink, log zerolog.Logger, pttag string, tagFunc TagGenerator) *Driver {
	if tagFunc == nil {
		counter := 0
		tagFunc = func() string {
			counter++
			return fmt.Sprintf("ptarr-%d", counter)
		}
	}
	return &Driver{client: client, parser: parser, sink: sink, log: log, tagFunc: tagFunc, pttag: pttag}
}

// Drive processes every selection, applying the appropriate add/resolve/
// file-selection sequence. It never lets one item's error abort the
// rest (spec §7 per-item recovery); each failure is logged and
// skipped.
func (d *Driver) Drive(ctx context.Context, selections []planner.Selection) {
	for _, sel := range selections {
		var err error
		switch sel.Directive {
		case planner.FullDownload:
			err = d.driveFull(ctx, sel)
		case planner.PartialDownload:
			err = d.drivePartial(ctx, sel)
		}
		if err != nil {
			d.log.Warn().Err(err).Str("title", sel.Candidate.RawTitle).Msg("[DRIVER] item aborted")
		}
	}
}

func (d *Driver) driveFull(ctx context.Context, sel planner.Selection) error {
	handle, err := d.client.Add(ctx, sel.Candidate.Enclosure, sel.Candidate.Type, false, d.pttag)
	if err != nil {
		return errors.Wrap(err, "add")
	}
	_ = handle
	return d.sink.Notify(ctx, "queued: "+sel.Candidate.RawTitle)
}

// drivePartial handles a PartialDownload selection: add paused under a
// unique tag, drop the legacy tag, keep only files whose episode is in
// Target, delete the torrent when none match, otherwise apply the file
// selection and start it. It does not update any gap map.
func (d *Driver) drivePartial(ctx context.Context, sel planner.Selection) error {
	tag := d.tagFunc()

	// Add already performs whatever handle-resolution its backend
	// needs (QB-style waits up to ResolveWaitInterval internally,
	// TR-style returns the handle synchronously) — see §9.
	handle, err := d.client.Add(ctx, sel.Candidate.Enclosure, sel.Candidate.Type, true, tag)
	if err != nil {
		return errors.Wrap(domain.ErrBackendInconsistency, "add/resolve: "+err.Error())
	}
	if handle.HasTag(torrentclient.LegacyTag) {
		_ = d.client.RemoveTag(ctx, handle, torrentclient.LegacyTag)
	}

	files, err := d.client.ListFiles(ctx, handle)
	if err != nil {
		return errors.Wrap(err, "list files")
	}

	targetSet := make(map[int]bool, len(sel.Target))
	for _, ep := range sel.Target {
		targetSet[ep] = true
	}

	var selectedIdx, unselectedIdx []int
	for _, f := range files {
		_, ep, ok := d.parser.ExtractEpisode(f.Name)
		if ok && targetSet[ep] {
			selectedIdx = append(selectedIdx, f.Index)
		} else {
			unselectedIdx = append(unselectedIdx, f.Index)
		}
	}

	if len(selectedIdx) == 0 {
		if err := d.client.Delete(ctx, handle, true); err != nil {
			d.log.Warn().Err(err).Msg("[DRIVER] failed to delete empty-selection torrent")
		}
		return errors.Wrap(domain.ErrPartialSelectionEmpty, sel.Candidate.RawTitle)
	}

	if err := d.client.SetFileSelection(ctx, handle, selectedIdx, unselectedIdx); err != nil {
		return errors.Wrap(err, "set file selection")
	}
	if err := d.client.Start(ctx, handle); err != nil {
		return errors.Wrap(err, "start")
	}

	return d.sink.Notify(ctx, "queued (partial): "+sel.Candidate.RawTitle+" target="+joinInts(sel.Target))
}

func joinInts(in []int) string {
	s := ""
	for i, v := range in {
		if i > 0 {
			s += ","
		}
		s += strconv.Itoa(v)
	}
	return s
}
