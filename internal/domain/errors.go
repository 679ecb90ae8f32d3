// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "github.com/pkg/errors"

// Sentinel errors wrapped with github.com/pkg/errors throughout the
// pipeline. Callers should compare with errors.Is/errors.Cause rather
// than string matching.
var (
	// ErrTransientIO marks a failure worth retrying: a dropped
	// connection, a site timeout, a torrent client momentarily
	// unreachable.
	ErrTransientIO = errors.New("transient i/o failure")

	// ErrParse marks malformed input that retrying will not fix: bad
	// RSS XML, a release name rls cannot extract a season/episode from.
	ErrParse = errors.New("parse failure")

	// ErrMetadataMiss marks a resolver/probe miss: MediaResolver could
	// not match a title, or LibraryProbe has no record of it at all.
	ErrMetadataMiss = errors.New("metadata miss")

	// ErrBackendInconsistency marks a torrent client returning a state
	// the driver did not expect: a handle that vanished, a tag/label
	// add that silently did not take.
	ErrBackendInconsistency = errors.New("backend inconsistency")

	// ErrPartialSelectionEmpty marks a per-file selection pass that
	// ended up selecting zero files out of a multi-file torrent; the
	// driver deletes the just-added torrent with its files and aborts.
	ErrPartialSelectionEmpty = errors.New("partial selection produced no files")

	// ErrFatal marks a failure the caller should not retry and should
	// surface immediately: a misconfigured backend, an unreadable
	// database file.
	ErrFatal = errors.New("fatal error")
)
