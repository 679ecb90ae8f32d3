// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package buildinfo holds version metadata injected at link time via
// -ldflags, plus a UserAgent string used by outbound HTTP clients.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Version, Commit, and Date are overridden at build time via:
//
//	-ldflags "-X github.com/ptarr/ptarr/internal/buildinfo.Version=..."
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent identifies this daemon to RSS sites and torrent-client
// backends.
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("ptarrd/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// String renders build metadata as human-readable lines, used by the
// `ptarrd version` command.
func String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild date: %s\n", Version, Commit, Date)
}

// JSON renders build metadata for the /healthz endpoint.
func JSON() ([]byte, error) {
	return json.Marshal(struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
		Date    string `json:"date"`
	}{Version, Commit, Date})
}
