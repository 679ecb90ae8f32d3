// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "qbittorrent", cfg.PT.Client)
	assert.Equal(t, "PT", cfg.PT.Tag)
	assert.False(t, cfg.PT.MonitorOnly)
	assert.Equal(t, float64(0), cfg.PT.SeedingTimeDays)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ptarr.toml")
	contents := `
[pt]
pt_client = "transmission"
pt_seeding_time = 3.5
pt_monitor_only = true
pt_tag = "PTARR"

[[pt.sites]]
name = "example"
rss_url = "https://example.test/rss"
enabled = true
priority = 1

[pt.rss_rule]
note = "Size > 0"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "transmission", cfg.PT.Client)
	assert.Equal(t, 3.5, cfg.PT.SeedingTimeDays)
	assert.True(t, cfg.PT.MonitorOnly)
	require.Len(t, cfg.PT.Sites, 1)
	assert.Equal(t, "example", cfg.PT.Sites[0].Name)
	assert.Equal(t, "Size > 0", cfg.PT.RSSRule.Note)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PTARR__PT__PT_CLIENT", "transmission")
	t.Setenv("PTARR__PT__PT_TAG", "CUSTOM")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "transmission", cfg.PT.Client)
	assert.Equal(t, "CUSTOM", cfg.PT.Tag)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.PT.Client = "bittorrent9000"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsSiteMissingURL(t *testing.T) {
	cfg := Default()
	cfg.PT.Sites = []SiteConfig{{Name: "x"}}
	assert.Error(t, cfg.Validate())
}
