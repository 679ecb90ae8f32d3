// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rssingest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedXML = `<?xml version="1.0"?>
<rss><channel>
<item><title>Show.S01E01.mkv</title><enclosure url="https://x/1.torrent" length="100"/></item>
<item><title>Show.S01E02.mkv</title><enclosure url="https://x/2.torrent" length="200"/></item>
<item><title>NoEnclosure</title></item>
<item><description><![CDATA[unterminated</description></item>
<item><title>Show.S01E05.mkv</title><enclosure url="https://x/5.torrent" length="500"/></item>
</channel></rss>`

// S6 — feed robustness: malformed/incomplete items are skipped, not fatal.
func TestIngestSkipsMalformedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	ing := New(zerolog.Nop(), nil)
	items, rules := ing.Ingest(t.Context(), []SiteConfig{{Name: "site1", URL: srv.URL, Enabled: true}})

	require.Len(t, items, 3)
	assert.Contains(t, rules, "site1")
}

func TestIngestAssignsDecreasingPriorityByConfiguredOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	ing := New(zerolog.Nop(), nil)
	items, _ := ing.Ingest(t.Context(), []SiteConfig{
		{Name: "first", URL: srv.URL, Enabled: true},
		{Name: "second", URL: srv.URL, Enabled: true},
	})

	for _, item := range items {
		if item.Site == "first" {
			assert.Equal(t, 2, item.SitePriority)
		} else {
			assert.Equal(t, 1, item.SitePriority)
		}
	}
}
