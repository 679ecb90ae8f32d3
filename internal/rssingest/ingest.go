// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rssingest fetches and parses each configured site's RSS feed,
// concurrently, then walks sites in configured order to assign a
// deterministic, monotonically decreasing site_priority (spec §4.2/§5).
package rssingest

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ptarr/ptarr/internal/gapreconciler"
)

// DefaultTimeout is the per-site fetch timeout (spec §4.2).
const DefaultTimeout = 30 * time.Second

// SiteConfig is one configured RSS source plus its filter rule set.
type SiteConfig struct {
	Name         string
	URL          string
	IncludeRules []string
	ExcludeRules []string
	MinSize      int64
	MaxSize      int64
	Enabled      bool
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Enclosure   struct {
		URL    string `xml:"url,attr"`
		Length string `xml:"length,attr"`
	} `xml:"enclosure"`
}

// Ingester fetches RSS feeds over HTTP with a bounded timeout and
// retry budget.
type Ingester struct {
	httpClient *http.Client
	log        zerolog.Logger
	notes      []string
}

// New builds an Ingester. notes are the global rss_rule.note strings
// (spec §6) injected into every site's filter rule set.
func New(log zerolog.Logger, notes []string) *Ingester {
	return &Ingester{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        log,
		notes:      notes,
	}
}

// Ingest fetches every enabled site concurrently, then assigns
// site_priority by walking sites in configured order so that, even
// though the network fetch is concurrent, the deterministic-ordering
// guarantee of §5 still holds. A site fetch that times out or fails
// degrades to an empty result for that site rather than a fatal error
// (spec §7 TransientIO).
func (ing *Ingester) Ingest(ctx context.Context, sites []SiteConfig) ([]gapreconciler.RawItem, map[string]gapreconciler.SiteRule) {
	raw := make([][]rssItem, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	for i, site := range sites {
		if !site.Enabled {
			continue
		}
		i, site := i, site
		g.Go(func() error {
			items, err := ing.fetchWithRetry(gctx, site)
			if err != nil {
				ing.log.Warn().Err(err).Str("site", site.Name).Msg("[RSS] fetch failed, skipping site")
				return nil
			}
			raw[i] = items
			return nil
		})
	}
	_ = g.Wait()

	rules := make(map[string]gapreconciler.SiteRule, len(sites))
	var out []gapreconciler.RawItem

	priority := len(sites)
	for i, site := range sites {
		rules[site.Name] = gapreconciler.SiteRule{
			Include: site.IncludeRules,
			Exclude: site.ExcludeRules,
			MinSize: site.MinSize,
			MaxSize: site.MaxSize,
			Notes:   ing.notes,
		}

		for _, item := range raw[i] {
			if item.Title == "" || item.Enclosure.URL == "" {
				continue
			}
			size, _ := strconv.ParseInt(item.Enclosure.Length, 10, 64)
			out = append(out, gapreconciler.RawItem{
				RawTitle:     item.Title,
				Enclosure:    item.Enclosure.URL,
				Size:         size,
				Description:  item.Description,
				Site:         site.Name,
				SitePriority: priority,
			})
		}
		priority--
	}

	return out, rules
}

func (ing *Ingester) fetchWithRetry(ctx context.Context, site SiteConfig) ([]rssItem, error) {
	var items []rssItem
	err := retry.Do(
		func() error {
			fetched, err := ing.fetchOnce(ctx, site.URL)
			if err != nil {
				return err
			}
			items = fetched
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
	)
	return items, err
}

func (ing *Ingester) fetchOnce(ctx context.Context, url string) ([]rssItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ing.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Each <item> is decoded on its own so one malformed item is skipped
	// instead of failing the whole feed.
	var items []rssItem
	for _, chunk := range strings.Split(string(body), "</item>") {
		start := strings.Index(chunk, "<item")
		if start < 0 {
			continue
		}
		var item rssItem
		if err := xml.Unmarshal([]byte(chunk[start:]+"</item>"), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
