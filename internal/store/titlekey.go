// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// titleKeyInterner deduplicates the many repeated title_key string
// allocations that flow through RSS ingest (the same title is resolved
// and hashed many times per cycle, once per candidate and once per gap
// lookup). Keyed by an xxhash of the string rather than the string
// itself, so the lookup itself doesn't re-allocate.
type titleKeyInterner struct {
	mu    sync.Mutex
	table map[uint64]string
}

func newTitleKeyInterner() *titleKeyInterner {
	return &titleKeyInterner{table: make(map[uint64]string)}
}

// intern returns the canonical string for s, reusing a previously seen
// value with the same hash when one exists.
func (t *titleKeyInterner) intern(s string) string {
	h := xxhash.Sum64String(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.table[h]; ok && existing == s {
		return existing
	}
	t.table[h] = s
	return s
}
