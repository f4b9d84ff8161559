// Copyright 2024-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package risk

import (
	"context"
	"sync"
	"time"

	"github.com/meridian-wealth/mw-api/holdings"

	"github.com/rs/zerolog/log"
)

// IDKind selects which identifier map a repository lookup consults
type IDKind int

const (
	KindCUSIP IDKind = iota
	KindTicker
	KindName
)

type bucket struct {
	preloaded bool
	byCUSIP   map[string]*Statistic
	byTicker  map[string]*Statistic
	byName    map[string]*Statistic
}

func newBucket() *bucket {
	return &bucket{
		byCUSIP:  make(map[string]*Statistic, 256),
		byTicker: make(map[string]*Statistic, 256),
		byName:   make(map[string]*Statistic, 256),
	}
}

// Repository holds per-asset-class lookup maps for one calculation run.
// Each bucket is preloaded at most once from the store; buckets whose
// preload timed out stay empty and callers fall back to per-position store
// queries. One repository instance belongs to one aggregation run — it is
// never shared across requests
type Repository struct {
	store   Store
	cfg     ModelConfig
	mu      sync.RWMutex
	buckets map[holdings.AssetClass]*bucket
}

func NewRepository(store Store, cfg ModelConfig) *Repository {
	buckets := make(map[holdings.AssetClass]*bucket, len(holdings.RiskClasses))
	for _, class := range holdings.RiskClasses {
		buckets[class] = newBucket()
	}
	return &Repository{
		store:   store,
		cfg:     cfg,
		buckets: buckets,
	}
}

// Preload populates the bucket's lookup maps from a single store query.
// Idempotent: a second call for the same class is a no-op. The store query
// runs under a short deadline; on timeout the bucket remains un-preloaded
func (r *Repository) Preload(ctx context.Context, class holdings.AssetClass, asOf time.Time) {
	b, ok := r.bucketFor(class)
	if !ok {
		return
	}

	r.mu.RLock()
	done := b.preloaded
	r.mu.RUnlock()
	if done {
		return
	}

	subLog := log.With().Str("AssetClass", class.String()).Logger()

	stats, err := RunWithTimeout(ctx, r.cfg.PreloadTimeout(), nil, func(runCtx context.Context) ([]*Statistic, error) {
		return r.store.AllForClass(runCtx, class, asOf)
	})
	if err != nil {
		// fall back to per-position queries
		subLog.Warn().Err(err).Msg("risk statistics preload failed; falling back to store queries")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b.preloaded {
		return
	}

	// rows arrive newest first; first-seen-wins keeps the latest
	// available record per key
	for _, stat := range stats {
		if key := SanitizeCUSIP(stat.CUSIP); key != "" {
			if _, ok := b.byCUSIP[key]; !ok {
				b.byCUSIP[key] = stat
			}
		}
		if key := SanitizeIdentifier(stat.Ticker); key != "" && key != tickerPlaceholder {
			if _, ok := b.byTicker[key]; !ok {
				b.byTicker[key] = stat
			}
		}
		if key := SanitizeIdentifier(stat.Name); key != "" {
			if _, ok := b.byName[key]; !ok {
				b.byName[key] = stat
			}
		}
	}
	b.preloaded = true
	subLog.Debug().Int("NumRows", len(stats)).Msg("preloaded risk statistics")
}

// Preloaded reports whether the bucket's maps were successfully populated
func (r *Repository) Preloaded(class holdings.AssetClass) bool {
	b, ok := r.bucketFor(class)
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return b.preloaded
}

// Lookup consults one identifier map; sanitized empty keys never match
func (r *Repository) Lookup(class holdings.AssetClass, kind IDKind, value string) *Statistic {
	b, ok := r.bucketFor(class)
	if !ok || value == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	switch kind {
	case KindCUSIP:
		return b.byCUSIP[value]
	case KindTicker:
		return b.byTicker[value]
	case KindName:
		return b.byName[value]
	}
	return nil
}

// Remember writes a matched statistic back into every identifier map it can
// populate, so later positions referencing the same security hit the cache
func (r *Repository) Remember(class holdings.AssetClass, stat *Statistic) {
	b, ok := r.bucketFor(class)
	if !ok || stat == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key := SanitizeCUSIP(stat.CUSIP); key != "" {
		b.byCUSIP[key] = stat
	}
	if key := SanitizeIdentifier(stat.Ticker); key != "" && key != tickerPlaceholder {
		b.byTicker[key] = stat
	}
	if key := SanitizeIdentifier(stat.Name); key != "" {
		b.byName[key] = stat
	}
}

func (r *Repository) bucketFor(class holdings.AssetClass) (*bucket, bool) {
	b, ok := r.buckets[class]
	return b, ok
}
