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
	"errors"
	"time"

	"github.com/meridian-wealth/mw-api/holdings"

	"github.com/rs/zerolog/log"
)

// tickerPlaceholder is what the custodian spreadsheets put in the ticker
// column for positions that have no exchange listing
const tickerPlaceholder = "-"

// Matcher resolves a position to its risk statistic using ordered
// identifier fallback. CUSIP is the most reliable key when present; tickers
// work for exchange-traded instruments but collide or go missing for OTC
// and private positions; name matching is the last resort because fund and
// bond names are verbose and inconsistently formatted between the two
// source spreadsheets
type Matcher struct {
	store     Store
	cfg       ModelConfig
	unmatched *UnmatchedTracker
}

func NewMatcher(store Store, cfg ModelConfig, unmatched *UnmatchedTracker) *Matcher {
	return &Matcher{
		store:     store,
		cfg:       cfg,
		unmatched: unmatched,
	}
}

// Find returns the best-matching risk statistic for the position, or nil.
// The repository cache is consulted first; on a miss the store is queried
// with a per-asset-class identifier priority. Store errors degrade to "no
// match" — a flaky query must never abort the surrounding report
func (m *Matcher) Find(ctx context.Context, positionName, cusip, ticker, assetLabel string, asOf time.Time, repo *Repository) *Statistic {
	if positionName == "" && cusip == "" && ticker == "" {
		return nil
	}
	if assetLabel == "" {
		return nil
	}

	class := holdings.ParseAssetClass(assetLabel)
	if MetricsFor(class) == nil {
		return nil
	}

	sanCUSIP := SanitizeCUSIP(cusip)
	sanTicker := SanitizeIdentifier(ticker)
	sanName := SanitizeIdentifier(positionName)

	if repo != nil {
		if stat := m.findCached(class, sanCUSIP, sanTicker, sanName, repo); stat != nil {
			return stat
		}
	}

	stat := m.findInStore(ctx, class, sanCUSIP, sanTicker, sanName, asOf)
	if stat != nil {
		if repo != nil {
			repo.Remember(class, stat)
		}
		return stat
	}

	if m.unmatched != nil {
		m.unmatched.Record(positionName, class.DisplayName())
	}
	return nil
}

func (m *Matcher) findCached(class holdings.AssetClass, cusip, ticker, name string, repo *Repository) *Statistic {
	if stat := repo.Lookup(class, KindCUSIP, cusip); stat != nil {
		return stat
	}
	if ticker != tickerPlaceholder {
		if stat := repo.Lookup(class, KindTicker, ticker); stat != nil {
			return stat
		}
	}
	return repo.Lookup(class, KindName, name)
}

func (m *Matcher) findInStore(ctx context.Context, class holdings.AssetClass, cusip, ticker, name string, asOf time.Time) *Statistic {
	switch class {
	case holdings.FixedIncome:
		return m.firstMatch(ctx, class, asOf,
			lookup{KindCUSIP, cusip, false},
			lookup{KindTicker, ticker, false},
			lookup{KindName, name, false},
			lookup{KindName, FirstWords(name, m.cfg.FixedIncomeNameWords), true},
		)
	case holdings.Equity:
		return m.firstMatch(ctx, class, asOf,
			lookup{KindTicker, ticker, false},
			lookup{KindCUSIP, cusip, false}, // covers listed derivatives carrying a CUSIP but no ticker
			lookup{KindName, name, false},
		)
	case holdings.Alternatives, holdings.HardCurrency:
		candidates := []lookup{
			{KindCUSIP, cusip, false},
			{KindTicker, ticker, false},
			{KindName, name, false},
			{KindName, FirstWords(name, m.cfg.AlternativesNameWords), true},
		}
		if first := FirstWords(name, 1); len(first) >= m.cfg.MinSingleWordLen {
			candidates = append(candidates, lookup{KindName, first, true})
		}
		return m.firstMatch(ctx, class, asOf, candidates...)
	}
	return nil
}

type lookup struct {
	kind    IDKind
	value   string
	partial bool
}

func (m *Matcher) firstMatch(ctx context.Context, class holdings.AssetClass, asOf time.Time, candidates ...lookup) *Statistic {
	for _, cand := range candidates {
		if cand.value == "" {
			continue
		}
		if cand.kind == KindTicker && cand.value == tickerPlaceholder {
			continue
		}

		stat, err := m.query(ctx, class, cand, asOf)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Warn().Err(err).Str("Identifier", cand.value).Msg("risk statistic query failed; trying next identifier")
			}
			continue
		}
		if stat != nil {
			return stat
		}
	}
	return nil
}

func (m *Matcher) query(ctx context.Context, class holdings.AssetClass, cand lookup, asOf time.Time) (*Statistic, error) {
	switch {
	case cand.kind == KindCUSIP:
		return m.store.ByCUSIP(ctx, class, cand.value, asOf)
	case cand.kind == KindTicker:
		return m.store.ByTicker(ctx, class, cand.value, asOf)
	case cand.partial:
		return m.store.ByNamePrefix(ctx, class, cand.value, asOf)
	default:
		return m.store.ByName(ctx, class, cand.value, asOf)
	}
}
