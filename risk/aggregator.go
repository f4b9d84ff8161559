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
	"sync"
	"time"

	"github.com/meridian-wealth/mw-api/holdings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var hundred = decimal.NewFromInt(100)

// Aggregator computes value-weighted risk metrics for a set of positions.
// Each risk-bearing asset class runs under its own deadline so one slow or
// degenerate bucket cannot starve the others; whatever a bucket accumulated
// before its deadline is kept and reported with reduced coverage
type Aggregator struct {
	store Store
	cfg   ModelConfig
}

func NewAggregator(store Store, cfg ModelConfig) *Aggregator {
	return &Aggregator{
		store: store,
		cfg:   cfg,
	}
}

// accumulator holds one bucket's running sums. The mutex matters because a
// bucket worker that overruns its deadline may still be folding in its last
// position while finalization reads the totals
type accumulator struct {
	mu       sync.Mutex
	weighted map[Metric]decimal.Decimal
	matched  decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{
		weighted: make(map[Metric]decimal.Decimal, 2),
	}
}

func (acc *accumulator) add(metric Metric, contribution decimal.Decimal) {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.weighted[metric] = acc.weighted[metric].Add(contribution)
}

func (acc *accumulator) addMatched(value decimal.Decimal) {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.matched = acc.matched.Add(value)
}

func (acc *accumulator) snapshot() (map[Metric]decimal.Decimal, decimal.Decimal) {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	weighted := make(map[Metric]decimal.Decimal, len(acc.weighted))
	for metric, sum := range acc.weighted {
		weighted[metric] = sum
	}
	return weighted, acc.matched
}

// Calculate builds the risk metrics report for the supplied positions.
// Per-position and per-bucket failures degrade coverage instead of aborting;
// the only error returned is a canceled parent context
func (a *Aggregator) Calculate(ctx context.Context, positions []*holdings.Position, asOf time.Time) (*Report, error) {
	tracer := otel.Tracer("github.com/meridian-wealth/mw-api/risk")
	ctx, span := tracer.Start(ctx, "risk.Calculate")
	defer span.End()

	byClass := holdings.Partition(positions)
	totals := holdings.Totals(positions)

	grand := decimal.Zero
	for _, total := range totals {
		grand = grand.Add(total)
	}

	// weight base per class: the sum of positive position values. Shorts
	// net the displayed totals but never carry risk weight, so using the
	// netted totals as a denominator would push coverage outside [0, 100]
	weightBase := make(map[holdings.AssetClass]decimal.Decimal, len(byClass))
	grandBase := decimal.Zero
	for class, bucket := range byClass {
		base := decimal.Zero
		for _, pos := range bucket {
			if pos.Value.IsPositive() {
				base = base.Add(pos.Value)
			}
		}
		weightBase[class] = base
		grandBase = grandBase.Add(base)
	}

	latest, err := a.store.LatestDate(ctx)
	if err != nil || latest.IsZero() {
		// degenerate to "no rows" rather than erroring
		latest = time.Now()
	}

	unmatched := NewUnmatchedTracker()
	matcher := NewMatcher(a.store, a.cfg, unmatched)
	repo := NewRepository(a.store, a.cfg)

	report := &Report{
		Totals:      make(map[string]Amount, len(totals)),
		Percentages: make(map[string]Amount, len(totals)),
	}

	accs := make(map[holdings.AssetClass]*accumulator, len(holdings.RiskClasses))
	for _, class := range holdings.RiskClasses {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		acc := newAccumulator()
		accs[class] = acc

		bucketPositions := byClass[class]
		if len(bucketPositions) == 0 {
			continue
		}

		bucketCtx, bucketSpan := tracer.Start(ctx, "risk.processBucket")
		bucketSpan.SetAttributes(attribute.String("asset_class", class.String()))

		_, err := RunWithTimeout(bucketCtx, a.cfg.BucketTimeout(), nil, func(runCtx context.Context) (struct{}, error) {
			return struct{}{}, a.processBucket(runCtx, class, bucketPositions, weightBase[class], latest, matcher, repo, acc)
		})
		bucketSpan.End()

		if err != nil {
			if errors.Is(err, ErrTimeout) {
				report.TimeoutOccurred = true
				log.Warn().Str("AssetClass", class.String()).Msg("bucket processing timed out; keeping partial results")
			} else {
				log.Error().Stack().Err(err).Str("AssetClass", class.String()).Msg("bucket processing failed; keeping partial results")
			}
		}
	}

	a.finalize(report, accs, totals, grand, weightBase, grandBase)
	report.Unmatched = unmatched.Snapshot()
	return report, nil
}

// processBucket folds every matchable position in one asset class into the
// bucket's accumulator. runCtx is checked between positions so an
// abandoned worker stops instead of running to completion in the background
func (a *Aggregator) processBucket(runCtx context.Context, class holdings.AssetClass, positions []*holdings.Position,
	base decimal.Decimal, asOf time.Time, matcher *Matcher, repo *Repository, acc *accumulator) error {
	repo.Preload(runCtx, class, asOf)

	metrics := MetricsFor(class)
	for _, pos := range positions {
		if err := runCtx.Err(); err != nil {
			return err
		}
		if !pos.Value.IsPositive() {
			continue
		}

		stat := matcher.Find(runCtx, pos.Name, pos.CUSIP, pos.Ticker, pos.AssetLabel, asOf, repo)
		if stat == nil {
			continue
		}

		matchedAny := false
		for _, metric := range metrics {
			value := stat.Value(metric)
			if value == nil {
				continue
			}

			// running weighted average: divide by the bucket's weight
			// base during accumulation, not at finalization
			contribution := decimal.Zero
			if !base.IsZero() {
				contribution = value.Mul(pos.Value).Div(base)
			}
			acc.add(metric, contribution)
			matchedAny = true
		}
		if matchedAny {
			acc.addMatched(pos.Value)
		}
	}
	return nil
}

func (a *Aggregator) finalize(report *Report, accs map[holdings.AssetClass]*accumulator,
	totals map[holdings.AssetClass]decimal.Decimal, grand decimal.Decimal,
	weightBase map[holdings.AssetClass]decimal.Decimal, grandBase decimal.Decimal) {
	metricValue := func(class holdings.AssetClass, metric Metric) MetricValue {
		weighted, matched := accs[class].snapshot()
		mv := MetricValue{
			Value:       weighted[metric],
			CoveragePct: decimal.Zero,
		}
		// matched never exceeds the weight base, so coverage stays in
		// [0, 100] regardless of short positions in the bucket
		if base := weightBase[class]; !base.IsZero() {
			mv.CoveragePct = matched.Div(base).Mul(hundred)
		}
		return mv
	}

	report.Equity = EquityMetrics{
		Beta:       metricValue(holdings.Equity, MetricBeta),
		Volatility: metricValue(holdings.Equity, MetricVolatility),
	}

	duration := metricValue(holdings.FixedIncome, MetricDuration)
	duration.Category = durationCategory(duration.Value, a.cfg)
	report.FixedIncome = FixedIncomeMetrics{Duration: duration}

	report.HardCurrency = BetaMetrics{Beta: metricValue(holdings.HardCurrency, MetricBeta)}
	report.Alternatives = BetaMetrics{Beta: metricValue(holdings.Alternatives, MetricBeta)}

	for class, total := range totals {
		report.Totals[class.String()] = Amount{Value: total}
		pct := decimal.Zero
		if !grand.IsZero() {
			pct = total.Div(grand).Mul(hundred)
		}
		report.Percentages[class.String()] = Amount{Value: pct}
	}

	// blended portfolio beta: each beta-bearing bucket weighted by its
	// share of the portfolio's positive value; fixed income contributes
	// no beta. Coverage is pinned at 100 because this is a derived
	// composite
	portfolioBeta := decimal.Zero
	if !grandBase.IsZero() {
		for _, class := range []holdings.AssetClass{holdings.Equity, holdings.HardCurrency, holdings.Alternatives} {
			weighted, _ := accs[class].snapshot()
			beta := weighted[MetricBeta]
			portfolioBeta = portfolioBeta.Add(beta.Mul(weightBase[class].Div(grandBase)))
		}
	}
	report.Portfolio = BetaMetrics{Beta: MetricValue{
		Value:       portfolioBeta,
		CoveragePct: hundred,
	}}
}
