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
	"github.com/shopspring/decimal"
)

// Duration categories for fixed income
const (
	DurationShort  = "short"
	DurationMarket = "market"
	DurationLong   = "long"
)

// MetricValue is one aggregated metric. Value is zero (not null) when
// nothing matched so downstream arithmetic stays safe; CoveragePct is the
// disambiguator — 0 coverage means "no data", not "metric is zero"
type MetricValue struct {
	Value       decimal.Decimal `json:"value"`
	CoveragePct decimal.Decimal `json:"coverage_pct"`
	Category    string          `json:"category,omitempty"`
}

// Amount wraps a plain dollar figure in report payloads
type Amount struct {
	Value decimal.Decimal `json:"value"`
}

type EquityMetrics struct {
	Beta       MetricValue `json:"beta"`
	Volatility MetricValue `json:"volatility"`
}

type FixedIncomeMetrics struct {
	Duration MetricValue `json:"duration"`
}

type BetaMetrics struct {
	Beta MetricValue `json:"beta"`
}

// Report is the full risk metrics payload for one reporting scope
type Report struct {
	Equity          EquityMetrics       `json:"equity"`
	FixedIncome     FixedIncomeMetrics  `json:"fixed_income"`
	HardCurrency    BetaMetrics         `json:"hard_currency"`
	Alternatives    BetaMetrics         `json:"alternatives"`
	Portfolio       BetaMetrics         `json:"portfolio"`
	Totals          map[string]Amount   `json:"totals"`
	Percentages     map[string]Amount   `json:"percentages"`
	TimeoutOccurred bool                `json:"timeout_occurred"`
	Unmatched       map[string][]string `json:"unmatched_securities,omitempty"`
}

// durationCategory buckets a weighted duration into short/market/long.
// Boundary values land in market
func durationCategory(duration decimal.Decimal, cfg ModelConfig) string {
	switch {
	case duration.LessThan(cfg.ShortDurationYears):
		return DurationShort
	case duration.GreaterThan(cfg.LongDurationYears):
		return DurationLong
	}
	return DurationMarket
}
