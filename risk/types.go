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
	"time"

	"github.com/meridian-wealth/mw-api/holdings"

	"github.com/shopspring/decimal"
)

// Metric names a tracked risk statistic
type Metric string

const (
	MetricBeta       Metric = "beta"
	MetricVolatility Metric = "volatility"
	MetricDuration   Metric = "duration"
)

// Statistic is one uploaded risk-statistic row for a security. A row is
// identified redundantly by CUSIP, ticker and position name; which metrics
// are populated depends on the asset class (equity carries beta and
// volatility, fixed income carries duration, alternatives and hard currency
// carry beta)
type Statistic struct {
	CUSIP      string              `json:"cusip"`
	Ticker     string              `json:"ticker_symbol"`
	Name       string              `json:"position"`
	Class      holdings.AssetClass `json:"asset_class"`
	Beta       *decimal.Decimal    `json:"beta,omitempty"`
	Volatility *decimal.Decimal    `json:"volatility,omitempty"`
	Duration   *decimal.Decimal    `json:"duration,omitempty"`
	EventDate  time.Time           `json:"event_date"`
}

// Value returns the named metric or nil when the row does not carry it
func (s *Statistic) Value(metric Metric) *decimal.Decimal {
	switch metric {
	case MetricBeta:
		return s.Beta
	case MetricVolatility:
		return s.Volatility
	case MetricDuration:
		return s.Duration
	}
	return nil
}

// MetricsFor lists the metrics tracked for an asset class
func MetricsFor(class holdings.AssetClass) []Metric {
	switch class {
	case holdings.Equity:
		return []Metric{MetricBeta, MetricVolatility}
	case holdings.FixedIncome:
		return []Metric{MetricDuration}
	case holdings.Alternatives, holdings.HardCurrency:
		return []Metric{MetricBeta}
	}
	return nil
}
