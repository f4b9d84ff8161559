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

package holdings

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Allocation summarizes portfolio value per asset class
type Allocation struct {
	Totals      map[string]decimal.Decimal `json:"totals"`
	Percentages map[string]decimal.Decimal `json:"percentages"`
	Total       decimal.Decimal            `json:"total"`
}

// Liquidity splits the portfolio into liquid and illiquid value. Equity,
// fixed income, cash and hard currency positions trade freely; alternatives
// and uncategorized holdings are treated as locked up
type Liquidity struct {
	Liquid      decimal.Decimal `json:"liquid"`
	Illiquid    decimal.Decimal `json:"illiquid"`
	LiquidPct   decimal.Decimal `json:"liquid_pct"`
	IlliquidPct decimal.Decimal `json:"illiquid_pct"`
	Total       decimal.Decimal `json:"total"`
}

// Partition groups positions by normalized asset class
func Partition(positions []*Position) map[AssetClass][]*Position {
	byClass := make(map[AssetClass][]*Position, 6)
	for _, pos := range positions {
		byClass[pos.Class] = append(byClass[pos.Class], pos)
	}
	return byClass
}

// Totals sums decoded position values per asset class
func Totals(positions []*Position) map[AssetClass]decimal.Decimal {
	totals := make(map[AssetClass]decimal.Decimal, 6)
	for _, pos := range positions {
		totals[pos.Class] = totals[pos.Class].Add(pos.Value)
	}
	return totals
}

// BuildAllocation computes the asset allocation report for a scope
func BuildAllocation(positions []*Position) *Allocation {
	totals := Totals(positions)

	alloc := &Allocation{
		Totals:      make(map[string]decimal.Decimal, len(totals)),
		Percentages: make(map[string]decimal.Decimal, len(totals)),
	}

	grand := decimal.Zero
	for _, total := range totals {
		grand = grand.Add(total)
	}
	alloc.Total = grand

	for class, total := range totals {
		alloc.Totals[class.String()] = total
		if grand.IsZero() {
			alloc.Percentages[class.String()] = decimal.Zero
		} else {
			alloc.Percentages[class.String()] = total.Div(grand).Mul(hundred)
		}
	}

	return alloc
}

// BuildLiquidity computes the liquidity split for a scope
func BuildLiquidity(positions []*Position) *Liquidity {
	report := &Liquidity{}
	for _, pos := range positions {
		switch pos.Class {
		case Equity, FixedIncome, Cash, HardCurrency:
			report.Liquid = report.Liquid.Add(pos.Value)
		default:
			report.Illiquid = report.Illiquid.Add(pos.Value)
		}
	}
	report.Total = report.Liquid.Add(report.Illiquid)
	if !report.Total.IsZero() {
		report.LiquidPct = report.Liquid.Div(report.Total).Mul(hundred)
		report.IlliquidPct = report.Illiquid.Div(report.Total).Mul(hundred)
	}
	return report
}
