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

import "strings"

// AssetClass is the closed set of top-level security categorizations.
// Upstream spreadsheets carry free-text labels ("US Equity Large Cap",
// "Fixed Income - Municipal", ...); ParseAssetClass maps them once at
// ingestion so the rest of the code never does substring checks
type AssetClass string

const (
	Equity       AssetClass = "equity"
	FixedIncome  AssetClass = "fixed_income"
	Alternatives AssetClass = "alternatives"
	HardCurrency AssetClass = "hard_currency"
	Cash         AssetClass = "cash"
	Other        AssetClass = "other"
)

// RiskClasses are the four partitions that carry risk statistics
var RiskClasses = []AssetClass{Equity, FixedIncome, HardCurrency, Alternatives}

// ParseAssetClass maps a free-text asset class label onto the closed enum.
// Matching is case-insensitive on substrings; order matters because labels
// like "Fixed Income - Hard Currency" should resolve to hard currency
func ParseAssetClass(label string) AssetClass {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, "_", " ")
	switch {
	case l == "":
		return Other
	case strings.Contains(l, "hard currency"):
		return HardCurrency
	case strings.Contains(l, "equity"):
		return Equity
	case strings.Contains(l, "fixed"):
		return FixedIncome
	case strings.Contains(l, "alternative"):
		return Alternatives
	case strings.Contains(l, "cash"):
		return Cash
	default:
		return Other
	}
}

// DisplayName is the label used in report payloads and unmatched-security
// diagnostics
func (ac AssetClass) DisplayName() string {
	switch ac {
	case Equity:
		return "Equity"
	case FixedIncome:
		return "Fixed Income"
	case Alternatives:
		return "Alternatives"
	case HardCurrency:
		return "Hard Currency"
	case Cash:
		return "Cash"
	}
	return "Other"
}

func (ac AssetClass) String() string {
	return string(ac)
}
