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

package risk_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meridian-wealth/mw-api/holdings"
	"github.com/meridian-wealth/mw-api/risk"
)

func holding(name, cusip, ticker, assetLabel, value string) *holdings.Position {
	return holdings.NewPosition(name, cusip, ticker, assetLabel, value)
}

var _ = Describe("Aggregator", func() {
	var (
		ctx   context.Context
		cfg   risk.ModelConfig
		asOf  time.Time
		store *fakeStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = risk.DefaultModelConfig()
		asOf = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
		store = newFakeStore(asOf)
	})

	calculate := func(positions ...*holdings.Position) *risk.Report {
		report, err := risk.NewAggregator(store, cfg).Calculate(ctx, positions, asOf)
		Expect(err).To(BeNil())
		Expect(report).NotTo(BeNil())
		return report
	}

	Describe("value-weighted averages", func() {
		BeforeEach(func() {
			store.stats = []*risk.Statistic{
				withVolatility(withBeta(stat("037833100", "AAPL", "Apple Inc", holdings.Equity, asOf), "1"), "10"),
				withVolatility(withBeta(stat("594918104", "MSFT", "Microsoft Corp", holdings.Equity, asOf), "2"), "20"),
				withDuration(stat("912828YK0", "-", "US Treasury 2.5% 2031", holdings.FixedIncome, asOf), "5"),
			}
		})

		It("weights each matched metric by position value", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Microsoft Corp", "594918104", "MSFT", "Equity", "300"),
				holding("US Treasury 2.5% 2031", "912828YK0", "-", "Fixed Income", "200"),
				holding("Cash USD", "", "", "Cash", "50"),
			)

			Expect(report.Equity.Beta.Value.String()).To(Equal("1.75"))
			Expect(report.Equity.Beta.CoveragePct.String()).To(Equal("100"))
			Expect(report.Equity.Volatility.Value.String()).To(Equal("17.5"))

			Expect(report.FixedIncome.Duration.Value.String()).To(Equal("5"))
			Expect(report.FixedIncome.Duration.Category).To(Equal(risk.DurationMarket))
			Expect(report.FixedIncome.Duration.CoveragePct.String()).To(Equal("100"))

			Expect(report.TimeoutOccurred).To(BeFalse())
			Expect(report.Unmatched).To(BeEmpty())
		})

		It("reports totals and percentages per asset class", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Microsoft Corp", "594918104", "MSFT", "Equity", "300"),
				holding("US Treasury 2.5% 2031", "912828YK0", "-", "Fixed Income", "200"),
				holding("Cash USD", "", "", "Cash", "50"),
			)

			Expect(report.Totals["equity"].Value.String()).To(Equal("400"))
			Expect(report.Totals["fixed_income"].Value.String()).To(Equal("200"))
			Expect(report.Totals["cash"].Value.String()).To(Equal("50"))

			Expect(report.Percentages["fixed_income"].Value.Round(2).String()).To(Equal("30.77"))
			Expect(report.Percentages["cash"].Value.Round(2).String()).To(Equal("7.69"))
		})

		It("reduces coverage for unmatched positions", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Microsoft Corp", "594918104", "MSFT", "Equity", "300"),
				holding("Unknown Widget Corp", "", "ZZZZ", "Equity", "100"),
			)

			// weighted sum uses the full bucket total as denominator
			Expect(report.Equity.Beta.Value.String()).To(Equal("1.4"))
			Expect(report.Equity.Beta.CoveragePct.String()).To(Equal("80"))
			Expect(report.Unmatched["Equity"]).To(Equal([]string{"Unknown Widget Corp"}))
		})

		It("skips non-positive position values", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Short Hedge", "594918104", "MSFT", "Equity", "-50"),
			)

			// the short position neither matches nor contributes; it nets
			// the displayed total but carries no risk weight
			Expect(report.Unmatched).To(BeEmpty())
			Expect(report.Equity.Beta.Value.String()).To(Equal("1"))
			Expect(report.Equity.Beta.CoveragePct.String()).To(Equal("100"))
			Expect(report.Totals["equity"].Value.String()).To(Equal("50"))
		})

		It("keeps coverage within [0, 100] for mixed-sign buckets", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Unknown Widget Corp", "", "ZZZZ", "Equity", "100"),
				holding("Short Hedge", "594918104", "MSFT", "Equity", "-150"),
			)

			// weight base is the positive value (200) even though the
			// bucket nets to 50
			Expect(report.Equity.Beta.Value.String()).To(Equal("0.5"))
			Expect(report.Equity.Beta.CoveragePct.String()).To(Equal("50"))
			Expect(report.Totals["equity"].Value.String()).To(Equal("50"))
		})

		It("keeps coverage within [0, 100] when a bucket nets negative", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Short Hedge", "594918104", "MSFT", "Equity", "-300"),
			)

			Expect(report.Equity.Beta.Value.String()).To(Equal("1"))
			Expect(report.Equity.Beta.CoveragePct.String()).To(Equal("100"))
			Expect(report.Totals["equity"].Value.String()).To(Equal("-200"))
		})
	})

	Describe("duration categories", func() {
		DescribeTable("bucketing the weighted duration",
			func(duration, expected string) {
				store.stats = []*risk.Statistic{
					withDuration(stat("912828YK0", "-", "US Treasury", holdings.FixedIncome, asOf), duration),
				}
				report := calculate(holding("US Treasury", "912828YK0", "-", "Fixed Income", "100"))
				Expect(report.FixedIncome.Duration.Value.String()).To(Equal(duration))
				Expect(report.FixedIncome.Duration.Category).To(Equal(expected))
			},

			Entry("short", "1.9", risk.DurationShort),
			Entry("lower boundary is market", "2", risk.DurationMarket),
			Entry("middle", "5", risk.DurationMarket),
			Entry("upper boundary is market", "7", risk.DurationMarket),
			Entry("long", "7.5", risk.DurationLong),
		)
	})

	Describe("blended portfolio beta", func() {
		BeforeEach(func() {
			store.stats = []*risk.Statistic{
				withBeta(stat("037833100", "AAPL", "Apple Inc", holdings.Equity, asOf), "2"),
				withBeta(stat("", "-", "Gold Bullion", holdings.HardCurrency, asOf), "0.5"),
				withBeta(stat("", "-", "Blackstone Real Estate Partners VIII", holdings.Alternatives, asOf), "1"),
			}
		})

		It("weights each beta bucket by its share of total value", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "500"),
				holding("Gold Bullion", "", "-", "Hard Currency", "200"),
				holding("Blackstone Real Estate Partners VIII", "", "-", "Alternatives", "300"),
			)

			// 2*0.5 + 0.5*0.2 + 1*0.3
			Expect(report.Portfolio.Beta.Value.String()).To(Equal("1.4"))
			Expect(report.Portfolio.Beta.CoveragePct.String()).To(Equal("100"))
		})
	})

	Describe("degenerate inputs", func() {
		It("handles an empty scope", func() {
			report := calculate()

			Expect(report.Equity.Beta.Value.IsZero()).To(BeTrue())
			Expect(report.Equity.Beta.CoveragePct.IsZero()).To(BeTrue())
			Expect(report.Portfolio.Beta.Value.IsZero()).To(BeTrue())
			Expect(report.Totals).To(BeEmpty())
		})

		It("distinguishes zero-with-coverage from no data", func() {
			store.stats = []*risk.Statistic{
				withBeta(stat("", "-", "Market Neutral Fund", holdings.Alternatives, asOf), "0"),
			}

			report := calculate(holding("Market Neutral Fund", "", "-", "Alternatives", "100"))

			Expect(report.Alternatives.Beta.Value.IsZero()).To(BeTrue())
			Expect(report.Alternatives.Beta.CoveragePct.String()).To(Equal("100"))
		})

		It("stops on a canceled context", func() {
			canceledCtx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := risk.NewAggregator(store, cfg).Calculate(canceledCtx, []*holdings.Position{
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
			}, asOf)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("bucket timeouts", func() {
		BeforeEach(func() {
			cfg.BucketSeconds = 1
			store.stats = []*risk.Statistic{
				withBeta(stat("037833100", "AAPL", "Apple Inc", holdings.Equity, asOf), "1"),
			}
			// the second position's lookups hang until the bucket deadline
			store.blockOn["vrtx"] = true
		})

		It("keeps partial results and flags the timeout", func() {
			report := calculate(
				holding("Apple Inc", "037833100", "AAPL", "Equity", "100"),
				holding("Vertex Holdings", "", "VRTX", "Equity", "200"),
			)

			Expect(report.TimeoutOccurred).To(BeTrue())
			Expect(report.Equity.Beta.Value.Round(4).String()).To(Equal("0.3333"))
			Expect(report.Equity.Beta.CoveragePct.Round(2).String()).To(Equal("33.33"))
		})
	})
})
