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

var _ = Describe("Repository", func() {
	var (
		ctx   context.Context
		cfg   risk.ModelConfig
		asOf  time.Time
		older time.Time
		store *fakeStore
		repo  *risk.Repository
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = risk.DefaultModelConfig()
		asOf = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
		older = time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

		store = newFakeStore(asOf,
			withBeta(stat("037833100", "AAPL", "Apple Inc", holdings.Equity, asOf), "1.2"),
			withBeta(stat("037833100", "AAPL", "Apple Inc", holdings.Equity, older), "1.1"),
			withBeta(stat("", "-", "Gold Bullion", holdings.HardCurrency, asOf), "0.5"),
		)
		repo = risk.NewRepository(store, cfg)
	})

	It("keeps the most recent row per identifier", func() {
		repo.Preload(ctx, holdings.Equity, asOf)
		Expect(repo.Preloaded(holdings.Equity)).To(BeTrue())

		found := repo.Lookup(holdings.Equity, risk.KindCUSIP, "037833100")
		Expect(found).NotTo(BeNil())
		Expect(found.Beta.String()).To(Equal("1.2"))
		Expect(found.EventDate).To(Equal(asOf))
	})

	It("indexes ticker and name keys", func() {
		repo.Preload(ctx, holdings.Equity, asOf)

		Expect(repo.Lookup(holdings.Equity, risk.KindTicker, "aapl")).NotTo(BeNil())
		Expect(repo.Lookup(holdings.Equity, risk.KindName, "apple inc")).NotTo(BeNil())
	})

	It("never indexes the ticker placeholder", func() {
		repo.Preload(ctx, holdings.HardCurrency, asOf)
		Expect(repo.Preloaded(holdings.HardCurrency)).To(BeTrue())

		Expect(repo.Lookup(holdings.HardCurrency, risk.KindTicker, "-")).To(BeNil())
		Expect(repo.Lookup(holdings.HardCurrency, risk.KindName, "gold bullion")).NotTo(BeNil())
	})

	It("only queries the store once per class", func() {
		repo.Preload(ctx, holdings.Equity, asOf)
		repo.Preload(ctx, holdings.Equity, asOf)
		Expect(store.preloads).To(Equal(1))
	})

	It("stays un-preloaded when the store fails", func() {
		store.failPreload = true

		repo.Preload(ctx, holdings.Equity, asOf)
		Expect(repo.Preloaded(holdings.Equity)).To(BeFalse())
		Expect(repo.Lookup(holdings.Equity, risk.KindCUSIP, "037833100")).To(BeNil())
	})

	It("ignores classes outside the risk model", func() {
		repo.Preload(ctx, holdings.Cash, asOf)
		Expect(repo.Preloaded(holdings.Cash)).To(BeFalse())
		Expect(repo.Lookup(holdings.Cash, risk.KindName, "cash usd")).To(BeNil())
	})

	It("remembers write-backs under every identifier", func() {
		remembered := withBeta(stat("594918104", "MSFT", "Microsoft Corp", holdings.Equity, asOf), "1.05")
		repo.Remember(holdings.Equity, remembered)

		Expect(repo.Lookup(holdings.Equity, risk.KindCUSIP, "594918104")).To(BeIdenticalTo(remembered))
		Expect(repo.Lookup(holdings.Equity, risk.KindTicker, "msft")).To(BeIdenticalTo(remembered))
		Expect(repo.Lookup(holdings.Equity, risk.KindName, "microsoft corp")).To(BeIdenticalTo(remembered))
	})

	It("never matches empty keys", func() {
		repo.Preload(ctx, holdings.Equity, asOf)
		Expect(repo.Lookup(holdings.Equity, risk.KindCUSIP, "")).To(BeNil())
	})
})
