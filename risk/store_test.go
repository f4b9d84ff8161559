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

	"github.com/jackc/pgx/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/shopspring/decimal"

	"github.com/meridian-wealth/mw-api/database"
	"github.com/meridian-wealth/mw-api/holdings"
	"github.com/meridian-wealth/mw-api/pgxmockhelper"
	"github.com/meridian-wealth/mw-api/risk"
)

var _ = Describe("PgStore", func() {
	var (
		ctx    context.Context
		dbPool pgxmock.PgxConnIface
		store  *risk.PgStore
		asOf   time.Time
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		store = risk.NewPgStore()
		asOf = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	})

	Describe("single-row lookups", func() {
		It("scans metric columns into exact decimals", func() {
			pgxmockhelper.MockStatLookup(dbPool, "testdata/riskstats.csv", asOf)

			found, err := store.ByCUSIP(ctx, holdings.Equity, "037833100", asOf)
			Expect(err).To(BeNil())
			Expect(found.CUSIP).To(Equal("037833100"))
			Expect(found.Ticker).To(Equal("AAPL"))
			Expect(found.Name).To(Equal("Apple Inc"))
			Expect(found.Class).To(Equal(holdings.Equity))
			Expect(found.Beta.String()).To(Equal("1.2"))
			Expect(found.Volatility.String()).To(Equal("18.5"))
			Expect(found.Duration).To(BeNil())

			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})

		It("maps no rows to ErrNotFound", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery("SELECT (.+) FROM risk_statistics WHERE").WillReturnError(pgx.ErrNoRows)
			dbPool.ExpectRollback()

			_, err := store.ByTicker(ctx, holdings.Equity, "zzzz", asOf)
			Expect(err).To(MatchError(risk.ErrNotFound))
			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})
	})

	Describe("AllForClass", func() {
		It("returns every row newest first", func() {
			pgxmockhelper.MockStatPreload(dbPool, "testdata/riskstats_preload.csv", asOf)

			stats, err := store.AllForClass(ctx, holdings.Equity, asOf)
			Expect(err).To(BeNil())
			Expect(stats).To(HaveLen(3))
			Expect(stats[0].Ticker).To(Equal("AAPL"))
			Expect(stats[0].Beta.String()).To(Equal("1.2"))
			Expect(stats[2].EventDate.Before(stats[0].EventDate)).To(BeTrue())

			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})
	})

	Describe("LatestDate", func() {
		It("returns the most recent upload date", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery(`SELECT max\(event_date\) FROM risk_statistics`).
				WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&asOf))
			dbPool.ExpectCommit()

			latest, err := store.LatestDate(ctx)
			Expect(err).To(BeNil())
			Expect(latest).To(Equal(asOf))
		})

		It("returns the zero time for an empty table", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery(`SELECT max\(event_date\) FROM risk_statistics`).
				WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow((*time.Time)(nil)))
			dbPool.ExpectCommit()

			latest, err := store.LatestDate(ctx)
			Expect(err).To(BeNil())
			Expect(latest.IsZero()).To(BeTrue())
		})
	})

	Describe("ReplaceForDate", func() {
		It("deletes the day's rows then inserts the new set in one transaction", func() {
			beta := decimal.RequireFromString("1.3")
			vol := decimal.RequireFromString("19.1")
			stats := []*risk.Statistic{
				{CUSIP: "037833100", Ticker: "AAPL", Name: "Apple Inc", Beta: &beta, Volatility: &vol},
				{CUSIP: "594918104", Ticker: "MSFT", Name: "Microsoft Corp", Beta: &beta},
			}

			dbPool.ExpectBegin()
			dbPool.ExpectExec("DELETE FROM risk_statistics").
				WillReturnResult(pgxmock.NewResult("DELETE", 2))
			dbPool.ExpectExec("INSERT INTO risk_statistics").
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
			dbPool.ExpectExec("INSERT INTO risk_statistics").
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
			dbPool.ExpectCommit()

			err := store.ReplaceForDate(ctx, holdings.Equity, asOf, stats)
			Expect(err).To(BeNil())
			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})

		It("rolls back when an insert fails", func() {
			beta := decimal.RequireFromString("1.3")
			stats := []*risk.Statistic{
				{CUSIP: "037833100", Ticker: "AAPL", Name: "Apple Inc", Beta: &beta},
			}

			dbPool.ExpectBegin()
			dbPool.ExpectExec("DELETE FROM risk_statistics").
				WillReturnResult(pgxmock.NewResult("DELETE", 0))
			dbPool.ExpectExec("INSERT INTO risk_statistics").
				WillReturnError(pgx.ErrTxClosed)
			dbPool.ExpectRollback()

			err := store.ReplaceForDate(ctx, holdings.Equity, asOf, stats)
			Expect(err).NotTo(BeNil())
			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})
	})
})
