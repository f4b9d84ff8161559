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

	"github.com/meridian-wealth/mw-api/database"
	"github.com/meridian-wealth/mw-api/holdings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Store is the interface the matcher and repository need from the risk
// statistics persistence layer. Single-row lookups return ErrNotFound when
// nothing matches at or before the given date
type Store interface {
	// LatestDate returns the most recent upload date across all asset
	// classes, or the zero time when no statistics exist
	LatestDate(ctx context.Context) (time.Time, error)

	// AllForClass returns every row for the class at-or-before asOf,
	// most recent upload first
	AllForClass(ctx context.Context, class holdings.AssetClass, asOf time.Time) ([]*Statistic, error)

	ByCUSIP(ctx context.Context, class holdings.AssetClass, cusip string, asOf time.Time) (*Statistic, error)
	ByTicker(ctx context.Context, class holdings.AssetClass, ticker string, asOf time.Time) (*Statistic, error)
	ByName(ctx context.Context, class holdings.AssetClass, name string, asOf time.Time) (*Statistic, error)

	// ByNamePrefix matches rows whose sanitized position name begins
	// with the given word prefix
	ByNamePrefix(ctx context.Context, class holdings.AssetClass, prefix string, asOf time.Time) (*Statistic, error)

	// ReplaceForDate atomically swaps all rows for (class, date) with
	// the supplied set, matching the upload pipeline's
	// delete-then-insert semantics
	ReplaceForDate(ctx context.Context, class holdings.AssetClass, date time.Time, stats []*Statistic) error
}

const statColumns = `cusip, ticker_symbol, position, asset_class, beta::text, volatility::text, duration::text, event_date`

// PgStore implements Store against the risk_statistics table
type PgStore struct{}

func NewPgStore() *PgStore {
	return &PgStore{}
}

func (s *PgStore) LatestDate(ctx context.Context) (time.Time, error) {
	trx, err := database.Trx(ctx)
	if err != nil {
		return time.Time{}, err
	}

	var latest *time.Time
	row := trx.QueryRow(ctx, "SELECT max(event_date) FROM risk_statistics")
	if err := row.Scan(&latest); err != nil {
		log.Error().Stack().Err(err).Msg("could not query latest risk statistics date")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return time.Time{}, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

func (s *PgStore) AllForClass(ctx context.Context, class holdings.AssetClass, asOf time.Time) ([]*Statistic, error) {
	subLog := log.With().Str("AssetClass", class.String()).Time("AsOf", asOf).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		return nil, err
	}

	sql := `SELECT ` + statColumns + ` FROM risk_statistics WHERE asset_class=$1 AND event_date<=$2 ORDER BY event_date DESC`
	rows, err := trx.Query(ctx, sql, class.String(), asOf)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query risk statistics for preload")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	stats := make([]*Statistic, 0, 256)
	for rows.Next() {
		stat, err := scanStatistic(rows)
		if err != nil {
			subLog.Warn().Err(err).Msg("could not scan risk statistic row; skipping")
			continue
		}
		stats = append(stats, stat)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return stats, nil
}

func (s *PgStore) ByCUSIP(ctx context.Context, class holdings.AssetClass, cusip string, asOf time.Time) (*Statistic, error) {
	return s.findOne(ctx, class, "upper(cusip)=upper($2)", cusip, asOf)
}

func (s *PgStore) ByTicker(ctx context.Context, class holdings.AssetClass, ticker string, asOf time.Time) (*Statistic, error) {
	return s.findOne(ctx, class, "lower(ticker_symbol)=lower($2)", ticker, asOf)
}

func (s *PgStore) ByName(ctx context.Context, class holdings.AssetClass, name string, asOf time.Time) (*Statistic, error) {
	return s.findOne(ctx, class, "lower(position)=lower($2)", name, asOf)
}

func (s *PgStore) ByNamePrefix(ctx context.Context, class holdings.AssetClass, prefix string, asOf time.Time) (*Statistic, error) {
	return s.findOne(ctx, class, "lower(position) LIKE lower($2) || '%'", prefix, asOf)
}

func (s *PgStore) findOne(ctx context.Context, class holdings.AssetClass, predicate, value string, asOf time.Time) (*Statistic, error) {
	trx, err := database.Trx(ctx)
	if err != nil {
		return nil, err
	}

	sql := `SELECT ` + statColumns + ` FROM risk_statistics WHERE asset_class=$1 AND ` + predicate + ` AND event_date<=$3 ORDER BY event_date DESC LIMIT 1`
	row := trx.QueryRow(ctx, sql, class.String(), value, asOf)
	stat, err := scanStatistic(row)
	if err != nil {
		if rollbackErr := trx.Rollback(ctx); rollbackErr != nil {
			log.Error().Stack().Err(rollbackErr).Msg("could not rollback transaction")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Stack().Err(err).Str("Predicate", predicate).Msg("could not query risk statistic")
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return stat, nil
}

func (s *PgStore) ReplaceForDate(ctx context.Context, class holdings.AssetClass, date time.Time, stats []*Statistic) error {
	subLog := log.With().Str("AssetClass", class.String()).Time("Date", date).Int("NumRows", len(stats)).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		return err
	}

	if _, err := trx.Exec(ctx, "DELETE FROM risk_statistics WHERE asset_class=$1 AND event_date=$2", class.String(), date); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not delete existing risk statistics")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	insertSQL := `INSERT INTO risk_statistics (cusip, ticker_symbol, position, asset_class, beta, volatility, duration, event_date) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, stat := range stats {
		_, err := trx.Exec(ctx, insertSQL, stat.CUSIP, stat.Ticker, stat.Name, class.String(),
			decimalText(stat.Beta), decimalText(stat.Volatility), decimalText(stat.Duration), date)
		if err != nil {
			subLog.Error().Stack().Err(err).Str("Position", stat.Name).Msg("could not insert risk statistic")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not commit risk statistics upload")
		return err
	}

	subLog.Info().Msg("replaced risk statistics")
	return nil
}

func scanStatistic(row pgx.Row) (*Statistic, error) {
	var stat Statistic
	var classLabel string
	var beta, volatility, duration *string

	err := row.Scan(&stat.CUSIP, &stat.Ticker, &stat.Name, &classLabel, &beta, &volatility, &duration, &stat.EventDate)
	if err != nil {
		return nil, err
	}

	stat.Class = holdings.ParseAssetClass(classLabel)
	stat.Beta = parseDecimal(beta)
	stat.Volatility = parseDecimal(volatility)
	stat.Duration = parseDecimal(duration)
	return &stat, nil
}

func parseDecimal(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		log.Warn().Str("Value", *s).Msg("could not parse metric value")
		return nil
	}
	return &d
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
