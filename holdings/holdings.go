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
	"context"
	"errors"
	"time"

	"github.com/meridian-wealth/mw-api/database"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Scope levels a report may be requested at
const (
	LevelClient    = "client"
	LevelPortfolio = "portfolio"
	LevelAccount   = "account"
)

var (
	// ErrUnknownLevel is the one hard error in the reporting path; there
	// is no sane partial answer for a scope we cannot resolve
	ErrUnknownLevel = errors.New("unknown reporting level")
)

// Position is a single holding within a reporting scope. Values are decoded
// at load time; the raw stored form never leaves this package
type Position struct {
	Name       string          `json:"position_name"`
	CUSIP      string          `json:"cusip"`
	Ticker     string          `json:"ticker"`
	AssetLabel string          `json:"asset_class"`
	Class      AssetClass      `json:"class"`
	Value      decimal.Decimal `json:"adjusted_value"`
	Level      string          `json:"level"`
	LevelKey   string          `json:"level_key"`
	Date       time.Time       `json:"date"`
}

// NewPosition builds a position from upload-layer fields, normalizing the
// asset class and decoding the stored value
func NewPosition(name, cusip, ticker, assetLabel string, rawValue interface{}) *Position {
	return &Position{
		Name:       name,
		CUSIP:      cusip,
		Ticker:     ticker,
		AssetLabel: assetLabel,
		Class:      ParseAssetClass(assetLabel),
		Value:      DecodeValue(rawValue),
	}
}

func scopeColumn(level string) (string, error) {
	switch level {
	case LevelClient:
		return "client_id", nil
	case LevelPortfolio:
		return "portfolio_id", nil
	case LevelAccount:
		return "account_id", nil
	}
	return "", ErrUnknownLevel
}

// LoadPositions reads all positions for (level, levelKey) as of the given
// report date. Rows that fail to scan are skipped with a warning; the value
// column may hold plain numbers, formatted strings, or encrypted payloads
func LoadPositions(ctx context.Context, level, levelKey string, date time.Time) ([]*Position, error) {
	column, err := scopeColumn(level)
	if err != nil {
		return nil, err
	}

	subLog := log.With().Str("Level", level).Str("LevelKey", levelKey).Time("Date", date).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction for position load")
		return nil, err
	}

	sql := `SELECT position_name, COALESCE(cusip, ''), COALESCE(ticker, ''), COALESCE(asset_class, ''), adjusted_value FROM positions WHERE ` + column + `=$1 AND report_date=$2`
	rows, err := trx.Query(ctx, sql, levelKey, date)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query positions")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	positions := make([]*Position, 0, 64)
	for rows.Next() {
		var name, cusip, ticker, assetLabel string
		var rawValue string
		if err := rows.Scan(&name, &cusip, &ticker, &assetLabel, &rawValue); err != nil {
			subLog.Warn().Err(err).Msg("could not scan position row; skipping")
			continue
		}
		pos := NewPosition(name, cusip, ticker, assetLabel, rawValue)
		pos.Level = level
		pos.LevelKey = levelKey
		pos.Date = date
		positions = append(positions, pos)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return positions, nil
}
