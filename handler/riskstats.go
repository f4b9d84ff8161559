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

package handler

import (
	"time"

	"github.com/meridian-wealth/mw-api/common"
	"github.com/meridian-wealth/mw-api/holdings"
	"github.com/meridian-wealth/mw-api/messenger"
	"github.com/meridian-wealth/mw-api/risk"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type riskStatRow struct {
	CUSIP      string           `json:"cusip"`
	Ticker     string           `json:"ticker_symbol"`
	Position   string           `json:"position"`
	Beta       *decimal.Decimal `json:"beta"`
	Volatility *decimal.Decimal `json:"volatility"`
	Duration   *decimal.Decimal `json:"duration"`
}

type riskStatsUpload struct {
	Date       string        `json:"date"`
	AssetClass string        `json:"asset_class"`
	Rows       []riskStatRow `json:"rows"`
}

type riskStatsUploadResponse struct {
	Status  string `json:"status" example:"success"`
	JobID   string `json:"job_id"`
	NumRows int    `json:"num_rows"`
}

// UploadRiskStatistics replaces all risk-statistic rows for one
// (asset class, date). The upload layer has already parsed the spreadsheet;
// this endpoint receives clean rows and owns the replace transaction,
// cache invalidation, and the downstream notification
func UploadRiskStatistics(c *fiber.Ctx) error {
	var upload riskStatsUpload
	if err := json.Unmarshal(c.Body(), &upload); err != nil {
		log.Warn().Err(err).Msg("could not parse risk statistics upload")
		return badRequest(c, "could not parse request body")
	}

	date, err := time.Parse("2006-01-02", upload.Date)
	if err != nil {
		return badRequest(c, "date must be formatted YYYY-MM-DD")
	}

	class := holdings.ParseAssetClass(upload.AssetClass)
	if risk.MetricsFor(class) == nil {
		return badRequest(c, "asset_class must map to equity, fixed income, alternatives, or hard currency")
	}

	jobID := uuid.New()
	subLog := log.With().Str("JobID", jobID.String()).Str("AssetClass", class.String()).Logger()

	stats := make([]*risk.Statistic, 0, len(upload.Rows))
	for _, row := range upload.Rows {
		stats = append(stats, &risk.Statistic{
			CUSIP:      row.CUSIP,
			Ticker:     row.Ticker,
			Name:       row.Position,
			Class:      class,
			Beta:       row.Beta,
			Volatility: row.Volatility,
			Duration:   row.Duration,
			EventDate:  date,
		})
	}

	if err := riskStore.ReplaceForDate(c.Context(), class, date, stats); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not replace risk statistics")
		return fiber.ErrInternalServerError
	}

	// cached reports reference the replaced rows
	common.CachePurge()

	if err := messenger.PublishRiskStatsUploaded(jobID, class.String(), date, len(stats)); err != nil {
		subLog.Warn().Err(err).Msg("could not publish upload notification")
	}

	return c.JSON(riskStatsUploadResponse{
		Status:  "success",
		JobID:   jobID.String(),
		NumRows: len(stats),
	})
}
