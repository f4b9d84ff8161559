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
	"errors"

	"github.com/meridian-wealth/mw-api/common"
	"github.com/meridian-wealth/mw-api/holdings"
	"github.com/meridian-wealth/mw-api/risk"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// GetRiskMetrics serves the aggregated risk metrics report for a scope.
// Responses are cached; a cache hit skips the database entirely
func GetRiskMetrics(c *fiber.Ctx) error {
	level := c.Params("level")
	levelKey := c.Params("key")

	date, err := reportDate(c)
	if err != nil {
		return badRequest(c, "date must be formatted YYYY-MM-DD")
	}

	cacheKey := common.CacheKey("risk", level, levelKey, date.Format("2006-01-02"))
	if cached, err := common.CacheGet(cacheKey); err == nil && len(cached) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	subLog := log.With().Str("Level", level).Str("LevelKey", levelKey).Logger()

	positions, err := holdings.LoadPositions(c.Context(), level, levelKey, date)
	if err != nil {
		if errors.Is(err, holdings.ErrUnknownLevel) {
			return badRequest(c, "level must be one of client, portfolio, account")
		}
		subLog.Error().Stack().Err(err).Msg("could not load positions")
		return fiber.ErrInternalServerError
	}

	aggregator := risk.NewAggregator(riskStore, modelCfg)
	report, err := aggregator.Calculate(c.Context(), positions, date)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not calculate risk metrics")
		return fiber.ErrInternalServerError
	}

	payload, err := json.Marshal(report)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not serialize risk metrics report")
		return fiber.ErrInternalServerError
	}

	if err := common.CacheSet(cacheKey, payload); err != nil {
		subLog.Warn().Err(err).Msg("could not cache risk metrics report")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
