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

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// GetAllocation serves the asset allocation report for a scope
func GetAllocation(c *fiber.Ctx) error {
	return scopedReport(c, "allocation", func(positions []*holdings.Position) interface{} {
		return holdings.BuildAllocation(positions)
	})
}

// GetLiquidity serves the liquidity split for a scope
func GetLiquidity(c *fiber.Ctx) error {
	return scopedReport(c, "liquidity", func(positions []*holdings.Position) interface{} {
		return holdings.BuildLiquidity(positions)
	})
}

func scopedReport(c *fiber.Ctx, kind string, build func([]*holdings.Position) interface{}) error {
	level := c.Params("level")
	levelKey := c.Params("key")

	date, err := reportDate(c)
	if err != nil {
		return badRequest(c, "date must be formatted YYYY-MM-DD")
	}

	cacheKey := common.CacheKey(kind, level, levelKey, date.Format("2006-01-02"))
	if cached, err := common.CacheGet(cacheKey); err == nil && len(cached) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	positions, err := holdings.LoadPositions(c.Context(), level, levelKey, date)
	if err != nil {
		if errors.Is(err, holdings.ErrUnknownLevel) {
			return badRequest(c, "level must be one of client, portfolio, account")
		}
		log.Error().Stack().Err(err).Str("Level", level).Str("LevelKey", levelKey).Msg("could not load positions")
		return fiber.ErrInternalServerError
	}

	payload, err := json.Marshal(build(positions))
	if err != nil {
		log.Error().Stack().Err(err).Str("Kind", kind).Msg("could not serialize report")
		return fiber.ErrInternalServerError
	}

	if err := common.CacheSet(cacheKey, payload); err != nil {
		log.Warn().Err(err).Str("Kind", kind).Msg("could not cache report")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
