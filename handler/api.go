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

	"github.com/meridian-wealth/mw-api/risk"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var (
	modelCfg  risk.ModelConfig
	riskStore risk.Store
)

// Setup wires the handlers to a risk store and model configuration; called
// once at startup before routes are registered
func Setup(store risk.Store, cfg risk.ModelConfig) {
	riskStore = store
	modelCfg = cfg
}

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2026-06-19T08:09:10.115924-05:00"`
}

type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

func Ping(c *fiber.Ctx) error {
	var response PingResponse
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		response = PingResponse{
			Status:  "error",
			Message: err.Error(),
			Time:    string(now),
		}
	} else {
		response = PingResponse{
			Status:  "success",
			Message: "API is alive",
			Time:    string(now),
		}
	}
	return c.JSON(response)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Status:  "error",
		Message: message,
	})
}

// reportDate parses the optional `date` query parameter, defaulting to
// today's date in the reference timezone
func reportDate(c *fiber.Ctx) (time.Time, error) {
	dateStr := c.Query("date", "")
	if dateStr == "" {
		year, month, day := time.Now().Date()
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", dateStr)
}
