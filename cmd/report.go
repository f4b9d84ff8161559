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

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-wealth/mw-api/common"
	"github.com/meridian-wealth/mw-api/database"
	"github.com/meridian-wealth/mw-api/holdings"
	"github.com/meridian-wealth/mw-api/risk"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportDate string

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Report date (YYYY-MM-DD); defaults to today")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <level> <key> {risk|allocation|liquidity}",
	Short: "calculate a report for the given scope (mostly useful for debugging)",
	Args:  cobra.MinimumNArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		common.SetupLogging()
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		date := time.Now().UTC().Truncate(24 * time.Hour)
		if reportDate != "" {
			var err error
			date, err = time.Parse("2006-01-02", reportDate)
			if err != nil {
				log.Fatal().Err(err).Str("Date", reportDate).Msg("could not parse report date")
			}
		}

		subLog := log.With().Str("Level", args[0]).Str("Key", args[1]).Time("Date", date).Logger()

		positions, err := holdings.LoadPositions(ctx, args[0], args[1], date)
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not load positions")
		}
		subLog.Debug().Int("NumPositions", len(positions)).Msg("positions loaded")

		var result any
		switch args[2] {
		case "risk":
			modelCfg, err := risk.LoadModelConfig(viper.GetString("risk.model_config"))
			if err != nil {
				subLog.Fatal().Err(err).Msg("could not load risk model configuration")
			}
			result, err = risk.NewAggregator(risk.NewPgStore(), modelCfg).Calculate(ctx, positions, date)
			if err != nil {
				subLog.Fatal().Err(err).Msg("could not calculate risk metrics")
			}
		case "allocation":
			result = holdings.BuildAllocation(positions)
		case "liquidity":
			result = holdings.BuildLiquidity(positions)
		default:
			subLog.Fatal().Str("Report", args[2]).Msg("unknown report type")
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not marshal report")
		}
		fmt.Println(string(out))
	},
}
