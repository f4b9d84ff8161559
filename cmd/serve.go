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
	"os"
	"os/signal"

	"github.com/meridian-wealth/mw-api/common"
	"github.com/meridian-wealth/mw-api/database"
	"github.com/meridian-wealth/mw-api/handler"
	"github.com/meridian-wealth/mw-api/jwks"
	"github.com/meridian-wealth/mw-api/messenger"
	"github.com/meridian-wealth/mw-api/middleware"
	"github.com/meridian-wealth/mw-api/observability/opentelemetry"
	"github.com/meridian-wealth/mw-api/risk"
	"github.com/meridian-wealth/mw-api/router"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	bindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mw-api server",
	Long:  `Run HTTP server that implements the Meridian Wealth reporting API`,
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging and cache")

		// tracing is opt-in; only start the exporter when a collector is configured
		if viper.GetString("otlp.endpoint") != "" {
			shutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not initialize tracing")
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down trace exporter")
				}
			}()
		}

		// setup database
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		// notifications are best-effort; the API works without a broker
		if viper.GetString("nats.server") != "" {
			if err := messenger.Initialize(); err != nil {
				log.Warn().Err(err).Msg("could not connect to NATS; notifications disabled")
			}
		}

		modelCfg, err := risk.LoadModelConfig(viper.GetString("risk.model_config"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not load risk model configuration")
		}
		handler.Setup(risk.NewPgStore(), modelCfg)

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		go func() {
			sig := <-quit
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("could not shutdown server")
			}
		}()

		// Configure CORS
		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Configure authentication
		jwksAutoRefresh, jwksURL := jwks.SetupJWKS()

		// Setup routes
		router.SetupRoutes(app, jwksAutoRefresh, jwksURL)

		// periodically drop cached reports so uploads made outside this
		// process become visible
		scheduler := gocron.NewScheduler(common.GetTimezone())
		if _, err := scheduler.Every(1).Hours().Do(common.CachePurge); err != nil {
			log.Error().Err(err).Msg("could not schedule cache purge")
		}
		scheduler.StartAsync()

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	},
}
