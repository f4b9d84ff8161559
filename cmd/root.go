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
	"fmt"
	"os"

	"github.com/meridian-wealth/mw-api/common"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// MW secret key
	bindEnv("secret_key", "MW_SECRET")
	rootCmd.PersistentFlags().String("secret-key", "", "Secret encryption key")
	bindPFlag("secret_key", "secret-key")

	// AUTH0
	bindEnv("auth0.domain", "AUTH0_DOMAIN")
	rootCmd.PersistentFlags().String("auth0-domain", "", "Auth0 domain")
	bindPFlag("auth0.domain", "auth0-domain")

	// Database
	bindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	bindPFlag("database.url", "database-url")

	// NATS
	bindEnv("nats.server", "NATS_URL")
	rootCmd.PersistentFlags().String("nats-server", "", "NATS server to publish notifications to, if blank don't publish")
	bindPFlag("nats.server", "nats-server")

	bindEnv("nats.credentials", "NATS_CREDENTIALS")
	rootCmd.PersistentFlags().String("nats-credentials", "", "NATS credentials file")
	bindPFlag("nats.credentials", "nats-credentials")

	// Risk model configuration
	bindEnv("risk.model_config", "MW_RISK_MODEL_CONFIG")
	rootCmd.PersistentFlags().String("risk-model-config", "", "Path to TOML file with risk model settings")
	bindPFlag("risk.model_config", "risk-model-config")

	// Logging configuration
	bindEnv("log.level", "MW_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	bindPFlag("log.level", "log-level")

	bindEnv("log.report_caller", "MW_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	bindPFlag("log.report_caller", "log-report-caller")

	bindEnv("log.output", "MW_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindPFlag("log.output", "log-output")

	bindEnv("log.pretty", "MW_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable format")
	bindPFlag("log.pretty", "log-pretty")

	// OTLP tracing
	bindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector endpoint, if blank tracing is disabled")
	bindPFlag("otlp.endpoint", "otlp-endpoint")
}

func bindEnv(key string, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind environment variable")
	}
}

func bindPFlag(key string, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind flag")
	}
}

var rootCmd = &cobra.Command{
	Use:     "mwapi",
	Version: common.CurrentVersion.String(),
	Short:   "Meridian Wealth portfolio reporting API",
	Long:    `Backend API that computes risk, allocation, and liquidity reports over client holdings.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
