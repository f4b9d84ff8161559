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
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ModelConfig carries the tunable constants of the matching and
// aggregation model. The duration thresholds and partial-match word counts
// are empirical choices tuned to the naming conventions of the source
// spreadsheets, so they live in config rather than in the code
type ModelConfig struct {
	// Duration category boundaries in years; at-or-between is "market"
	ShortDurationYears decimal.Decimal `toml:"short_duration_years"`
	LongDurationYears  decimal.Decimal `toml:"long_duration_years"`

	// Partial-name fallback widths. Bond names are long and
	// issuer-prefixed so fixed income compares more leading words
	FixedIncomeNameWords  int `toml:"fixed_income_name_words"`
	AlternativesNameWords int `toml:"alternatives_name_words"`
	MinSingleWordLen      int `toml:"min_single_word_len"`

	// Wall-clock deadlines
	PreloadSeconds int `toml:"preload_seconds"`
	BucketSeconds  int `toml:"bucket_seconds"`
}

// DefaultModelConfig returns the model constants used in production
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		ShortDurationYears:    decimal.NewFromInt(2),
		LongDurationYears:     decimal.NewFromInt(7),
		FixedIncomeNameWords:  3,
		AlternativesNameWords: 2,
		MinSingleWordLen:      3,
		PreloadSeconds:        5,
		BucketSeconds:         30,
	}
}

// LoadModelConfig overlays a TOML file on top of the defaults. A missing
// file is not an error; a malformed one is
func LoadModelConfig(path string) (ModelConfig, error) {
	cfg := DefaultModelConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("Path", path).Msg("no model config file; using defaults")
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		log.Error().Stack().Err(err).Str("Path", path).Msg("could not parse model config")
		return DefaultModelConfig(), err
	}
	return cfg, nil
}

// PreloadTimeout bounds how long a cold-cache preload may run
func (cfg ModelConfig) PreloadTimeout() time.Duration {
	return time.Duration(cfg.PreloadSeconds) * time.Second
}

// BucketTimeout bounds one asset class's aggregation pass
func (cfg ModelConfig) BucketTimeout() time.Duration {
	return time.Duration(cfg.BucketSeconds) * time.Second
}
