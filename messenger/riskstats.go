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

package messenger

import (
	"time"

	"github.com/meridian-wealth/mw-api/common"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// RiskStatsUploaded announces that a risk-statistics upload replaced the
// rows for one (asset class, date); report caches keyed on the old data
// are stale once this fires
type RiskStatsUploaded struct {
	JobID      string `json:"job_id"`
	AssetClass string `json:"asset_class"`
	EventDate  string `json:"event_date"`
	NumRows    int    `json:"num_rows"`
	UploadTime string `json:"upload_time"`
}

// PublishRiskStatsUploaded emits an upload notification; a no-op when NATS
// is not configured
func PublishRiskStatsUploaded(jobID uuid.UUID, assetClass string, eventDate time.Time, numRows int) error {
	if !Connected() {
		return nil
	}

	nyc := common.GetTimezone()
	subject := viper.GetString("nats.riskstats_subject")

	msg := RiskStatsUploaded{
		JobID:      jobID.String(),
		AssetClass: assetClass,
		EventDate:  eventDate.Format("2006-01-02"),
		NumRows:    numRows,
		UploadTime: time.Now().In(nyc).String(),
	}

	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize upload notification to JSON")
		return err
	}

	if _, err := jetStream.Publish(subject, jsonMsg); err != nil {
		log.Error().Err(err).Msg("could not publish upload notification")
		return err
	}

	return nil
}
