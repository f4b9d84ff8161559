// Copyright 2024-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pgxmockhelper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

type CSVRows struct {
	rows    [][]any
	header  []string
	dateCol int
}

// NewCSVRows reads a CSV fixture and converts columns per typeMap. Supported
// conversions are "date" (YYYY-MM-DD), "float64", and "decimal" which yields a
// *string so scans into nullable numeric-as-text columns work; empty decimal
// cells become NULL
func NewCSVRows(csvFn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", csvFn).Logger()

	rows := &CSVRows{
		dateCol: -1,
		rows:    make([][]any, 0),
	}
	rawData, err := os.ReadFile(csvFn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not read file")
	}

	// break raw data into an array of lines
	lines := strings.Split(string(rawData), "\n")

	// sanity checks:
	// - array length is at least 2 (header + trailing newline)
	// - make sure last line ends in newline
	if len(lines) < 2 {
		subLog.Panic().Int("NumLines", len(lines)).Msg("input file does not have enough lines, need at least 2 (header + trailing new line)")
	}
	if lines[len(lines)-1] != "" {
		subLog.Panic().Msg("input file is missing a trailing new line")
	}

	// parse header
	headerRaw := lines[0]
	lines = lines[1 : len(lines)-1] // discard first and last rows
	rows.header = strings.Split(headerRaw, ",")

	// parse each line and create a row
	for _, ll := range lines {
		cols := make([]any, len(rows.header))
		parts := strings.Split(ll, ",")
		for idx, val := range parts {
			colName := rows.header[idx]
			if typeConv, ok := typeMap[colName]; ok {
				switch typeConv {
				case "date":
					parsed, err := time.Parse("2006-01-02", val)
					if err != nil {
						subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to datetime of format 2006-01-02")
					}
					cols[idx] = parsed
					rows.dateCol = idx
				case "float64":
					parsed, err := strconv.ParseFloat(val, 64)
					if err != nil {
						subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
					}
					cols[idx] = parsed
				case "decimal":
					if val == "" {
						cols[idx] = (*string)(nil)
					} else {
						v := val
						cols[idx] = &v
					}
				default:
					// no type conversion specified - use as is
					cols[idx] = val
				}
			} else {
				cols[idx] = val
			}
		}
		rows.rows = append(rows.rows, cols)
	}

	return rows
}

// NotAfter keeps only rows whose date column is at or before t
func (csvRows *CSVRows) NotAfter(t time.Time) *CSVRows {
	newRows := make([][]any, 0, len(csvRows.rows))
	if len(csvRows.rows) == 0 {
		return csvRows
	}
	if csvRows.dateCol == -1 {
		log.Panic().Time("t", t).Msg("no date column found")
	}
	for _, row := range csvRows.rows {
		d := row[csvRows.dateCol].(time.Time)
		if d.Before(t) || d.Equal(t) {
			newRows = append(newRows, row)
		}
	}
	csvRows.rows = newRows
	return csvRows
}

func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

var statTypeMap = map[string]string{
	"beta":       "decimal",
	"volatility": "decimal",
	"duration":   "decimal",
	"event_date": "date",
}

// MockStatPreload registers expectations for a whole-class risk statistics
// query fed from a CSV fixture
func MockStatPreload(db pgxmock.PgxConnIface, fn string, asOf time.Time) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT (.+) FROM risk_statistics WHERE asset_class=(.+) ORDER BY event_date DESC").
		WillReturnRows(NewCSVRows(fn, statTypeMap).NotAfter(asOf).Rows())
	db.ExpectCommit()
}

// MockStatLookup registers expectations for a single-row risk statistics
// lookup fed from a CSV fixture
func MockStatLookup(db pgxmock.PgxConnIface, fn string, asOf time.Time) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT (.+) FROM risk_statistics WHERE (.+) LIMIT 1").
		WillReturnRows(NewCSVRows(fn, statTypeMap).NotAfter(asOf).Rows())
	db.ExpectCommit()
}

// MockPositionsQuery registers expectations for a holdings query fed from a
// CSV fixture
func MockPositionsQuery(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT (.+) FROM positions WHERE").
		WillReturnRows(NewCSVRows(fn, nil).Rows())
	db.ExpectCommit()
}
