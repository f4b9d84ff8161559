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

package holdings

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/meridian-wealth/mw-api/common"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EncodedValuePrefix marks position values that were stored encrypted.
// The remainder of the string is base64 of an AES-GCM ciphertext sealed
// with the MW_SECRET key
const EncodedValuePrefix = "enc:"

// DecodeValue converts a raw stored position value into an exact decimal.
// Values arrive in several shapes: nil, an already-numeric type, a
// locale-formatted string like "$1,234.56", a percentage like "3.5%", or an
// encrypted payload. DecodeValue never fails; anything unparseable logs a
// warning and resolves to zero so a single bad row cannot sink a report
func DecodeValue(raw interface{}) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}

	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case string:
		return decodeString(v)
	case float64:
		// round-trip through a string; constructing a decimal straight
		// from a binary float drags the representation error along
		return requireDecimal(fmt.Sprintf("%v", v))
	case float32:
		return requireDecimal(fmt.Sprintf("%v", v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		return decodeString(fmt.Sprintf("%v", v))
	}
}

// EncodeValue is the inverse of the encrypted branch of DecodeValue
func EncodeValue(value decimal.Decimal) (string, error) {
	ciphertext, err := common.Encrypt([]byte(value.String()))
	if err != nil {
		return "", err
	}
	return EncodedValuePrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decodeString(raw string) decimal.Decimal {
	if strings.HasPrefix(raw, EncodedValuePrefix) {
		return decodeEncrypted(strings.TrimPrefix(raw, EncodedValuePrefix))
	}

	s := strings.TrimSpace(raw)
	if s == "" || strings.Contains(s, "*") {
		return decimal.Zero
	}

	lower := strings.ToLower(s)
	if lower == "nan" || lower == "n/a" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	pct := false
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		pct = true
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Warn().Str("RawValue", raw).Msg("could not parse position value")
		return decimal.Zero
	}
	if pct {
		return d.Div(decimal.NewFromInt(100))
	}
	return d
}

func decodeEncrypted(payload string) decimal.Decimal {
	ciphertext, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Warn().Err(err).Msg("could not base64 decode position value")
		return decimal.Zero
	}
	plaintext, err := common.Decrypt(ciphertext)
	if err != nil {
		log.Warn().Err(err).Msg("could not decrypt position value")
		return decimal.Zero
	}
	return decodeString(string(plaintext))
}

func requireDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Warn().Str("Value", s).Msg("could not convert numeric value to decimal")
		return decimal.Zero
	}
	return d
}
