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
	"regexp"
	"strings"
)

var (
	identifierStripRE = regexp.MustCompile(`[^\w\s.\-]+`)
	whitespaceRE      = regexp.MustCompile(`\s+`)
)

// SanitizeIdentifier normalizes a security identifier for matching: drop
// non-ASCII bytes, strip everything outside word characters / whitespace /
// '.' / '-', collapse runs of whitespace, trim, lower-case. The two source
// spreadsheets disagree on casing, stray punctuation and unicode dashes,
// so both sides of every comparison pass through here
func SanitizeIdentifier(raw string) string {
	ascii := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x80 {
			ascii = append(ascii, raw[i])
		}
	}

	s := identifierStripRE.ReplaceAllString(string(ascii), "")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeCUSIP normalizes like SanitizeIdentifier but upper-cases, since
// CUSIPs are canonically upper-case in the statistics store
func SanitizeCUSIP(raw string) string {
	return strings.ToUpper(SanitizeIdentifier(raw))
}

// FirstWords returns the first n space-separated words of s joined by
// single spaces; fewer words than n returns s unchanged
func FirstWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
