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
	"sort"
	"sync"
)

// UnmatchedTracker collects position names that failed to match a risk
// statistic, keyed by asset class display name. One tracker is created per
// aggregation run and threaded through the matcher, so concurrent report
// requests never interleave their diagnostics. The mutex matters because a
// bucket worker that overran its deadline may still record entries while
// the next bucket is being processed
type UnmatchedTracker struct {
	mu      sync.Mutex
	byClass map[string]map[string]struct{}
}

func NewUnmatchedTracker() *UnmatchedTracker {
	return &UnmatchedTracker{
		byClass: make(map[string]map[string]struct{}, 4),
	}
}

// Record notes a security that could not be matched
func (t *UnmatchedTracker) Record(positionName, className string) {
	if positionName == "" {
		positionName = "(unnamed security)"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	names, ok := t.byClass[className]
	if !ok {
		names = make(map[string]struct{}, 8)
		t.byClass[className] = names
	}
	names[positionName] = struct{}{}
}

// Snapshot returns the unmatched securities per asset class, sorted for
// stable report output
func (t *UnmatchedTracker) Snapshot() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string][]string, len(t.byClass))
	for className, names := range t.byClass {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		out[className] = list
	}
	return out
}
