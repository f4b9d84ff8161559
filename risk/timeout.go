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
	"context"
	"time"
)

type guardResult[T any] struct {
	val      T
	err      error
	panicked bool
	panicVal interface{}
}

// RunWithTimeout executes fn on its own goroutine with a hard wall-clock
// deadline. fn receives a context that is canceled at the deadline and must
// check it between units of work so abandoned work actually stops instead
// of burning a goroutine in the background.
//
// If the deadline passes and dflt is non-nil the default is returned with
// no error (soft timeout); with a nil dflt the zero value and ErrTimeout
// are returned. An error or panic inside fn surfaces to the caller as long
// as fn finishes before the deadline; after a timeout its outcome is
// discarded
func RunWithTimeout[T any](ctx context.Context, timeout time.Duration, dflt *T, fn func(context.Context) (T, error)) (T, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)

	ch := make(chan guardResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- guardResult[T]{panicked: true, panicVal: r}
			}
		}()
		val, err := fn(runCtx)
		ch <- guardResult[T]{val: val, err: err}
	}()

	select {
	case res := <-ch:
		cancel()
		if res.panicked {
			panic(res.panicVal)
		}
		return res.val, res.err
	case <-runCtx.Done():
		// the worker sees runCtx.Done and winds down on its own;
		// whatever it produces afterwards is discarded
		cancel()
		if dflt != nil {
			return *dflt, nil
		}
		var zero T
		return zero, ErrTimeout
	}
}
