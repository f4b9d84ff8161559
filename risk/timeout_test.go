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

package risk_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meridian-wealth/mw-api/risk"
)

var _ = Describe("RunWithTimeout", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("returns the function's result when it finishes in time", func() {
		val, err := risk.RunWithTimeout(ctx, time.Second, nil, func(_ context.Context) (int, error) {
			return 42, nil
		})
		Expect(err).To(BeNil())
		Expect(val).To(Equal(42))
	})

	It("propagates the function's error", func() {
		boom := errors.New("boom")
		_, err := risk.RunWithTimeout(ctx, time.Second, nil, func(_ context.Context) (int, error) {
			return 0, boom
		})
		Expect(err).To(MatchError(boom))
	})

	It("returns the default on timeout when one is supplied", func() {
		dflt := 7
		val, err := risk.RunWithTimeout(ctx, 20*time.Millisecond, &dflt, func(runCtx context.Context) (int, error) {
			<-runCtx.Done()
			time.Sleep(50 * time.Millisecond)
			return 0, runCtx.Err()
		})
		Expect(err).To(BeNil())
		Expect(val).To(Equal(7))
	})

	It("returns ErrTimeout on timeout with no default", func() {
		_, err := risk.RunWithTimeout(ctx, 20*time.Millisecond, nil, func(runCtx context.Context) (int, error) {
			<-runCtx.Done()
			time.Sleep(50 * time.Millisecond)
			return 0, runCtx.Err()
		})
		Expect(err).To(MatchError(risk.ErrTimeout))
	})

	It("cancels the worker's context at the deadline", func() {
		canceled := make(chan struct{})
		_, err := risk.RunWithTimeout(ctx, 20*time.Millisecond, nil, func(runCtx context.Context) (int, error) {
			<-runCtx.Done()
			close(canceled)
			time.Sleep(50 * time.Millisecond)
			return 0, runCtx.Err()
		})
		Expect(err).To(MatchError(risk.ErrTimeout))
		Eventually(canceled).Should(BeClosed())
	})

	It("re-raises a panic from the worker", func() {
		Expect(func() {
			_, _ = risk.RunWithTimeout(ctx, time.Second, nil, func(_ context.Context) (int, error) {
				panic("worker exploded")
			})
		}).To(PanicWith("worker exploded"))
	})

	It("honors an already-canceled parent context", func() {
		canceledCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := risk.RunWithTimeout(canceledCtx, time.Second, nil, func(runCtx context.Context) (int, error) {
			<-runCtx.Done()
			time.Sleep(50 * time.Millisecond)
			return 0, runCtx.Err()
		})
		Expect(err).To(MatchError(risk.ErrTimeout))
	})
})
