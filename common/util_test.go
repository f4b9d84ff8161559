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

package common_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/meridian-wealth/mw-api/common"
)

var _ = Describe("Encrypt / Decrypt", func() {
	BeforeEach(func() {
		// 32-byte key, hex encoded
		viper.Set("secret_key", "6368616e676520746869732070617373776f726420746f206120736563726574")
	})

	It("round-trips plaintext", func() {
		ciphertext, err := common.Encrypt([]byte("1234567.89"))
		Expect(err).To(BeNil())
		Expect(ciphertext).NotTo(Equal([]byte("1234567.89")))

		plaintext, err := common.Decrypt(ciphertext)
		Expect(err).To(BeNil())
		Expect(string(plaintext)).To(Equal("1234567.89"))
	})

	It("produces a fresh nonce per call", func() {
		a, err := common.Encrypt([]byte("same input"))
		Expect(err).To(BeNil())
		b, err := common.Encrypt([]byte("same input"))
		Expect(err).To(BeNil())
		Expect(a).NotTo(Equal(b))
	})

	It("rejects ciphertext shorter than the nonce", func() {
		_, err := common.Decrypt([]byte{0x01, 0x02})
		Expect(err).To(MatchError(common.ErrCiphertextTooShort))
	})

	It("rejects tampered ciphertext", func() {
		ciphertext, err := common.Encrypt([]byte("1234567.89"))
		Expect(err).To(BeNil())

		ciphertext[len(ciphertext)-1] ^= 0xff
		_, err = common.Decrypt(ciphertext)
		Expect(err).NotTo(BeNil())
	})

	It("fails with a non-hex key", func() {
		viper.Set("secret_key", "not hex")
		_, err := common.Encrypt([]byte("data"))
		Expect(err).NotTo(BeNil())
	})
})

var _ = Describe("CacheKey", func() {
	It("is deterministic", func() {
		Expect(common.CacheKey("risk", "client", "123")).To(Equal(common.CacheKey("risk", "client", "123")))
	})

	It("distinguishes part boundaries", func() {
		Expect(common.CacheKey("risk", "clien", "t123")).NotTo(Equal(common.CacheKey("risk", "client", "123")))
	})

	It("has fixed length", func() {
		Expect(common.CacheKey("allocation", "portfolio", "a-very-long-free-text-key with spaces")).To(HaveLen(32))
	})
})

var _ = Describe("Compress / Decompress", func() {
	It("round-trips data", func() {
		payload := []byte(`{"equity":{"beta":{"value":"1.75","coverage_pct":"100"}}}`)
		compressed, err := common.Compress(payload)
		Expect(err).To(BeNil())

		restored, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(restored).To(Equal(payload))
	})
})
