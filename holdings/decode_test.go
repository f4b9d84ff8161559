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

package holdings_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/meridian-wealth/mw-api/holdings"
)

var _ = Describe("DecodeValue", func() {
	DescribeTable("decoding raw stored values",
		func(raw interface{}, expected string) {
			Expect(holdings.DecodeValue(raw).String()).To(Equal(expected))
		},

		Entry("nil", nil, "0"),
		Entry("plain number string", "1234.56", "1234.56"),
		Entry("currency formatting", "$1,234,567.89", "1234567.89"),
		Entry("negative currency", "-$500.25", "-500.25"),
		Entry("internal spaces", "1 234 567", "1234567"),
		Entry("percentage", "3.5%", "0.035"),
		Entry("empty string", "", "0"),
		Entry("whitespace only", "   ", "0"),
		Entry("masked value", "****", "0"),
		Entry("nan", "NaN", "0"),
		Entry("n/a", "N/A", "0"),
		Entry("unparseable text", "call the custodian", "0"),
		Entry("int", 42, "42"),
		Entry("int64", int64(-17), "-17"),
		Entry("float64 avoids representation error", 0.1, "0.1"),
		Entry("large float64", 1234567.89, "1234567.89"),
	)

	It("passes decimals through unchanged", func() {
		d := decimal.RequireFromString("99.999")
		Expect(holdings.DecodeValue(d)).To(Equal(d))
	})

	Describe("encrypted values", func() {
		BeforeEach(func() {
			viper.Set("secret_key", "6368616e676520746869732070617373776f726420746f206120736563726574")
		})

		It("round-trips through EncodeValue", func() {
			value := decimal.RequireFromString("1234567.89")

			encoded, err := holdings.EncodeValue(value)
			Expect(err).To(BeNil())
			Expect(encoded).To(HavePrefix(holdings.EncodedValuePrefix))

			Expect(holdings.DecodeValue(encoded).String()).To(Equal("1234567.89"))
		})

		It("resolves a corrupt payload to zero", func() {
			Expect(holdings.DecodeValue("enc:not-base64!").String()).To(Equal("0"))
		})

		It("resolves an undecryptable payload to zero", func() {
			encoded, err := holdings.EncodeValue(decimal.RequireFromString("10"))
			Expect(err).To(BeNil())

			viper.Set("secret_key", "0000000000000000000000000000000000000000000000000000000000000000")
			Expect(holdings.DecodeValue(encoded).String()).To(Equal("0"))
		})
	})
})
