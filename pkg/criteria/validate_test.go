// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package criteria_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
)

var _ = Describe("Validate", func() {
	ctx := context.Background()

	It("accepts known fields, relationship operands included", func() {
		_, schema := lab()
		c, err := criteria.Parse("cntn_type equals DNA and has_parent (cntn_id equals S-1 or cntn_pk equals 1)")
		Expect(err).NotTo(HaveOccurred())
		Expect(criteria.Validate(ctx, c, schema)).To(Succeed())
	})

	It("reports every unknown field", func() {
		_, schema := lab()
		c, err := criteria.Parse("cntn_id equals S-1 and has_parent cntn_color equals red and cntn_size equals 3")
		Expect(err).NotTo(HaveOccurred())
		err = criteria.Validate(ctx, c, schema)
		Expect(err).To(MatchError(criteria.ErrInvalidField))
		Expect(multierr.Errors(err)).To(HaveLen(2))
		Expect(err.Error()).To(ContainSubstring(`"cntn_color"`))
		Expect(err.Error()).To(ContainSubstring(`"cntn_size"`))
	})

	It("looks each field up once", func() {
		mem, schema := lab()
		c, err := criteria.Parse("cntn_id equals a or cntn_id equals b or cntn_nope equals c or cntn_nope equals d")
		Expect(err).NotTo(HaveOccurred())
		Expect(multierr.Errors(criteria.Validate(ctx, c, schema))).To(HaveLen(1))
		Expect(mem.Calls()).To(HaveLen(2))
	})

	It("returns store errors unchanged", func() {
		boom := errors.New("connection refused")
		failing := fetchFunc(func(context.Context, string, criteria.Criterion) ([]*record.Record, error) {
			return nil, boom
		})
		Expect(criteria.Validate(ctx, criteria.Equals("cntn_id", "S-1"), failing)).To(BeIdenticalTo(boom))
	})
})
