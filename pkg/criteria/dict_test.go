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
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/labflow/slimsctl/pkg/criteria"
)

var _ = Describe("Dict", func() {
	It("encodes leaves with their wire operators", func() {
		c, err := criteria.Parse("cntn_id equals_ignore_case s-1 and cntn_pk one_of 1 2 and cntn_createdOn between 1 9")
		Expect(err).NotTo(HaveOccurred())
		want := map[string]any{
			"operator": "and",
			"criteria": []any{
				map[string]any{"operator": "iEquals", "fieldName": "cntn_id", "value": "s-1"},
				map[string]any{"operator": "inSet", "fieldName": "cntn_pk", "value": []string{"1", "2"}},
				map[string]any{"operator": "betweenInclusive", "fieldName": "cntn_createdOn", "start": "1", "end": "9"},
			},
		}
		Expect(cmp.Diff(want, criteria.Dict(criteria.Unnest(c)))).To(BeEmpty())
	})

	It("wraps negated operators in not", func() {
		want := map[string]any{
			"operator": "not",
			"criteria": []any{map[string]any{"operator": "endsWith", "fieldName": "cntn_id", "value": "x"}},
		}
		got := criteria.Dict(criteria.NewLeaf("cntn_id", criteria.OpNotEndsWith, "x"))
		Expect(cmp.Diff(want, got)).To(BeEmpty())
	})

	It("encodes relationship operators", func() {
		c, err := criteria.Parse("not_has_parent cntn_id contains x")
		Expect(err).NotTo(HaveOccurred())
		want := map[string]any{
			"operator": "not",
			"criteria": []any{map[string]any{
				"operator": "has_parent",
				"value":    map[string]any{"operator": "iContains", "fieldName": "cntn_id", "value": "x"},
			}},
		}
		Expect(cmp.Diff(want, criteria.Dict(c))).To(BeEmpty())
	})

	It("encodes nil as nil", func() {
		Expect(criteria.Dict(nil)).To(BeNil())
	})
})
