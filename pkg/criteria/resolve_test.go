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

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/store"
	"github.com/labflow/slimsctl/pkg/store/memstore"
)

var _ = Describe("Resolve", func() {
	var (
		ctx     context.Context
		mem     *memstore.Store
		fetcher *store.Paginated
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, fetcher = lab()
	})

	resolve := func(s string) *criteria.Resolution {
		c, err := criteria.Parse(s)
		Expect(err).NotTo(HaveOccurred())
		res, err := criteria.Resolve(ctx, criteria.Unnest(c), fetcher)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	selected := func(res *criteria.Resolution) []int64 {
		Expect(res.Outcome).To(Equal(criteria.Resolved))
		Expect(criteria.IsResolved(res.Criterion)).To(BeTrue())
		records, err := fetcher.Fetch(ctx, criteria.TableContent, res.Criterion)
		Expect(err).NotTo(HaveOccurred())
		return record.PKs(records)
	}

	It("passes relation-free trees through untouched", func() {
		c := criteria.Conjunction(criteria.Equals("cntn_type", "DNA"), criteria.Negation(criteria.Equals("cntn_status", "Done")))
		res, err := criteria.Resolve(ctx, c, fetcher)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(criteria.Resolved))
		Expect(res.Criterion).To(Equal(c))
		Expect(mem.Calls()).To(BeEmpty())
	})

	It("narrows parent lookups by the sibling conjuncts", func() {
		res := resolve("cntn_type equals DNA and has_parent cntn_id equals S-1")
		Expect(res.Criterion).To(Equal(criteria.Conjunction(
			criteria.Equals("cntn_type", "DNA"),
			criteria.OneOf(criteria.FieldOriginalContent, "1"),
		)))
		Expect(contentCalls(mem)).To(Equal(2))
		Expect(selected(res)).To(Equal([]int64{2, 3}))
	})

	It("resolves derived records without a base", func() {
		res := resolve("has_derived cntn_status equals Pending")
		Expect(res.Criterion).To(Equal(criteria.OneOf(criteria.FieldPK, "1", "4")))
		Expect(selected(res)).To(Equal([]int64{1, 4}))
	})

	It("restricts derived lookups to children of the base", func() {
		res := resolve("cntn_id equals S-4 and has_derived cntn_status equals Pending")
		Expect(selected(res)).To(Equal([]int64{4}))
	})

	It("negates relationships", func() {
		Expect(selected(resolve("cntn_type equals DNA and not_has_parent cntn_id equals S-1"))).To(BeEmpty())
		Expect(selected(resolve("cntn_type equals Tissue and not_has_derived cntn_type equals RNA"))).To(Equal([]int64{1}))
	})

	It("follows chained parent scopes", func() {
		Expect(selected(resolve("cntn_id equals S-1 -> cntn_status equals Done"))).To(Equal([]int64{2}))
	})

	It("follows relationships nested in relationship operands", func() {
		res := resolve("has_derived (cntn_type equals DNA and has_parent cntn_id equals S-1)")
		Expect(selected(res)).To(Equal([]int64{1}))
	})

	It("scopes a leading arrow to the given parents", func() {
		c, err := criteria.Parse("-> cntn_status equals Pending", criteria.WithParents(1, 4))
		Expect(err).NotTo(HaveOccurred())
		res, err := criteria.Resolve(ctx, c, fetcher)
		Expect(err).NotTo(HaveOccurred())
		Expect(selected(res)).To(Equal([]int64{3, 5}))
	})

	Context("short circuits", func() {
		It("reports no match when a conjunct can never match", func() {
			res := resolve("cntn_type equals DNA and has_parent cntn_id equals S-4")
			Expect(res.Outcome).To(Equal(criteria.NoMatch))
			Expect(res.Criterion).To(BeNil())
			Expect(res.Diagnostics).NotTo(BeEmpty())
			Expect(res.Diagnostics[0].Outcome).To(Equal(criteria.NoMatch))
		})

		It("skips the remaining conjuncts after no match", func() {
			res := resolve("has_parent cntn_id equals NOPE and has_derived cntn_status equals Pending")
			Expect(res.Outcome).To(Equal(criteria.NoMatch))
			Expect(contentCalls(mem)).To(Equal(1))
		})

		It("drops conjuncts that match everything", func() {
			res := resolve("cntn_type equals DNA and not_has_parent cntn_id equals NOPE")
			Expect(res.Outcome).To(Equal(criteria.Resolved))
			Expect(res.Criterion).To(Equal(criteria.Equals("cntn_type", "DNA")))
		})

		It("reports no-op when every conjunct matches everything", func() {
			res := resolve("not_has_parent cntn_id equals NOPE and not_has_derived cntn_id equals NOPE")
			Expect(res.Outcome).To(Equal(criteria.NoOp))
			Expect(res.Criterion).To(BeNil())
		})

		It("suppresses disjuncts without matches", func() {
			res := resolve("cntn_id equals S-4 or has_parent cntn_id equals NOPE")
			Expect(res.Criterion).To(Equal(criteria.Equals("cntn_id", "S-4")))
		})

		It("reports no match when no disjunct can match", func() {
			res := resolve("has_parent cntn_id equals NOPE or has_derived cntn_id equals NOPE")
			Expect(res.Outcome).To(Equal(criteria.NoMatch))
		})

		It("reports no-op for a disjunction with a tautological member", func() {
			res := resolve("cntn_id equals S-4 or not_has_parent cntn_id equals NOPE")
			Expect(res.Outcome).To(Equal(criteria.NoOp))
		})

		It("drops a no-op disjunction from its conjunction", func() {
			res := resolve("cntn_type equals RNA and (cntn_id equals S-4 or not_has_parent cntn_id equals NOPE)")
			Expect(res.Criterion).To(Equal(criteria.Equals("cntn_type", "RNA")))
			Expect(selected(res)).To(Equal([]int64{5}))
		})
	})

	Context("negation", func() {
		It("turns a branch without matches into no-op", func() {
			res, err := criteria.Resolve(ctx, criteria.Negation(&criteria.HasParent{Inner: criteria.Equals("cntn_id", "NOPE")}), fetcher)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(criteria.NoOp))
			Expect(res.Diagnostics).To(ContainElement(HaveField("Outcome", criteria.NoOp)))
		})

		It("turns a branch matching everything into no match", func() {
			res, err := criteria.Resolve(ctx, criteria.Negation(&criteria.HasParent{Inner: criteria.Equals("cntn_id", "NOPE"), Negate: true}), fetcher)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(criteria.NoMatch))
		})

		It("wraps resolved branches", func() {
			res, err := criteria.Resolve(ctx, criteria.Negation(&criteria.HasParent{Inner: criteria.Equals("cntn_id", "S-1")}), fetcher)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Criterion).To(Equal(criteria.Negation(criteria.OneOf(criteria.FieldOriginalContent, "1"))))
			Expect(selected(res)).To(Equal([]int64{1, 4, 5}))
		})
	})

	It("de-duplicates parent keys", func() {
		res := resolve("has_derived cntn_type equals DNA")
		Expect(res.Criterion).To(Equal(criteria.OneOf(criteria.FieldPK, "1")))
	})

	It("returns store errors unchanged", func() {
		boom := errors.New("timeout")
		failing := fetchFunc(func(context.Context, string, criteria.Criterion) ([]*record.Record, error) {
			return nil, boom
		})
		_, err := criteria.Resolve(ctx, &criteria.HasParent{Inner: criteria.Equals("cntn_id", "S-1")}, failing)
		Expect(err).To(BeIdenticalTo(boom))
	})
})
