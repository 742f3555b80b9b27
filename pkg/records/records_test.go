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

package records_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/records"
	"github.com/labflow/slimsctl/pkg/store"
	"github.com/labflow/slimsctl/pkg/store/memstore"
	"github.com/labflow/slimsctl/pkg/timestamp"
)

var _ = Describe("Service", func() {
	var (
		ctx   context.Context
		mem   *memstore.Store
		clock timestamp.MockClock
		svc   *records.Service
	)

	find := func(q records.Query) *records.Result {
		res, err := svc.Find(ctx, q)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		mem, err = memstore.Load("testdata/lab.yaml")
		Expect(err).NotTo(HaveOccurred())
		clock = timestamp.NewMockClock()
		clock.Set(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
		svc = records.NewService(store.NewPaginated(mem, store.WithPageSize(2)), records.WithClock(clock))
	})

	Describe("Find", func() {
		It("fetches the records matching the criteria", func() {
			res := find(records.Query{Criteria: "cntn_type equals DNA"})
			Expect(record.PKs(res.Records)).To(Equal([]int64{2, 3}))
			Expect(res.Outcome).To(Equal("resolved"))
			Expect(res.Criterion).To(Equal("cntn_type equals DNA"))
		})

		It("combines identifiers and age", func() {
			res := find(records.Query{IDs: []string{"S-1", "S-3", "S-5"}, MaxAge: "3d"})
			Expect(record.PKs(res.Records)).To(Equal([]int64{3, 5}))
		})

		It("keeps records derived from the given ones", func() {
			res := find(records.Query{DerivedFrom: []int64{1}})
			Expect(record.PKs(res.Records)).To(Equal([]int64{2, 3}))
		})

		It("applies a leading arrow to the parents", func() {
			res := find(records.Query{Criteria: "-> cntn_status equals Pending", Parents: []int64{1, 4}})
			Expect(record.PKs(res.Records)).To(Equal([]int64{3, 5}))
		})

		It("resolves relationships before fetching", func() {
			res := find(records.Query{Criteria: "cntn_status equals Done and has_parent cntn_id equals S-1"})
			Expect(record.PKs(res.Records)).To(Equal([]int64{2}))
		})

		It("skips the fetch when nothing can match", func() {
			res := find(records.Query{Criteria: "has_parent cntn_id equals NOPE"})
			Expect(res.Outcome).To(Equal("no-match"))
			Expect(res.Records).To(BeEmpty())
			Expect(res.Diagnostics).NotTo(BeEmpty())
		})

		It("fetches everything when every record matches", func() {
			res := find(records.Query{Criteria: "not_has_parent cntn_id equals NOPE"})
			Expect(res.Outcome).To(Equal("no-op"))
			Expect(res.Criterion).To(BeEmpty())
			Expect(res.Records).To(HaveLen(5))
		})

		It("refuses full scans when asked to", func() {
			svc = records.NewService(store.NewPaginated(mem), records.RefuseFullScan(true))
			res := find(records.Query{Criteria: "not_has_parent cntn_id equals NOPE"})
			Expect(res.Outcome).To(Equal("no-op"))
			Expect(res.Records).To(BeEmpty())
		})

		DescribeTable("rejects invalid queries",
			func(q records.Query, want error) {
				_, err := svc.Find(ctx, q)
				Expect(err).To(MatchError(want))
			},
			Entry("empty", records.Query{}, records.ErrEmptyQuery),
			Entry("syntax", records.Query{Criteria: "cntn_id equals"}, criteria.ErrSyntax),
			Entry("unknown field", records.Query{Criteria: "cntn_colour equals red"}, criteria.ErrInvalidField),
			Entry("bad age", records.Query{IDs: []string{"S-1"}, MaxAge: "soon"}, timestamp.ErrInvalidAge),
			Entry("missing parents", records.Query{Criteria: "-> cntn_id equals S-2"}, criteria.ErrMissingParentContext),
		)
	})

	Describe("SkipCompleted", func() {
		It("drops records with a matching derived record", func() {
			found := find(records.Query{Criteria: "cntn_type equals Tissue"}).Records
			pending, err := svc.SkipCompleted(ctx, found, "cntn_status equals Done")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.PKs(pending)).To(Equal([]int64{4}))
		})

		It("keeps everything without a check", func() {
			found := find(records.Query{Criteria: "cntn_type equals Tissue"}).Records
			pending, err := svc.SkipCompleted(ctx, found, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(Equal(found))
		})
	})
})
