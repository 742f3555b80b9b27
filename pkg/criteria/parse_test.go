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
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/yaml"

	"github.com/labflow/slimsctl/pkg/criteria"
)

type parseFixture struct {
	Criteria string `json:"criteria"`
	Parsed   string `json:"parsed"`
	Unnested string `json:"unnested"`
	Error    string `json:"error"`
}

func loadParseFixtures() []parseFixture {
	data, err := os.ReadFile("testdata/criteria.yaml")
	if err != nil {
		panic(err)
	}
	var fixtures []parseFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		panic(err)
	}
	return fixtures
}

var _ = Describe("Parse", func() {
	Context("fixtures", func() {
		for _, f := range loadParseFixtures() {
			It(f.Criteria, func() {
				c, err := criteria.Parse(f.Criteria)
				switch f.Error {
				case "syntax":
					Expect(err).To(MatchError(criteria.ErrSyntax))
					return
				case "field":
					Expect(err).To(MatchError(criteria.ErrInvalidField))
					return
				}
				Expect(err).NotTo(HaveOccurred())
				Expect(c.String()).To(Equal(f.Parsed))
				unnested := f.Unnested
				if unnested == "" {
					unnested = f.Parsed
				}
				Expect(criteria.Unnest(c).String()).To(Equal(unnested))
			})
		}
	})

	It("splits at the first and before any or", func() {
		c, err := criteria.Parse("cntn_a equals 1 or cntn_b equals 2 and cntn_c equals 3")
		Expect(err).NotTo(HaveOccurred())
		and, ok := c.(*criteria.Junction)
		Expect(ok).To(BeTrue())
		Expect(and.Kind).To(Equal(criteria.And))
		Expect(and.Members).To(HaveLen(2))
		or, ok := and.Members[0].(*criteria.Junction)
		Expect(ok).To(BeTrue())
		Expect(or.Kind).To(Equal(criteria.Or))
		Expect(and.Members[1]).To(Equal(criteria.Equals("cntn_c", "3")))
	})

	It("builds leaves with every value", func() {
		c, err := criteria.Parse("cntn_id one_of S-1 S-2 S-3")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(criteria.OneOf("cntn_id", "S-1", "S-2", "S-3")))
	})

	It("names the offending field", func() {
		_, err := criteria.Parse("cntn_id equals x and status equals Done")
		Expect(err).To(MatchError(ContainSubstring(`"status"`)))
	})

	Context("parent scope", func() {
		It("requires parent records for a leading arrow", func() {
			_, err := criteria.Parse("-> cntn_status equals Pending")
			Expect(err).To(MatchError(criteria.ErrMissingParentContext))
			Expect(err).To(MatchError(criteria.ErrSyntax))
		})

		It("restricts to derived records of the given parents", func() {
			c, err := criteria.Parse("-> cntn_status equals Pending", criteria.WithParents(1, 4))
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(criteria.Conjunction(
				criteria.Equals("cntn_status", "Pending"),
				criteria.OneOf(criteria.FieldOriginalContent, "1", "4"),
			)))
		})

		It("chains arrows left to right", func() {
			c, err := criteria.Parse("cntn_id equals S-1 -> cntn_type equals DNA -> cntn_status equals Done")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.String()).To(Equal(
				"cntn_status equals Done and has_parent (cntn_type equals DNA and has_parent (cntn_id equals S-1))"))
		})
	})
})

var _ = Describe("Split", func() {
	It("keeps parenthesized groups as single tokens", func() {
		Expect(criteria.Split("a is x and (b is y or c is d) or g is h")).To(Equal(
			[]string{"a is x", "and", "b is y or c is d", "or", "g is h"}))
	})

	It("emits relationship keywords with their group", func() {
		Expect(criteria.Split("has_parent (cntn_id equals x or cntn_id equals y)")).To(Equal(
			[]string{"has_parent", "cntn_id equals x or cntn_id equals y"}))
	})

	It("emits arrow tokens", func() {
		Expect(criteria.Split("-> cntn_a equals 1 -> cntn_b equals 2")).To(Equal(
			[]string{"->", "cntn_a equals 1", "->", "cntn_b equals 2"}))
	})

	It("reports unbalanced parentheses", func() {
		_, err := criteria.Split("(a is x")
		Expect(err).To(MatchError(criteria.ErrUnmatchedParentheses))
		_, err = criteria.Split("a is x)")
		Expect(err).To(MatchError(criteria.ErrUnmatchedParentheses))
	})

	It("returns a fresh slice for cached input", func() {
		first, err := criteria.Split("cntn_a equals 1 and cntn_b equals 2")
		Expect(err).NotTo(HaveOccurred())
		first[0] = "changed"
		second, err := criteria.Split("cntn_a equals 1   and cntn_b equals 2")
		Expect(err).NotTo(HaveOccurred())
		Expect(second[0]).To(Equal("cntn_a equals 1"))
	})
})

var _ = Describe("Unnest", func() {
	a, b, c := criteria.Equals("cntn_a", "1"), criteria.Equals("cntn_b", "2"), criteria.Equals("cntn_c", "3")

	It("splices same-kind junctions at any depth", func() {
		nested := criteria.Conjunction(a, criteria.Conjunction(b, criteria.Conjunction(c)))
		Expect(criteria.Unnest(nested)).To(Equal(criteria.Conjunction(a, b, c)))
	})

	It("keeps junctions of a different kind", func() {
		mixed := criteria.Conjunction(a, criteria.Disjunction(b, criteria.Disjunction(c)))
		Expect(criteria.Unnest(mixed)).To(Equal(criteria.Conjunction(a, criteria.Disjunction(b, c))))
	})

	It("never splices negations", func() {
		double := criteria.Negation(criteria.Negation(a))
		Expect(criteria.Unnest(double)).To(Equal(double))
	})

	It("leaves relationship operands alone", func() {
		rel := &criteria.HasParent{Inner: criteria.Conjunction(a, criteria.Conjunction(b))}
		Expect(criteria.Unnest(rel)).To(BeIdenticalTo(rel))
	})

	It("is idempotent", func() {
		tree := criteria.Disjunction(criteria.Conjunction(a, criteria.Conjunction(b, c)), criteria.Disjunction(c, criteria.Negation(criteria.Conjunction(a, criteria.Conjunction(b)))))
		once := criteria.Unnest(tree)
		Expect(criteria.Unnest(once)).To(Equal(once))
	})
})
