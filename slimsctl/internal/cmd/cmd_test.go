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

package cmd_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/zenizh/go-capturer"

	"github.com/labflow/slimsctl/pkg/slims"
	"github.com/labflow/slimsctl/slimsctl/internal/cmd"
)

const fixture = "testdata/lab.yaml"

var _ = Describe("slimsctl", func() {
	var rootCmd *cobra.Command

	BeforeEach(func() {
		rootCmd = cmd.NewRoot()
	})

	execute := func(args ...string) string {
		rootCmd.SetArgs(args)
		return capturer.CaptureStdout(func() {
			Expect(rootCmd.Execute()).To(Succeed())
		})
	}

	Describe("parse", func() {
		It("prints the normalized tree", func() {
			out := execute("parse", "cntn_id equals S-1 -> cntn_type equals DNA")
			Expect(out).To(ContainSubstring("unnested: cntn_type equals DNA and has_parent (cntn_id equals S-1)"))
			Expect(out).To(ContainSubstring("operator: has_parent"))
		})

		It("resolves a leading arrow against the given parents", func() {
			out := execute("parse", "-> cntn_status equals Done", "--parents", "1,4")
			Expect(out).To(ContainSubstring("operator: inSet"))
			Expect(out).To(ContainSubstring("cntn_fk_originalContent one_of 1 4"))
		})

		It("rejects malformed criteria", func() {
			rootCmd.SetArgs([]string{"parse", "cntn_id equals"})
			Expect(rootCmd.Execute()).To(HaveOccurred())
		})
	})

	Describe("query", func() {
		It("prints the matching records", func() {
			out := execute("query", "cntn_type equals DNA", "--fixture", fixture)
			Expect(out).To(ContainSubstring("outcome: resolved"))
			Expect(out).To(ContainSubstring("cntn_id: S-2"))
			Expect(out).To(ContainSubstring("cntn_id: S-3"))
			Expect(out).NotTo(ContainSubstring("cntn_id: S-1"))
		})

		It("takes the criteria from a flag", func() {
			out := execute("query", "--find-criteria", "cntn_id equals S-5", "--fixture", fixture)
			Expect(out).To(ContainSubstring("cntn_id: S-5"))
		})

		It("skips records already completed", func() {
			out := execute("query", "cntn_type equals Tissue", "--check-criteria", "cntn_status equals Done", "--fixture", fixture)
			Expect(out).To(ContainSubstring("cntn_id: S-4"))
			Expect(out).NotTo(ContainSubstring("cntn_id: S-1"))
		})

		It("reports criteria that cannot match", func() {
			out := execute("query", "has_parent cntn_id equals NOPE", "--fixture", fixture)
			Expect(out).To(ContainSubstring("outcome: no-match"))
			Expect(out).To(ContainSubstring("records: []"))
		})

		It("needs a record source", func() {
			rootCmd.SetArgs([]string{"query", "cntn_id equals S-1"})
			Expect(rootCmd.Execute()).To(MatchError(slims.ErrConfig))
		})
	})

	It("lists the units of the server", func() {
		out := execute("serve", "--show-rungroup-units")
		Expect(out).To(ContainSubstring("- config: slims system-metrics http"))
		Expect(out).To(ContainSubstring("- serve : signal slims system-metrics http"))
	})

	It("prints the version", func() {
		Expect(execute("version")).To(ContainSubstring("v0.0.0-unofficial"))
	})
})
