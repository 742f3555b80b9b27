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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/labflow/slimsctl/pkg/criteria"
)

type parseOutput struct {
	Dict     map[string]any `json:"dict"`
	Parsed   string         `json:"parsed"`
	Unnested string         `json:"unnested"`
}

func newParseCmd() *cobra.Command {
	var parents []int64
	cmd := &cobra.Command{
		Use:   "parse <criteria>",
		Short: "Parse criteria and print the normalized tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := criteria.Parse(args[0], criteria.WithParents(parents...))
			if err != nil {
				return err
			}
			unnested := criteria.Unnest(c)
			out, err := yaml.Marshal(parseOutput{Parsed: c.String(), Unnested: unnested.String(), Dict: criteria.Dict(unnested)})
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&parents, "parents", nil, "primary keys a leading \"->\" refers to")
	return cmd
}
