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

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/labflow/slimsctl/pkg/records"
)

func newQueryCmd() *cobra.Command {
	b := newBackend(nil)
	var (
		q     records.Query
		check string
	)
	cmd := &cobra.Command{
		Use:   "query [criteria]",
		Short: "Fetch the content records matching criteria",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				q.Criteria = args[0]
			}
			if err := b.Validate(); err != nil {
				return err
			}
			if err := b.PreRun(cmd.Context()); err != nil {
				return err
			}
			svc := b.Records()
			result, err := svc.Find(cmd.Context(), q)
			if err != nil {
				return err
			}
			found := len(result.Records)
			if check != "" {
				if result.Records, err = svc.SkipCompleted(cmd.Context(), result.Records, check); err != nil {
					return err
				}
			}
			out, err := yaml.Marshal(result)
			if err != nil {
				return errors.Wrap(err, "render result")
			}
			fmt.Print(string(out))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s of %s records selected\n",
				humanize.Comma(int64(len(result.Records))), humanize.Comma(int64(found)))
			return nil
		},
	}
	cmd.Flags().AddFlagSet(b.FlagSet().FlagSet)
	cmd.Flags().StringVar(&q.Criteria, "find-criteria", "", "the criteria, used when none is given as argument")
	cmd.Flags().StringSliceVar(&q.IDs, "ids", nil, "keep records with these identifiers")
	cmd.Flags().StringVar(&q.MaxAge, "max-age", "", "keep records created within this age, e.g. 2w or 36h")
	cmd.Flags().Int64SliceVar(&q.DerivedFrom, "derived-from", nil, "keep records derived from these primary keys")
	cmd.Flags().Int64SliceVar(&q.Parents, "parents", nil, "primary keys a leading \"->\" refers to")
	cmd.Flags().StringVar(&check, "check-criteria", "", "drop records that already have a derived record matching these criteria")
	return cmd
}
