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
	"github.com/spf13/cobra"

	"github.com/labflow/slimsctl/pkg/cgroups"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter/prom"
	"github.com/labflow/slimsctl/pkg/meter/system"
	"github.com/labflow/slimsctl/pkg/run"
	"github.com/labflow/slimsctl/pkg/server"
	"github.com/labflow/slimsctl/pkg/signal"
)

func newServeCmd() *cobra.Command {
	reg := prom.NewRegistry()
	b := newBackend(reg)
	group := run.NewGroup(configName)
	group.Register(new(signal.Handler), b, system.NewCollector(b.provider("system")), server.NewServer(b, reg))
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l := logger.GetLogger("bootstrap")
			l.Info().Int("cpus", cgroups.SetMaxProcs(l)).Msg("starting the query server")
			if err := group.Run(cmd.Context()); err != nil {
				l.Error().Err(err).Str("name", group.Name()).Msg("exit")
				return err
			}
			return nil
		},
	}
	cmd.Flags().AddFlagSet(group.RegisterFlags().FlagSet)
	return cmd
}
