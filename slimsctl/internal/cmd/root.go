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

// Package cmd implements the slimsctl commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labflow/slimsctl/pkg/config"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/version"
)

const configName = "slimsctl"

// NewRoot returns the root command.
func NewRoot() *cobra.Command {
	logging := logger.Logging{}
	cmd := &cobra.Command{
		Use:               "slimsctl",
		DisableAutoGenTag: true,
		Version:           version.Build(),
		Short:             "slimsctl queries SLIMS content records with criteria expressions",
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("config")
			if err := config.Load(configName, file, cmd.Flags()); err != nil {
				return err
			}
			return logger.Init(logging)
		},
	}
	cmd.PersistentFlags().String("config", "", "path to a configuration file")
	cmd.PersistentFlags().StringVar(&logging.Env, "logging-env", "prod", "the logging environment, prod or dev")
	cmd.PersistentFlags().StringVar(&logging.Level, "logging-level", "warn", "the root level of logging")
	cmd.PersistentFlags().StringSliceVar(&logging.Modules, "logging-modules", nil, "the specific module")
	cmd.PersistentFlags().StringSliceVar(&logging.Levels, "logging-levels", nil, "the level logging of logging")
	cmd.AddCommand(newParseCmd(), newQueryCmd(), newServeCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.Parse())
		},
	}
}
