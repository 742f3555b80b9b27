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

// Package cgroups sizes the Go runtime to the CPU quota of the container it runs in.
package cgroups

import (
	"os"
	"runtime"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/labflow/slimsctl/pkg/logger"
)

// CPUs returns the number of CPUs.
func CPUs() int {
	return runtime.GOMAXPROCS(-1)
}

// SetMaxProcs caps GOMAXPROCS at the CPU quota, never above the host CPUs, and returns
// the resulting value. A GOMAXPROCS environment variable wins.
func SetMaxProcs(l *logger.Logger) int {
	if v, exists := os.LookupEnv("GOMAXPROCS"); exists {
		l.Info().Str("GOMAXPROCS", v).Msg("honoring GOMAXPROCS as set in environment")
		return CPUs()
	}
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		l.Debug().Msgf(format, args...)
	})); err != nil {
		l.Warn().Err(err).Msg("failed to set GOMAXPROCS")
	}
	procs := max(CPUs(), 1)
	procs = min(procs, runtime.NumCPU())
	runtime.GOMAXPROCS(procs)
	return procs
}
