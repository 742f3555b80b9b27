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

// Package config loads command configuration from a YAML file, SLIMS_* environment
// variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment variable bound to a flag.
const EnvPrefix = "SLIMS"

// Load configurations for the flags in fs.
//
// Sources in ascending priority: the file named name (any extension viper knows) in the
// working directory or $HOME/.slimsctl, environment variables, and flags set explicitly.
// An explicit file may be given with file; a missing explicit file is an error.
func Load(name, file string, fs *pflag.FlagSet) error {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(name)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.slimsctl")
	}
	if err := v.ReadInConfig(); err != nil {
		if file != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return err
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return BindFlags(fs, v)
}

// BindFlags applies the viper value of every flag that was not set on the command line.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			err = multierr.Append(err, sv.Replace(splitList(v.GetStringSlice(f.Name))))
			return
		}
		err = multierr.Append(err, fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))))
	})
	return err
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
