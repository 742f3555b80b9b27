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

package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const rootName = "root"

var root = rootLogger{}

type rootLogger struct {
	l    *Logger
	m    sync.RWMutex
	once sync.Once
}

func (rl *rootLogger) get() *Logger {
	rl.once.Do(func() {
		rl.m.Lock()
		defer rl.m.Unlock()
		if rl.l != nil {
			return
		}
		l, err := getLogger(Logging{Env: "prod", Level: "info"}, os.Stderr)
		if err != nil {
			panic(err)
		}
		rl.l = l
	})
	rl.m.RLock()
	defer rl.m.RUnlock()
	return rl.l
}

func (rl *rootLogger) set(l *Logger) {
	rl.once.Do(func() {})
	rl.m.Lock()
	defer rl.m.Unlock()
	rl.l = l
}

// GetLogger return logger with a scope.
func GetLogger(scope ...string) *Logger {
	l := root.get()
	if len(scope) < 1 {
		return l
	}
	return l.Named(scope...)
}

// Init initializes the root logger. Logs go to stderr so command output stays clean.
func Init(cfg Logging) error {
	return InitWithWriter(cfg, os.Stderr)
}

// InitWithWriter initializes the root logger writing to w.
func InitWithWriter(cfg Logging, w io.Writer) error {
	l, err := getLogger(cfg, w)
	if err != nil {
		return err
	}
	root.set(l)
	return nil
}

func getLogger(cfg Logging, out io.Writer) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, errors.Wrapf(err, "logging level %q", cfg.Level)
	}
	if len(cfg.Modules) != len(cfg.Levels) {
		return nil, errors.Errorf("%d logging modules but %d levels", len(cfg.Modules), len(cfg.Levels))
	}
	modules := make(map[string]zerolog.Level, len(cfg.Modules))
	for i, m := range cfg.Modules {
		ml, err := zerolog.ParseLevel(strings.ToLower(cfg.Levels[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "logging level of module %s", m)
		}
		modules[strings.ToUpper(m)] = ml
	}
	development := cfg.Env == "dev"
	w := out
	if development {
		cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		cw.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		cw.FormatFieldName = func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		}
		w = cw
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{Logger: &l, module: rootName, modules: modules, development: development}, nil
}
