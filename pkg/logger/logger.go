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

// Package logger implements a logging system with module-scoped zerolog loggers.
package logger

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// ContextKey is the key under which a request-scoped *Logger is stored in a context.
var ContextKey = contextKey{}

type contextKey struct{}

// Logging is the config info.
type Logging struct {
	Env     string
	Level   string
	Modules []string
	Levels  []string
}

// Logger is wrapper for rs/zerolog logger with module, it is singleton.
type Logger struct {
	*zerolog.Logger
	modules     map[string]zerolog.Level
	module      string
	development bool
}

// Module as an identity of the logger.
func (l Logger) Module() string {
	return l.module
}

// Development reports whether the logger writes human readable console output.
func (l Logger) Development() bool {
	return l.development
}

// Named creates a sub logger below l. A level configured for the module, or for one of
// its ancestors, overrides the inherited one.
func (l *Logger) Named(name ...string) *Logger {
	path := name
	if l.module != rootName {
		path = append([]string{l.module}, name...)
	}
	module := strings.ToUpper(strings.Join(path, "."))
	sub := l.With().Str("module", module).Logger().Level(l.levelOf(module))
	return &Logger{Logger: &sub, module: module, modules: l.modules, development: l.development}
}

func (l *Logger) levelOf(module string) zerolog.Level {
	level := l.GetLevel()
	var prefix strings.Builder
	for i, part := range strings.Split(module, ".") {
		if i > 0 {
			prefix.WriteByte('.')
		}
		prefix.WriteString(part)
		if ml, ok := l.modules[prefix.String()]; ok {
			level = ml
		}
	}
	return level
}

// WithField returns a copy of l that adds key to every event.
func (l *Logger) WithField(key, value string) *Logger {
	sub := l.With().Str(key, value).Logger()
	return &Logger{Logger: &sub, module: l.module, modules: l.modules, development: l.development}
}

// WithContext returns a copy of ctx carrying l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKey, l)
}

// Fetch gets a named logger below the one stored in ctx, or a root-scoped one.
func Fetch(ctx context.Context, name string) *Logger {
	if pl, ok := ctx.Value(ContextKey).(*Logger); ok && pl != nil {
		return pl.Named(name)
	}
	return GetLogger(name)
}
