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

// Package timestamp provides clocks and age arithmetic for record timestamps.
package timestamp

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/xhit/go-str2duration/v2"
)

// ErrInvalidAge is returned for an age that is not a positive duration.
var ErrInvalidAge = errors.New("invalid age")

// Clock represents an interface contains all functions in the standard library time.
type Clock interface {
	clock.Clock
}

// MockClock represents a mock clock that only moves forward programmatically.
type MockClock interface {
	clock.Clock
	Add(d time.Duration)
	Set(t time.Time)
}

// NewClock returns an instance of a real-time clock.
func NewClock() Clock {
	return clock.New()
}

// NewMockClock returns an instance of a mock clock.
func NewMockClock() MockClock {
	return clock.NewMock()
}

var clockKey = contextClockKey{}

type contextClockKey struct{}

// GetClock returns the Clock carried by ctx, or a real-time one.
func GetClock(ctx context.Context) Clock {
	if c, ok := ctx.Value(clockKey).(Clock); ok {
		return c
	}
	return NewClock()
}

// SetClock returns a sub context with the passed Clock.
func SetClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey, c)
}

// ParseAge parses an age such as "36h", "2w" or "1w3d".
func ParseAge(s string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.WithMessagef(ErrInvalidAge, "%q: %v", s, err)
	}
	if d <= 0 {
		return 0, errors.WithMessagef(ErrInvalidAge, "%q is not positive", s)
	}
	return d, nil
}

// CutoffMillis returns the Unix time in milliseconds that lies age before now.
func CutoffMillis(c Clock, age time.Duration) int64 {
	return c.Now().Add(-age).UnixMilli()
}
