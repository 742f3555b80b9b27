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

package run

import (
	"sync"
)

var _ Service = (*tester)(nil)

type tester struct {
	stopCh chan struct{}
	ID     string
	once   sync.Once
}

// NewTester returns a service unit that runs until the returned function is called.
func NewTester(id string) (Unit, func()) {
	t := &tester{
		ID:     id,
		stopCh: make(chan struct{}),
	}
	return t, t.GracefulStop
}

func (t *tester) Name() string {
	return t.ID
}

func (t *tester) Serve() StopNotify {
	return t.stopCh
}

func (t *tester) GracefulStop() {
	t.once.Do(func() {
		close(t.stopCh)
	})
}
