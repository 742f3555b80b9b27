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

package store

import (
	"time"

	"github.com/labflow/slimsctl/pkg/meter"
)

type metrics struct {
	pages   meter.Counter
	records meter.Counter
	errors  meter.Counter
	latency meter.Histogram
}

func newMetrics(provider meter.Provider) *metrics {
	return &metrics{
		pages:   provider.Counter("pages_total", "table"),
		records: provider.Counter("records_total", "table"),
		errors:  provider.Counter("errors_total", "table"),
		latency: provider.Histogram("page_latency_seconds", meter.DefBuckets, "table"),
	}
}

func (m *metrics) observe(table string, records int, took time.Duration, err error) {
	m.latency.Observe(took.Seconds(), table)
	if err != nil {
		m.errors.Inc(1, table)
		return
	}
	m.pages.Inc(1, table)
	m.records.Inc(float64(records), table)
}
