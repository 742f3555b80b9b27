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

package records

import (
	"time"

	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/meter"
	"github.com/labflow/slimsctl/pkg/timestamp"
)

type metrics struct {
	queries meter.Counter
	records meter.Counter
	latency meter.Histogram
}

func newMetrics(provider meter.Provider) *metrics {
	return &metrics{
		queries: provider.Counter("queries_total", "outcome"),
		records: provider.Counter("records_total"),
		latency: provider.Histogram("query_latency_seconds", meter.DefBuckets),
	}
}

func (m *metrics) observe(result *Result, err error, took time.Duration) {
	m.latency.Observe(took.Seconds())
	switch {
	case err == nil:
		m.queries.Inc(1, result.Outcome)
		m.records.Inc(float64(len(result.Records)))
	case errors.Is(err, criteria.ErrSyntax), errors.Is(err, criteria.ErrInvalidField), errors.Is(err, ErrEmptyQuery),
		errors.Is(err, timestamp.ErrInvalidAge):
		m.queries.Inc(1, "invalid")
	default:
		m.queries.Inc(1, "error")
	}
}
