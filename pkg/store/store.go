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

// Package store streams records from a paged record store.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/iter"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter"
	"github.com/labflow/slimsctl/pkg/record"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 100

// Page selects the rows [Start, End) of a sorted result.
type Page struct {
	Sort  []string
	Start int
	End   int
}

// Size is the number of rows the page asks for.
func (p Page) Size() int {
	return p.End - p.Start
}

//go:generate mockgen -destination=./page_fetcher_mock.go -package=store . PageFetcher

// PageFetcher reads a single page of the records of table matching c.
// A nil criterion selects every record.
type PageFetcher interface {
	FetchPage(ctx context.Context, table string, c criteria.Criterion, page Page) ([]*record.Record, error)
}

// Option configures a Paginated fetcher.
type Option func(*Paginated)

// WithPageSize sets the page size. Values below one keep the default.
func WithPageSize(size int) Option {
	return func(p *Paginated) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithSort sets the sort fields sent with every page.
func WithSort(fields ...string) Option {
	return func(p *Paginated) {
		p.sort = fields
	}
}

// WithWindow restricts every fetch to the rows [start, end). An end of zero means unbounded.
func WithWindow(start, end int) Option {
	return func(p *Paginated) {
		p.start, p.end = start, end
	}
}

// WithMeter records fetch metrics with provider.
func WithMeter(provider meter.Provider) Option {
	return func(p *Paginated) {
		p.metrics = newMetrics(provider)
	}
}

// Paginated fetches complete results by requesting consecutive pages.
// It is safe for concurrent use when its PageFetcher is.
type Paginated struct {
	fetcher  PageFetcher
	metrics  *metrics
	l        *logger.Logger
	sort     []string
	pageSize int
	start    int
	end      int
}

var _ criteria.Fetcher = (*Paginated)(nil)

// NewPaginated wraps fetcher.
func NewPaginated(fetcher PageFetcher, opts ...Option) *Paginated {
	p := &Paginated{fetcher: fetcher, pageSize: DefaultPageSize, l: logger.GetLogger("store")}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = newMetrics(meter.NoopProvider{})
	}
	return p
}

// PageSize returns the configured page size.
func (p *Paginated) PageSize() int {
	return p.pageSize
}

// Pages starts a new cursor over the records of table matching c.
// The tree must not hold relationship operators.
func (p *Paginated) Pages(ctx context.Context, table string, c criteria.Criterion) *Pages {
	it := &Pages{ctx: ctx, p: p, table: table, c: c, offset: p.start}
	if !criteria.IsResolved(c) {
		it.err = errors.WithMessagef(criteria.ErrUnresolved, "%s", c)
		it.done = true
	}
	return it
}

// Fetch collects every matching record. It implements criteria.Fetcher.
func (p *Paginated) Fetch(ctx context.Context, table string, c criteria.Criterion) ([]*record.Record, error) {
	pages := p.Pages(ctx, table, c)
	records := iter.Collect(pages.Records())
	if err := pages.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Pages is a lazy, finite cursor over result pages. Empty pages are never yielded.
// A Pages value must not be shared between goroutines.
type Pages struct {
	ctx    context.Context
	err    error
	p      *Paginated
	c      criteria.Criterion
	table  string
	offset int
	done   bool
}

var _ iter.Iterator[[]*record.Record] = (*Pages)(nil)

// Next fetches the next page. It returns false after the first short page or on error.
func (it *Pages) Next() ([]*record.Record, bool) {
	if it.done {
		return nil, false
	}
	page := Page{Sort: it.p.sort, Start: it.offset, End: it.offset + it.p.pageSize}
	if it.p.end > 0 && page.End > it.p.end {
		page.End = it.p.end
	}
	if page.Size() <= 0 {
		it.done = true
		return nil, false
	}
	if err := it.ctx.Err(); err != nil {
		it.err, it.done = err, true
		return nil, false
	}
	start := time.Now()
	records, err := it.p.fetcher.FetchPage(it.ctx, it.table, it.c, page)
	it.p.metrics.observe(it.table, len(records), time.Since(start), err)
	if err != nil {
		it.err, it.done = err, true
		return nil, false
	}
	it.p.l.Debug().Str("table", it.table).Int("start", page.Start).Int("end", page.End).
		Int("records", len(records)).Msg("fetched page")
	if len(records) < page.Size() {
		it.done = true
	}
	it.offset = page.End
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// Err returns the error that ended the cursor, if any.
func (it *Pages) Err() error {
	return it.err
}

// Records flattens the remaining pages into single records.
func (it *Pages) Records() iter.Iterator[*record.Record] {
	return iter.Flatten(iter.Map[[]*record.Record](it, iter.FromSlice[*record.Record]))
}
