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

// Package records runs criteria queries end to end: it parses, normalizes, validates
// and resolves a query, then fetches the matching records.
package records

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/timestamp"
)

// ErrEmptyQuery is returned for a query without any restriction.
var ErrEmptyQuery = errors.New("query has no criteria")

// Query selects content records. All given restrictions must hold.
type Query struct {
	// Criteria is a criteria string.
	Criteria string `json:"criteria,omitempty"`
	// MaxAge keeps records created within this age, e.g. "2w" or "36h".
	MaxAge string `json:"max_age,omitempty"`
	// IDs keeps records whose identifier is listed.
	IDs []string `json:"ids,omitempty"`
	// DerivedFrom keeps records derived from one of these primary keys.
	DerivedFrom []int64 `json:"derived_from,omitempty"`
	// Parents are the records a leading "->" in Criteria refers to.
	Parents []int64 `json:"parents,omitempty"`
}

// Result is the outcome of a query.
type Result struct {
	Criterion   string                `json:"criterion,omitempty"`
	Outcome     string                `json:"outcome"`
	Records     []*record.Record      `json:"records"`
	Diagnostics []criteria.Diagnostic `json:"diagnostics,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// RefuseFullScan makes a query that matches every record return nothing instead.
func RefuseFullScan(refuse bool) Option {
	return func(s *Service) {
		s.refuseFullScan = refuse
	}
}

// WithClock sets the clock max-age restrictions are computed against.
func WithClock(c timestamp.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithMeter records query metrics with provider.
func WithMeter(provider meter.Provider) Option {
	return func(s *Service) {
		s.metrics = newMetrics(provider)
	}
}

// Service answers queries against a store. It is safe for concurrent use when the
// store is.
type Service struct {
	store          criteria.Fetcher
	clock          timestamp.Clock
	metrics        *metrics
	l              *logger.Logger
	refuseFullScan bool
}

// NewService returns a Service over store.
func NewService(store criteria.Fetcher, opts ...Option) *Service {
	s := &Service{store: store, l: logger.GetLogger("records")}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = timestamp.NewClock()
	}
	if s.metrics == nil {
		s.metrics = newMetrics(meter.NoopProvider{})
	}
	return s
}

// Criterion builds the criterion tree of q, unnested.
func (s *Service) Criterion(q Query) (criteria.Criterion, error) {
	var parts []criteria.Criterion
	if q.Criteria != "" {
		c, err := criteria.Parse(q.Criteria, criteria.WithParents(q.Parents...))
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	if len(q.IDs) > 0 {
		parts = append(parts, criteria.OneOf(criteria.FieldID, q.IDs...))
	}
	if q.MaxAge != "" {
		age, err := timestamp.ParseAge(q.MaxAge)
		if err != nil {
			return nil, err
		}
		cutoff := timestamp.CutoffMillis(s.clock, age)
		parts = append(parts, criteria.NewLeaf(criteria.FieldCreatedOn, criteria.OpGreaterThan, strconv.FormatInt(cutoff, 10)))
	}
	if len(q.DerivedFrom) > 0 {
		parts = append(parts, criteria.OneOf(criteria.FieldOriginalContent, formatKeys(q.DerivedFrom)...))
	}
	switch len(parts) {
	case 0:
		return nil, ErrEmptyQuery
	case 1:
		return criteria.Unnest(parts[0]), nil
	}
	return criteria.Unnest(criteria.Conjunction(parts...)), nil
}

// Find returns the content records selected by q.
//
// A query that provably matches nothing returns no records without a final fetch. A query
// that matches everything fetches every record unless the service refuses full scans.
// Both cases are reported in the result diagnostics.
func (s *Service) Find(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	result, err := s.find(ctx, q)
	s.metrics.observe(result, err, time.Since(start))
	return result, err
}

func (s *Service) find(ctx context.Context, q Query) (*Result, error) {
	c, err := s.Criterion(q)
	if err != nil {
		return nil, err
	}
	log := logger.Fetch(ctx, "records")
	log.Debug().Stringer("criterion", c).Msg("parsed")
	if err = criteria.Validate(ctx, c, s.store); err != nil {
		return nil, err
	}
	res, err := criteria.Resolve(ctx, c, s.store)
	if err != nil {
		return nil, err
	}
	result := &Result{Outcome: res.Outcome.String(), Diagnostics: res.Diagnostics, Records: []*record.Record{}}
	switch res.Outcome {
	case criteria.NoMatch:
		log.Warn().Stringer("criterion", c).Msg("no record matches the criteria")
		return result, nil
	case criteria.NoOp:
		if s.refuseFullScan {
			log.Warn().Stringer("criterion", c).Msg("ignoring fetch as every record would match the criteria")
			return result, nil
		}
		log.Warn().Stringer("criterion", c).Msg("every record matches the criteria, fetching all")
	default:
		result.Criterion = res.Criterion.String()
	}
	records, err := s.store.Fetch(ctx, criteria.TableContent, res.Criterion)
	if err != nil {
		return nil, err
	}
	result.Records = records
	log.Info().Str("records", humanize.Comma(int64(len(records)))).Msg("fetched")
	return result, nil
}

// SkipCompleted drops the records that already have a derived record matching check.
func (s *Service) SkipCompleted(ctx context.Context, found []*record.Record, check string) ([]*record.Record, error) {
	if len(found) == 0 || check == "" {
		return found, nil
	}
	derived, err := s.Find(ctx, Query{Criteria: check, DerivedFrom: record.PKs(found)})
	if err != nil {
		return nil, errors.WithMessage(err, "check completed records")
	}
	completed := make(map[int64]struct{}, len(derived.Records))
	for _, d := range derived.Records {
		if pk, err := d.Int64(criteria.FieldOriginalContent); err == nil {
			completed[pk] = struct{}{}
		}
	}
	log := logger.Fetch(ctx, "records")
	pending := make([]*record.Record, 0, len(found))
	for _, r := range found {
		if _, done := completed[r.PK]; done {
			log.Debug().Str("id", r.String(criteria.FieldID)).Msg("already completed, skipping")
			continue
		}
		pending = append(pending, r)
	}
	log.Info().Int("skipped", len(found)-len(pending)).Msg("skipping previously completed records")
	return pending, nil
}

func formatKeys(pks []int64) []string {
	keys := make([]string, len(pks))
	for i, pk := range pks {
		keys[i] = strconv.FormatInt(pk, 10)
	}
	return keys
}
