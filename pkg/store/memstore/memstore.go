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

// Package memstore implements an in-memory record store that evaluates criteria locally.
//
// It serves offline queries against fixture files and stands in for the remote store
// in tests.
package memstore

import (
	"context"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/store"
)

var _ store.PageFetcher = (*Store)(nil)

// Fixture is the file format of a store snapshot.
//
//	fields: [cntn_id, cntn_status]
//	records:
//	- pk: 1
//	  values: {cntn_id: S-1, cntn_status: Pending}
//
// Records default to the Content table. Without explicit fields the schema holds every
// field used by a Content record plus the primary key.
type Fixture struct {
	Fields  []string         `json:"fields,omitempty"`
	Records []*record.Record `json:"records"`
}

// Call describes one page request served by the store.
type Call struct {
	Criterion criteria.Criterion
	Table     string
	Page      store.Page
}

// Store holds records by table, ordered by primary key.
type Store struct {
	tables map[string]*treemap.Map
	fields []string
	calls  []Call
	mu     sync.RWMutex
	log    bool
}

// New returns a store holding records.
func New(records ...*record.Record) *Store {
	s := &Store{tables: map[string]*treemap.Map{}}
	s.Add(records...)
	return s
}

// Load reads a YAML or JSON fixture file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "fixture %s", path)
	}
	return s, nil
}

// Parse decodes a YAML or JSON fixture.
func Parse(data []byte) (*Store, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	s := New()
	for _, r := range f.Records {
		if r.Table == "" {
			r.Table = criteria.TableContent
		}
		if r.Values == nil {
			r.Values = map[string]any{}
		}
	}
	s.Add(f.Records...)
	s.SetFields(f.Fields...)
	return s, nil
}

// Add puts records into their tables, replacing records with the same primary key.
func (s *Store) Add(records ...*record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		t, ok := s.tables[r.Table]
		if !ok {
			t = treemap.NewWith(utils.Int64Comparator)
			s.tables[r.Table] = t
		}
		t.Put(r.PK, r)
	}
}

// SetFields fixes the schema. With no fields the schema is derived from the records.
func (s *Store) SetFields(fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = slices.Clone(fields)
}

// Fields returns the names in the schema, sorted.
func (s *Store) Fields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema()
}

func (s *Store) schema() []string {
	if len(s.fields) > 0 {
		fields := slices.Clone(s.fields)
		sort.Strings(fields)
		return fields
	}
	set := treeset.NewWithStringComparator(criteria.FieldPK)
	for _, r := range s.table(criteria.TableContent) {
		for name := range r.Values {
			set.Add(name)
		}
	}
	fields := make([]string, 0, set.Size())
	for _, name := range set.Values() {
		fields = append(fields, name.(string))
	}
	return fields
}

func (s *Store) table(name string) []*record.Record {
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	records := make([]*record.Record, 0, t.Size())
	for _, v := range t.Values() {
		records = append(records, v.(*record.Record))
	}
	return records
}

// FetchPage implements store.PageFetcher.
func (s *Store) FetchPage(ctx context.Context, table string, c criteria.Criterion, page store.Page) ([]*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.log {
		s.calls = append(s.calls, Call{Table: table, Criterion: c, Page: page})
	}
	rows := s.rows(table)
	s.mu.Unlock()

	var matched []*record.Record
	for _, r := range rows {
		ok, err := Match(c, r)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	sortRecords(matched, page.Sort)
	if page.Start >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if page.End > 0 && page.End < end {
		end = page.End
	}
	return matched[page.Start:end], nil
}

// RecordCalls turns on the call log read by Calls. It is off by default since a
// long-running store would keep every request.
func (s *Store) RecordCalls() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = true
	return s
}

// Replace swaps in the records and schema of other. The call log is kept.
func (s *Store) Replace(other *Store) {
	other.mu.RLock()
	tables, fields := other.tables, other.fields
	other.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables, s.fields = tables, fields
}

// Calls returns the page requests served since RecordCalls.
func (s *Store) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.calls)
}

// Reset forgets the recorded calls.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Store) rows(table string) []*record.Record {
	if rows := s.table(table); table != criteria.TableField || len(rows) > 0 {
		return rows
	}
	fields := s.schema()
	rows := make([]*record.Record, len(fields))
	for i, name := range fields {
		rows[i] = record.New(criteria.TableField, int64(i+1), map[string]any{criteria.FieldFieldName: name})
	}
	return rows
}

// sortRecords orders by the given fields, a leading "-" sorting descending, and by
// primary key last.
func sortRecords(records []*record.Record, fields []string) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, f := range fields {
			desc := strings.HasPrefix(f, "-")
			f = strings.TrimPrefix(f, "-")
			a, b := records[i].String(f), records[j].String(f)
			if a == b {
				continue
			}
			return (a < b) != desc
		}
		return records[i].PK < records[j].PK
	})
}
