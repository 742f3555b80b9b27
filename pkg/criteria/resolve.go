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

package criteria

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/record"
)

// Outcome is the result class of resolving a branch.
type Outcome int

const (
	// Resolved means the branch was rewritten into a store-evaluable criterion.
	Resolved Outcome = iota
	// NoMatch means the branch provably selects no record.
	NoMatch
	// NoOp means the branch provably selects every record and can be dropped.
	NoOp
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NoMatch:
		return "no-match"
	case NoOp:
		return "no-op"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Diagnostic is a non-fatal observation made while resolving.
type Diagnostic struct {
	Criterion string  `json:"criterion"`
	Message   string  `json:"message"`
	Outcome   Outcome `json:"outcome"`
}

func (d Diagnostic) String() string {
	return d.Outcome.String() + ": " + d.Message + " [" + d.Criterion + "]"
}

// Resolution is the result of Resolve.
// Criterion is nil unless Outcome is Resolved.
type Resolution struct {
	Criterion   Criterion
	Diagnostics []Diagnostic
	Outcome     Outcome
}

// Resolve rewrites every HasParent and HasDerived node of c into a primary-key filter by
// querying store, and reports whether the whole tree selects nothing or everything.
//
// Lookups run one after the other, depth first. The tree should be unnested and
// validated beforehand. Store errors are returned unchanged.
func Resolve(ctx context.Context, c Criterion, store Fetcher) (*Resolution, error) {
	r := &resolver{ctx: ctx, store: store, l: logger.GetLogger("criteria", "resolve")}
	resolved, outcome, err := r.resolve(c, nil)
	if err != nil {
		return nil, err
	}
	return &Resolution{Criterion: resolved, Outcome: outcome, Diagnostics: r.diagnostics}, nil
}

type resolver struct {
	ctx         context.Context
	store       Fetcher
	l           *logger.Logger
	diagnostics []Diagnostic
}

// resolve dispatches on the node kind. base holds the relation-free conjuncts of the
// enclosing and-junctions; relationship lookups are narrowed by it.
func (r *resolver) resolve(c Criterion, base []Criterion) (Criterion, Outcome, error) {
	switch n := c.(type) {
	case *Leaf:
		return n, Resolved, nil
	case *Junction:
		switch n.Kind {
		case And:
			return r.and(n, base)
		case Or:
			return r.or(n, base)
		case Not:
			return r.not(n, base)
		}
		return nil, Resolved, errors.Errorf("unknown junction kind %v", n.Kind)
	case *HasParent:
		return r.hasParent(n, base)
	case *HasDerived:
		return r.hasDerived(n, base)
	}
	return nil, Resolved, errors.Errorf("cannot resolve %T", c)
}

func (r *resolver) and(j *Junction, base []Criterion) (Criterion, Outcome, error) {
	local := slices.Clone(base)
	for _, m := range j.Members {
		if !HasRelation(m) {
			local = append(local, m)
		}
	}
	members := make([]Criterion, 0, len(j.Members))
	for _, m := range j.Members {
		resolved, outcome, err := r.resolve(m, local)
		if err != nil {
			return nil, Resolved, err
		}
		switch outcome {
		case NoOp:
			continue
		case NoMatch:
			return nil, NoMatch, nil
		}
		members = append(members, resolved)
	}
	switch len(members) {
	case 0:
		r.note(j, NoOp, "every conjunct matches all records")
		return nil, NoOp, nil
	case 1:
		return members[0], Resolved, nil
	}
	return Conjunction(members...), Resolved, nil
}

func (r *resolver) or(j *Junction, base []Criterion) (Criterion, Outcome, error) {
	members := make([]Criterion, 0, len(j.Members))
	for _, m := range j.Members {
		resolved, outcome, err := r.resolve(m, base)
		if err != nil {
			return nil, Resolved, err
		}
		switch outcome {
		case NoMatch:
			continue
		case NoOp:
			r.note(j, NoOp, "a disjunct matches all records")
			return nil, NoOp, nil
		}
		members = append(members, resolved)
	}
	switch len(members) {
	case 0:
		r.note(j, NoMatch, "no disjunct can match")
		return nil, NoMatch, nil
	case 1:
		return members[0], Resolved, nil
	}
	return Disjunction(members...), Resolved, nil
}

func (r *resolver) not(j *Junction, base []Criterion) (Criterion, Outcome, error) {
	if len(j.Members) != 1 {
		return nil, Resolved, errors.WithMessagef(ErrInvalidCriteria, "not takes one member, got %d", len(j.Members))
	}
	resolved, outcome, err := r.resolve(j.Members[0], base)
	if err != nil {
		return nil, Resolved, err
	}
	switch outcome {
	case NoMatch:
		r.note(j, NoOp, "negated branch can never match")
		return nil, NoOp, nil
	case NoOp:
		r.note(j, NoMatch, "negated branch matches all records")
		return nil, NoMatch, nil
	}
	return Negation(resolved), Resolved, nil
}

func (r *resolver) hasParent(h *HasParent, base []Criterion) (Criterion, Outcome, error) {
	inner, ok, err := r.inner(h.Inner)
	if err != nil || !ok {
		return nil, r.empty(h, h.Negate), err
	}
	search := inner
	if b := conjoin(base); b != nil {
		derived, err := r.fetch(b)
		if err != nil {
			return nil, Resolved, err
		}
		candidates := originalContents(derived)
		if len(candidates) == 0 {
			return nil, r.empty(h, h.Negate), nil
		}
		search = conjoin([]Criterion{OneOf(FieldPK, candidates...), inner})
	}
	parents, err := r.fetch(search)
	if err != nil {
		return nil, Resolved, err
	}
	if len(parents) == 0 {
		return nil, r.empty(h, h.Negate), nil
	}
	pks := primaryKeys(parents)
	r.l.Debug().Str("criterion", h.String()).Int("parents", len(pks)).Msg("resolved parents")
	if h.Negate {
		return NotOneOf(FieldOriginalContent, pks...), Resolved, nil
	}
	return OneOf(FieldOriginalContent, pks...), Resolved, nil
}

func (r *resolver) hasDerived(h *HasDerived, base []Criterion) (Criterion, Outcome, error) {
	inner, ok, err := r.inner(h.Inner)
	if err != nil || !ok {
		return nil, r.empty(h, h.Negate), err
	}
	search := inner
	if b := conjoin(base); b != nil {
		parents, err := r.fetch(b)
		if err != nil {
			return nil, Resolved, err
		}
		if len(parents) == 0 {
			return nil, r.empty(h, h.Negate), nil
		}
		search = conjoin([]Criterion{inner, OneOf(FieldOriginalContent, primaryKeys(parents)...)})
	}
	derived, err := r.fetch(search)
	if err != nil {
		return nil, Resolved, err
	}
	origins := originalContents(derived)
	if len(origins) == 0 {
		return nil, r.empty(h, h.Negate), nil
	}
	r.l.Debug().Str("criterion", h.String()).Int("origins", len(origins)).Msg("resolved derived records")
	if h.Negate {
		return NotOneOf(FieldPK, origins...), Resolved, nil
	}
	return OneOf(FieldPK, origins...), Resolved, nil
}

// inner resolves the operand of a relationship node. ok is false when the operand can
// never match; a nil criterion with ok set means the operand matches every record.
func (r *resolver) inner(c Criterion) (Criterion, bool, error) {
	if IsResolved(c) {
		return c, true, nil
	}
	resolved, outcome, err := r.resolve(c, nil)
	if err != nil {
		return nil, false, err
	}
	switch outcome {
	case NoMatch:
		return nil, false, nil
	case NoOp:
		return nil, true, nil
	}
	return resolved, true, nil
}

// empty classifies a relationship whose lookup found no record: nothing can match a
// plain relation, while its negation restricts nothing.
func (r *resolver) empty(c Criterion, negate bool) Outcome {
	if negate {
		r.note(c, NoOp, "no related record exists, the negated filter matches all records")
		return NoOp
	}
	r.note(c, NoMatch, "no related record exists")
	return NoMatch
}

func (r *resolver) note(c Criterion, outcome Outcome, msg string) {
	r.l.Debug().Str("criterion", c.String()).Stringer("outcome", outcome).Msg(msg)
	r.diagnostics = append(r.diagnostics, Diagnostic{Criterion: c.String(), Outcome: outcome, Message: msg})
}

func (r *resolver) fetch(c Criterion) ([]*record.Record, error) {
	return r.store.Fetch(r.ctx, TableContent, c)
}

func conjoin(members []Criterion) Criterion {
	switch len(members) {
	case 0:
		return nil
	case 1:
		if members[0] == nil {
			return nil
		}
		return members[0]
	}
	present := make([]Criterion, 0, len(members))
	for _, m := range members {
		if m != nil {
			present = append(present, m)
		}
	}
	if len(present) == 1 {
		return present[0]
	}
	return Conjunction(present...)
}

func primaryKeys(records []*record.Record) []string {
	return unique(records, func(rec *record.Record) (string, bool) {
		return strconv.FormatInt(rec.PK, 10), true
	})
}

// originalContents returns the parent keys of records, skipping records without one.
func originalContents(records []*record.Record) []string {
	return unique(records, func(rec *record.Record) (string, bool) {
		pk, err := rec.Int64(FieldOriginalContent)
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(pk, 10), true
	})
}

func unique(records []*record.Record, key func(*record.Record) (string, bool)) []string {
	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		k, ok := key(rec)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
