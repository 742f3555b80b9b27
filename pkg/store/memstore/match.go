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

package memstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
)

// Match reports whether rec satisfies c, evaluated the way the SLIMS server does.
// A nil criterion matches every record.
func Match(c criteria.Criterion, rec *record.Record) (bool, error) {
	switch n := c.(type) {
	case nil:
		return true, nil
	case *criteria.Leaf:
		return matchLeaf(n, rec)
	case *criteria.Junction:
		return matchJunction(n, rec)
	}
	return false, errors.WithMessagef(criteria.ErrUnresolved, "%s", c)
}

func matchJunction(j *criteria.Junction, rec *record.Record) (bool, error) {
	switch j.Kind {
	case criteria.Not:
		if len(j.Members) != 1 {
			return false, errors.Errorf("not takes one member, got %d", len(j.Members))
		}
		ok, err := Match(j.Members[0], rec)
		return !ok, err
	case criteria.And:
		for _, m := range j.Members {
			if ok, err := Match(m, rec); err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case criteria.Or:
		for _, m := range j.Members {
			if ok, err := Match(m, rec); err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return false, errors.Errorf("unknown junction %v", j.Kind)
}

func matchLeaf(l *criteria.Leaf, rec *record.Record) (bool, error) {
	ok, err := matchOperator(l.Op.Base(), l, rec)
	if err != nil {
		return false, err
	}
	if l.Op.Negated() {
		return !ok, nil
	}
	return ok, nil
}

func matchOperator(op criteria.Operator, l *criteria.Leaf, rec *record.Record) (bool, error) {
	raw, ok := fieldValue(rec, l.Field)
	if !ok || raw == nil {
		return false, nil
	}
	v := record.Format(raw)
	switch op {
	case criteria.OpEquals:
		return v == l.Value(), nil
	case criteria.OpEqualsIgnoreCase:
		return strings.EqualFold(v, l.Value()), nil
	case criteria.OpStartsWith:
		return strings.HasPrefix(v, l.Value()), nil
	case criteria.OpEndsWith:
		return strings.HasSuffix(v, l.Value()), nil
	case criteria.OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(l.Value())), nil
	case criteria.OpOneOf:
		for _, want := range l.Values {
			if v == want {
				return true, nil
			}
		}
		return false, nil
	case criteria.OpBetween:
		if len(l.Values) != 2 {
			return false, errors.WithMessagef(criteria.ErrInvalidCriteria, "%s", l)
		}
		x, lo, ok := ordinals(v, l.Values[0])
		_, hi, ok2 := ordinals(v, l.Values[1])
		return ok && ok2 && lo <= x && x <= hi, nil
	case criteria.OpGreaterThan:
		x, bound, ok := ordinals(v, l.Value())
		return ok && x > bound, nil
	case criteria.OpLessThan:
		x, bound, ok := ordinals(v, l.Value())
		return ok && x < bound, nil
	}
	return false, errors.WithMessagef(criteria.ErrInvalidCriteria, "unsupported operator %s", op)
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}

// ordinals reads a field value and a bound as timestamps when both parse as such, and as
// numbers otherwise. Values that are neither never compare.
func ordinals(value, bound string) (float64, float64, bool) {
	if vt, ok := parseTime(value); ok {
		if bt, ok := parseTime(bound); ok {
			return float64(vt.UnixMilli()), float64(bt.UnixMilli()), true
		}
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseFloat(bound, 64)
	if err != nil {
		return 0, 0, false
	}
	return v, b, true
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fieldValue(rec *record.Record, field string) (any, bool) {
	if v, ok := rec.Field(field); ok {
		return v, true
	}
	if field == criteria.FieldPK {
		return rec.PK, true
	}
	return nil, false
}
