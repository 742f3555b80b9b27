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

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/labflow/slimsctl/pkg/record"
)

// Fetcher reads every record of table matching c.
// A nil criterion selects the whole table.
type Fetcher interface {
	Fetch(ctx context.Context, table string, c Criterion) ([]*record.Record, error)
}

// Validate checks that every leaf of c names a field known to the store schema.
//
// All unknown fields are reported; each error wraps ErrInvalidField.
// Store failures are returned unchanged and stop the walk.
func Validate(ctx context.Context, c Criterion, schema Fetcher) error {
	v := &validator{ctx: ctx, schema: schema, known: map[string]bool{}}
	if err := c.Accept(v); err != nil {
		return err
	}
	return v.invalid
}

type validator struct {
	ctx     context.Context
	schema  Fetcher
	known   map[string]bool
	invalid error
}

func (v *validator) VisitLeaf(l *Leaf) error {
	exists, seen := v.known[l.Field]
	if !seen {
		fields, err := v.schema.Fetch(v.ctx, TableField, Equals(FieldFieldName, l.Field))
		if err != nil {
			return err
		}
		exists = len(fields) > 0
		if !exists {
			v.invalid = multierr.Append(v.invalid, errors.WithMessagef(ErrInvalidField, "%q", l.Field))
		}
		v.known[l.Field] = exists
	}
	return nil
}

func (v *validator) VisitJunction(j *Junction) error { return Descend(v, j) }

func (v *validator) VisitHasParent(h *HasParent) error { return Descend(v, h) }

func (v *validator) VisitHasDerived(h *HasDerived) error { return Descend(v, h) }
