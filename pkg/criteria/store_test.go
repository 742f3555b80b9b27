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

package criteria_test

import (
	"context"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/store"
	"github.com/labflow/slimsctl/pkg/store/memstore"
)

// lab holds two tissue samples with DNA and RNA extracted from them:
//
//	1 S-1 Tissue
//	├── 2 S-2 DNA Done
//	└── 3 S-3 DNA Pending
//	4 S-4 Tissue
//	└── 5 S-5 RNA Pending
func lab() (*memstore.Store, *store.Paginated) {
	sample := func(pk int64, id, kind, status string, parent int64) *record.Record {
		values := map[string]any{"cntn_id": id, "cntn_type": kind}
		if status != "" {
			values["cntn_status"] = status
		}
		if parent != 0 {
			values[criteria.FieldOriginalContent] = parent
		}
		return record.New(criteria.TableContent, pk, values)
	}
	mem := memstore.New().RecordCalls()
	mem.Add(
		sample(1, "S-1", "Tissue", "", 0),
		sample(2, "S-2", "DNA", "Done", 1),
		sample(3, "S-3", "DNA", "Pending", 1),
		sample(4, "S-4", "Tissue", "", 0),
		sample(5, "S-5", "RNA", "Pending", 4),
	)
	return mem, store.NewPaginated(mem, store.WithPageSize(2))
}

func contentCalls(mem *memstore.Store) int {
	n := 0
	for _, call := range mem.Calls() {
		if call.Table == criteria.TableContent && call.Page.Start == 0 {
			n++
		}
	}
	return n
}

type fetchFunc func(ctx context.Context, table string, c criteria.Criterion) ([]*record.Record, error)

func (f fetchFunc) Fetch(ctx context.Context, table string, c criteria.Criterion) ([]*record.Record, error) {
	return f(ctx, table, c)
}
