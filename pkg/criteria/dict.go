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
	"slices"
)

// Wire names of the operators without a Leaf counterpart.
const (
	wireNot        = "not"
	wireHasParent  = "has_parent"
	wireHasDerived = "has_derived"
)

// Dict encodes c in the criteria JSON shape of the SLIMS REST API.
// A nil criterion encodes as nil.
func Dict(c Criterion) map[string]any {
	switch n := c.(type) {
	case *Leaf:
		return leafDict(n)
	case *Junction:
		members := make([]any, len(n.Members))
		for i, m := range n.Members {
			members[i] = Dict(m)
		}
		return map[string]any{"operator": n.Kind.String(), "criteria": members}
	case *HasParent:
		return relationDict(wireHasParent, n.Inner, n.Negate)
	case *HasDerived:
		return relationDict(wireHasDerived, n.Inner, n.Negate)
	}
	return nil
}

func leafDict(l *Leaf) map[string]any {
	base := l.Op.Base()
	d := map[string]any{"operator": operators[base].wire, "fieldName": l.Field}
	switch operators[base].arity {
	case arityMany:
		d["value"] = slices.Clone(l.Values)
	case arityRange:
		if len(l.Values) == 2 {
			d["start"], d["end"] = l.Values[0], l.Values[1]
		}
	default:
		d["value"] = l.Value()
	}
	if l.Op.Negated() {
		return negateDict(d)
	}
	return d
}

func relationDict(operator string, inner Criterion, negate bool) map[string]any {
	d := map[string]any{"operator": operator, "value": Dict(inner)}
	if negate {
		return negateDict(d)
	}
	return d
}

func negateDict(d map[string]any) map[string]any {
	return map[string]any{"operator": wireNot, "criteria": []any{d}}
}
