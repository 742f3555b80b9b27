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

// Unnest flattens directly nested junctions of the same kind.
//
// An and-junction whose member is another and-junction absorbs that member's members in
// place; the same holds for or. Not-junctions are never spliced, and nodes that are not
// junctions are returned unchanged. The result selects the same records as c.
func Unnest(c Criterion) Criterion {
	j, ok := c.(*Junction)
	if !ok {
		return c
	}
	flat := &Junction{Kind: j.Kind, Members: make([]Criterion, 0, len(j.Members))}
	for _, m := range j.Members {
		un := Unnest(m)
		if sub, ok := un.(*Junction); ok && sub.Kind == j.Kind && j.Kind != Not {
			flat.Members = append(flat.Members, sub.Members...)
			continue
		}
		flat.Members = append(flat.Members, un)
	}
	return flat
}
