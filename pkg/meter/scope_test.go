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

package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHierarchicalScope(t *testing.T) {
	root := NewHierarchicalScope("slimsctl", "_").ConstLabels(LabelPairs{"instance": "a"})
	store := root.SubScope("store").ConstLabels(LabelPairs{"backend": "slims"})

	assert.Equal(t, "slimsctl_store", store.GetNamespace())
	assert.Equal(t, LabelPairs{"instance": "a", "backend": "slims"}, store.GetLabels())
	assert.Equal(t, LabelPairs{"instance": "a"}, root.SubScope("server").GetLabels())
}

func TestMerge(t *testing.T) {
	merged := LabelPairs{"a": "1", "b": "1"}.Merge(LabelPairs{"b": "2"})
	assert.Equal(t, LabelPairs{"a": "1", "b": "2"}, merged)
}
