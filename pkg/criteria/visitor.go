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

// Visitor receives one call per node kind.
// Implementations decide themselves whether to descend into children;
// Descend offers the default traversal.
type Visitor interface {
	VisitLeaf(*Leaf) error
	VisitJunction(*Junction) error
	VisitHasParent(*HasParent) error
	VisitHasDerived(*HasDerived) error
}

// LeafFunc adapts a function to a Visitor that walks the whole tree,
// relationship operands included, and calls fn for every leaf.
type LeafFunc func(*Leaf) error

// VisitLeaf implements Visitor.
func (f LeafFunc) VisitLeaf(l *Leaf) error { return f(l) }

// VisitJunction implements Visitor.
func (f LeafFunc) VisitJunction(j *Junction) error { return Descend(f, j) }

// VisitHasParent implements Visitor.
func (f LeafFunc) VisitHasParent(h *HasParent) error { return Descend(f, h) }

// VisitHasDerived implements Visitor.
func (f LeafFunc) VisitHasDerived(h *HasDerived) error { return Descend(f, h) }

// Descend visits the direct children of c with v, stopping at the first error.
func Descend(v Visitor, c Criterion) error {
	switch n := c.(type) {
	case *Junction:
		for _, m := range n.Members {
			if err := m.Accept(v); err != nil {
				return err
			}
		}
	case *HasParent:
		return n.Inner.Accept(v)
	case *HasDerived:
		return n.Inner.Accept(v)
	}
	return nil
}

// Leaves returns every leaf of c in depth-first order.
func Leaves(c Criterion) []*Leaf {
	var leaves []*Leaf
	_ = c.Accept(LeafFunc(func(l *Leaf) error {
		leaves = append(leaves, l)
		return nil
	}))
	return leaves
}
