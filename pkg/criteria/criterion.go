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

// Package criteria implements the record-selection DSL: parsing criteria strings into a
// Criterion tree, normalizing and validating that tree, and resolving relationship
// operators into primary-key filters against a remote record store.
package criteria

import (
	"fmt"
	"strings"
)

const (
	// FieldPrefix is the reserved prefix of every content field.
	FieldPrefix = "cntn_"
	// FieldPK is the primary key field of the content table.
	FieldPK = "cntn_pk"
	// FieldOriginalContent is the foreign key pointing a derived record at its parent.
	FieldOriginalContent = "cntn_fk_originalContent"
	// FieldCreatedOn is the creation timestamp of a content record.
	FieldCreatedOn = "cntn_createdOn"
	// FieldID is the human readable identifier of a content record.
	FieldID = "cntn_id"

	// TableContent holds the records criteria select from.
	TableContent = "Content"
	// TableField holds the schema descriptors used by validation.
	TableField = "Field"
	// FieldFieldName is the name column of the Field table.
	FieldFieldName = "tbfl_name"
)

// Criterion is a node in the predicate tree.
// The variant set is closed: *Leaf, *Junction, *HasParent and *HasDerived.
type Criterion interface {
	fmt.Stringer
	// Accept dispatches the node to the matching Visitor method.
	Accept(v Visitor) error
	criterion()
}

// Operator is the comparison applied by a Leaf.
type Operator int

// The comparison operators understood by the DSL.
const (
	OpEquals Operator = iota + 1
	OpNotEquals
	OpOneOf
	OpNotOneOf
	OpEqualsIgnoreCase
	OpNotEqualsIgnoreCase
	OpContains
	OpNotContains
	OpStartsWith
	OpNotStartsWith
	OpEndsWith
	OpNotEndsWith
	OpBetween
	OpNotBetween
	OpGreaterThan
	OpLessThan
)

type arity int

const (
	arityOne arity = iota
	arityMany
	arityRange
)

type operatorSpec struct {
	name  string
	wire  string
	arity arity
	// base is the positive form of a negated operator, zero otherwise.
	base Operator
}

var operators = map[Operator]operatorSpec{
	OpEquals:              {name: "equals", wire: "equals", arity: arityOne},
	OpNotEquals:           {name: "not_equals", arity: arityOne, base: OpEquals},
	OpOneOf:               {name: "one_of", wire: "inSet", arity: arityMany},
	OpNotOneOf:            {name: "not_one_of", arity: arityMany, base: OpOneOf},
	OpEqualsIgnoreCase:    {name: "equals_ignore_case", wire: "iEquals", arity: arityOne},
	OpNotEqualsIgnoreCase: {name: "not_equals_ignore_case", arity: arityOne, base: OpEqualsIgnoreCase},
	OpContains:            {name: "contains", wire: "iContains", arity: arityOne},
	OpNotContains:         {name: "not_contains", arity: arityOne, base: OpContains},
	OpStartsWith:          {name: "starts_with", wire: "startsWith", arity: arityOne},
	OpNotStartsWith:       {name: "not_starts_with", arity: arityOne, base: OpStartsWith},
	OpEndsWith:            {name: "ends_with", wire: "endsWith", arity: arityOne},
	OpNotEndsWith:         {name: "not_ends_with", arity: arityOne, base: OpEndsWith},
	OpBetween:             {name: "between", wire: "betweenInclusive", arity: arityRange},
	OpNotBetween:          {name: "not_between", arity: arityRange, base: OpBetween},
	OpGreaterThan:         {name: "greater_than", wire: "greaterThan", arity: arityOne},
	OpLessThan:            {name: "less_than", wire: "lessThan", arity: arityOne},
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operators))
	for op, spec := range operators {
		m[spec.name] = op
	}
	return m
}()

// LookupOperator returns the operator spelled name in the DSL.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

// String returns the DSL spelling of the operator.
func (o Operator) String() string {
	if spec, ok := operators[o]; ok {
		return spec.name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Negated reports whether o is the negation of another operator.
func (o Operator) Negated() bool {
	return operators[o].base != 0
}

// Base returns the positive form of a negated operator, or o itself.
func (o Operator) Base() Operator {
	if base := operators[o].base; base != 0 {
		return base
	}
	return o
}

func (o Operator) acceptsValues(n int) bool {
	switch operators[o].arity {
	case arityMany:
		return n >= 1
	case arityRange:
		return n == 2
	default:
		return n == 1
	}
}

// Leaf compares a single field against one or more values.
type Leaf struct {
	Field  string
	Values []string
	Op     Operator
}

// NewLeaf builds a Leaf.
func NewLeaf(field string, op Operator, values ...string) *Leaf {
	return &Leaf{Field: field, Op: op, Values: values}
}

// Equals builds an equality Leaf.
func Equals(field, value string) *Leaf {
	return NewLeaf(field, OpEquals, value)
}

// OneOf builds a set membership Leaf.
func OneOf(field string, values ...string) *Leaf {
	return NewLeaf(field, OpOneOf, values...)
}

// NotOneOf builds a negated set membership Leaf.
func NotOneOf(field string, values ...string) *Leaf {
	return NewLeaf(field, OpNotOneOf, values...)
}

// Value returns the first value of the leaf.
func (l *Leaf) Value() string {
	if len(l.Values) == 0 {
		return ""
	}
	return l.Values[0]
}

func (l *Leaf) String() string {
	if len(l.Values) == 0 {
		return l.Field + " " + l.Op.String()
	}
	return l.Field + " " + l.Op.String() + " " + strings.Join(l.Values, " ")
}

// Accept implements Criterion.
func (l *Leaf) Accept(v Visitor) error { return v.VisitLeaf(l) }

func (*Leaf) criterion() {}

// JunctionKind is the boolean combinator of a Junction.
type JunctionKind int

// Junction kinds.
const (
	And JunctionKind = iota + 1
	Or
	Not
)

func (k JunctionKind) String() string {
	switch k {
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	}
	return fmt.Sprintf("JunctionKind(%d)", int(k))
}

// Junction combines its members with and, or, or not.
type Junction struct {
	Members []Criterion
	Kind    JunctionKind
}

// Conjunction returns an and-junction of members.
func Conjunction(members ...Criterion) *Junction {
	return &Junction{Kind: And, Members: members}
}

// Disjunction returns an or-junction of members.
func Disjunction(members ...Criterion) *Junction {
	return &Junction{Kind: Or, Members: members}
}

// Negation returns a not-junction around member.
func Negation(member Criterion) *Junction {
	return &Junction{Kind: Not, Members: []Criterion{member}}
}

func (j *Junction) String() string {
	if j.Kind == Not && len(j.Members) == 1 {
		return "not (" + j.Members[0].String() + ")"
	}
	parts := make([]string, len(j.Members))
	for i, m := range j.Members {
		if _, ok := m.(*Junction); ok {
			parts[i] = "(" + m.String() + ")"
			continue
		}
		parts[i] = m.String()
	}
	return strings.Join(parts, " "+j.Kind.String()+" ")
}

// Accept implements Criterion.
func (j *Junction) Accept(v Visitor) error { return v.VisitJunction(j) }

func (*Junction) criterion() {}

// HasParent holds when a parent record matching Inner exists.
type HasParent struct {
	Inner  Criterion
	Negate bool
}

func (h *HasParent) String() string {
	return relationString("has_parent", h.Negate, h.Inner)
}

// Accept implements Criterion.
func (h *HasParent) Accept(v Visitor) error { return v.VisitHasParent(h) }

func (*HasParent) criterion() {}

// HasDerived holds when a derived record matching Inner exists.
type HasDerived struct {
	Inner  Criterion
	Negate bool
}

func (h *HasDerived) String() string {
	return relationString("has_derived", h.Negate, h.Inner)
}

// Accept implements Criterion.
func (h *HasDerived) Accept(v Visitor) error { return v.VisitHasDerived(h) }

func (*HasDerived) criterion() {}

func relationString(keyword string, negate bool, inner Criterion) string {
	if negate {
		keyword = "not_" + keyword
	}
	return keyword + " (" + inner.String() + ")"
}

// HasRelation reports whether a HasParent or HasDerived node appears anywhere in c.
func HasRelation(c Criterion) bool {
	switch n := c.(type) {
	case *HasParent, *HasDerived:
		return true
	case *Junction:
		for _, m := range n.Members {
			if HasRelation(m) {
				return true
			}
		}
	}
	return false
}

// IsResolved reports whether c is free of relationship nodes and may be sent to the store.
func IsResolved(c Criterion) bool {
	return c == nil || !HasRelation(c)
}
