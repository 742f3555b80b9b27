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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Relationship keywords that prefix a sub-expression.
const (
	KeywordHasParent     = "has_parent"
	KeywordNotHasParent  = "not_has_parent"
	KeywordHasDerived    = "has_derived"
	KeywordNotHasDerived = "not_has_derived"
)

type parseOptions struct {
	parents []string
}

// ParseOption customizes Parse.
type ParseOption func(*parseOptions)

// WithParents supplies the parent records a leading "->" scopes to.
func WithParents(pks ...int64) ParseOption {
	return func(o *parseOptions) {
		for _, pk := range pks {
			o.parents = append(o.parents, strconv.FormatInt(pk, 10))
		}
	}
}

// Parse parses a criteria string into a Criterion tree.
//
// "and" binds before "or": when both appear at the same level the token list is split at
// the first "and" and each side is parsed on its own, so "a or b and c" reads as
// "(a or b) and c". Existing query strings depend on this order.
func Parse(criteria string, opts ...ParseOption) (Criterion, error) {
	tokens, err := Split(criteria)
	if err != nil {
		return nil, err
	}
	c, err := ParseTokens(tokens, opts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse %q", criteria)
	}
	return c, nil
}

// ParseTokens parses the output of Split.
func ParseTokens(tokens []string, opts ...ParseOption) (Criterion, error) {
	o := &parseOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return parseTokens(tokens, o)
}

func parseTokens(tokens []string, o *parseOptions) (Criterion, error) {
	if len(tokens) == 0 {
		return nil, errors.WithMessage(ErrInvalidCriteria, "empty expression")
	}
	if i := lastIndex(tokens, TokenScope); i > 0 {
		selector, err := parseTokens(tokens[:i], o)
		if err != nil {
			return nil, err
		}
		scoped, err := parseTokens(tokens[i+1:], &parseOptions{})
		if err != nil {
			return nil, err
		}
		return Conjunction(scoped, &HasParent{Inner: selector}), nil
	}
	if tokens[0] == TokenScope {
		if len(o.parents) == 0 {
			return nil, ErrMissingParentContext
		}
		scoped, err := parseTokens(tokens[1:], &parseOptions{})
		if err != nil {
			return nil, err
		}
		return Conjunction(scoped, OneOf(FieldOriginalContent, o.parents...)), nil
	}
	if c, ok, err := parseJunction(tokens, TokenAnd, And, o); ok || err != nil {
		return c, err
	}
	if c, ok, err := parseJunction(tokens, TokenOr, Or, o); ok || err != nil {
		return c, err
	}
	if len(tokens) == 1 {
		if needsResplit(tokens[0]) {
			sub, err := Split(tokens[0])
			if err != nil {
				return nil, err
			}
			return parseTokens(sub, o)
		}
		return parseWords(strings.Fields(tokens[0]), o)
	}
	if isRelationKeyword(tokens[0]) {
		inner, err := parseTokens(tokens[1:], o)
		if err != nil {
			return nil, err
		}
		return relation(tokens[0], inner), nil
	}
	return nil, errors.WithMessagef(ErrInvalidCriteria, "%q", strings.Join(tokens, " "))
}

func parseJunction(tokens []string, keyword string, kind JunctionKind, o *parseOptions) (Criterion, bool, error) {
	i := slices.Index(tokens, keyword)
	if i < 0 {
		return nil, false, nil
	}
	left, err := parseTokens(tokens[:i], o)
	if err != nil {
		return nil, true, err
	}
	right, err := parseTokens(tokens[i+1:], o)
	if err != nil {
		return nil, true, err
	}
	return &Junction{Kind: kind, Members: []Criterion{left, right}}, true, nil
}

func parseWords(words []string, o *parseOptions) (Criterion, error) {
	if len(words) == 0 {
		return nil, errors.WithMessage(ErrInvalidCriteria, "empty expression")
	}
	if isRelationKeyword(words[0]) {
		inner, err := parseWords(words[1:], o)
		if err != nil {
			return nil, err
		}
		return relation(words[0], inner), nil
	}
	field := words[0]
	if !strings.HasPrefix(field, FieldPrefix) {
		return nil, errors.WithMessagef(ErrInvalidField, "%q", field)
	}
	if len(words) < 2 {
		return nil, errors.WithMessagef(ErrInvalidCriteria, "%q has no operator", field)
	}
	op, ok := LookupOperator(words[1])
	if !ok {
		return nil, errors.WithMessagef(ErrInvalidCriteria, "unknown operator %q", words[1])
	}
	values := words[2:]
	if !op.acceptsValues(len(values)) {
		return nil, errors.WithMessagef(ErrInvalidCriteria, "%s takes %s, got %d",
			op, arityDescription(op), len(values))
	}
	return NewLeaf(field, op, slices.Clone(values)...), nil
}

func arityDescription(op Operator) string {
	switch operators[op].arity {
	case arityMany:
		return "one or more values"
	case arityRange:
		return "a start and an end value"
	default:
		return "exactly one value"
	}
}

func isRelationKeyword(s string) bool {
	switch s {
	case KeywordHasParent, KeywordNotHasParent, KeywordHasDerived, KeywordNotHasDerived:
		return true
	}
	return false
}

func relation(keyword string, inner Criterion) Criterion {
	switch keyword {
	case KeywordHasParent:
		return &HasParent{Inner: inner}
	case KeywordNotHasParent:
		return &HasParent{Inner: inner, Negate: true}
	case KeywordHasDerived:
		return &HasDerived{Inner: inner}
	default:
		return &HasDerived{Inner: inner, Negate: true}
	}
}

func lastIndex(tokens []string, token string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == token {
			return i
		}
	}
	return -1
}
