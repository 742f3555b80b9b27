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
	"github.com/pkg/errors"
)

var (
	// ErrSyntax is the root of every tokenize or parse failure.
	ErrSyntax = errors.New("criteria syntax error")
	// ErrUnmatchedParentheses is returned when parentheses do not balance.
	ErrUnmatchedParentheses = errors.WithMessage(ErrSyntax, "unmatched parentheses")
	// ErrInvalidCriteria is returned for an unknown operator or a wrong number of values.
	ErrInvalidCriteria = errors.WithMessage(ErrSyntax, "invalid criteria")
	// ErrMissingParentContext is returned when "->" is used without parent records.
	ErrMissingParentContext = errors.WithMessage(ErrSyntax, "\"->\" requires parent records")
	// ErrInvalidField is returned for a field that lacks the reserved prefix or does not exist in the schema.
	ErrInvalidField = errors.New("invalid field")
	// ErrUnresolved is returned when a tree still holding relationship nodes reaches the store.
	ErrUnresolved = errors.New("criteria contain unresolved relationship operators")
)
