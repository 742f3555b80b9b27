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
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Tokens emitted for the boolean separators.
const (
	TokenAnd   = "and"
	TokenOr    = "or"
	TokenScope = "->"
)

const splitCacheSize = 1024

var separators = []string{" " + TokenAnd + " ", " " + TokenOr + " ", " " + TokenScope + " "}

var splitCache = func() *lru.Cache {
	c, err := lru.New(splitCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}()

// Split tokenizes a criteria string at the boolean level.
//
// Parenthesized groups at nesting depth zero become single tokens with their outer
// parentheses removed; "and", "or" and "->" at depth zero become separate tokens.
//
//	Split("a is x and (b is y or c is d) or g is h")
//	// ["a is x", "and", "b is y or c is d", "or", "g is h"]
func Split(criteria string) ([]string, error) {
	normalized := strings.Join(strings.Fields(criteria), " ")
	if cached, ok := splitCache.Get(normalized); ok {
		return append([]string(nil), cached.([]string)...), nil
	}
	tokens, err := split(normalized)
	if err != nil {
		return nil, errors.WithMessagef(err, "%q", criteria)
	}
	splitCache.Add(normalized, tokens)
	return append([]string(nil), tokens...), nil
}

func split(s string) ([]string, error) {
	var (
		tokens []string
		part   strings.Builder
		depth  int
	)
	flush := func() {
		if t := strings.TrimSpace(part.String()); t != "" {
			tokens = append(tokens, t)
		}
		part.Reset()
	}
	if strings.HasPrefix(s, TokenScope+" ") || s == TokenScope {
		tokens = append(tokens, TokenScope)
		s = strings.TrimPrefix(s, TokenScope)
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(':
			if depth == 0 {
				flush()
			} else {
				part.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, ErrUnmatchedParentheses
			}
			if depth == 0 {
				flush()
			} else {
				part.WriteByte(c)
			}
		case depth == 0 && c == ' ':
			if sep, ok := separatorAt(s, i); ok {
				flush()
				tokens = append(tokens, strings.TrimSpace(sep))
				// keep the trailing space so a following separator still matches
				i += len(sep) - 1
				continue
			}
			part.WriteByte(c)
		default:
			part.WriteByte(c)
		}
		i++
	}
	if depth != 0 {
		return nil, ErrUnmatchedParentheses
	}
	flush()
	if len(tokens) == 1 && needsResplit(tokens[0]) {
		return split(tokens[0])
	}
	return tokens, nil
}

func separatorAt(s string, i int) (string, bool) {
	for _, sep := range separators {
		if strings.HasPrefix(s[i:], sep) {
			return sep, true
		}
	}
	return "", false
}

func needsResplit(token string) bool {
	if strings.ContainsAny(token, "()") || strings.HasPrefix(token, TokenScope+" ") {
		return true
	}
	for _, sep := range separators {
		if strings.Contains(token, sep) {
			return true
		}
	}
	return false
}
