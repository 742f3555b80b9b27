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

// Package record defines the handle of a remote store entity.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JSONPrefix marks a lookup path that descends into a JSON-encoded field value.
const JSONPrefix = "json:"

var (
	// ErrFieldNotFound is returned when a record carries no value for a field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrNotInteger is returned when a value cannot be read as an integer key.
	ErrNotInteger = errors.New("value is not an integer")
)

// Record is a single entity of the remote store.
// Records are shared by pointer and reflect the store at fetch time only.
type Record struct {
	Values map[string]any `json:"values"`
	Table  string         `json:"table"`
	PK     int64          `json:"pk"`
}

// New returns a record of table with the given primary key and values.
func New(table string, pk int64, values map[string]any) *Record {
	if values == nil {
		values = map[string]any{}
	}
	return &Record{Table: table, PK: pk, Values: values}
}

// Field returns the raw value of a field.
func (r *Record) Field(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// String returns the value of a field formatted as text, or "" when absent.
func (r *Record) String(name string) string {
	v, ok := r.Values[name]
	if !ok || v == nil {
		return ""
	}
	return Format(v)
}

// Int64 reads a field holding an integer, such as a foreign key.
func (r *Record) Int64(name string) (int64, error) {
	v, ok := r.Values[name]
	if !ok || v == nil {
		return 0, errors.WithMessagef(ErrFieldNotFound, "%s of %s %d", name, r.Table, r.PK)
	}
	return ToInt64(v)
}

// Lookup resolves a field name or a "json:" path such as "json:cntn_cstm_meta.runs[0].id".
func (r *Record) Lookup(path string) (any, error) {
	if !strings.HasPrefix(path, JSONPrefix) {
		v, ok := r.Values[path]
		if !ok {
			return nil, errors.WithMessage(ErrFieldNotFound, path)
		}
		return v, nil
	}
	field, keys := splitJSONPath(strings.TrimPrefix(path, JSONPrefix))
	raw, ok := r.Values[field]
	if !ok {
		return nil, errors.WithMessage(ErrFieldNotFound, field)
	}
	var doc any
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s", field)
		}
	default:
		doc = v
	}
	for _, k := range keys {
		switch node := doc.(type) {
		case map[string]any:
			next, ok := node[k]
			if !ok {
				return nil, errors.WithMessage(ErrFieldNotFound, path)
			}
			doc = next
		case []any:
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= len(node) {
				return nil, errors.WithMessage(ErrFieldNotFound, path)
			}
			doc = node[i]
		default:
			return nil, errors.WithMessage(ErrFieldNotFound, path)
		}
	}
	return doc, nil
}

// splitJSONPath splits "field.a[0].b" into "field" and ["a", "0", "b"].
func splitJSONPath(path string) (string, []string) {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '.' })
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// Format renders a field value the way it is compared against criteria values.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case nil:
		return ""
	}
	if b, err := json.Marshal(v); err == nil && (len(b) == 0 || b[0] != '"') {
		return string(b)
	}
	return fmt.Sprint(v)
}

// ToInt64 converts a decoded JSON value to an integer key.
func ToInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, errors.WithMessagef(ErrNotInteger, "%v", x)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, errors.WithMessagef(ErrNotInteger, "%q", x)
		}
		return i, nil
	}
	return 0, errors.WithMessagef(ErrNotInteger, "%T", v)
}

// PKs returns the primary keys of records in order.
func PKs(records []*Record) []int64 {
	pks := make([]int64, len(records))
	for i, r := range records {
		pks[i] = r.PK
	}
	return pks
}
