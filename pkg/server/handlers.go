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

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/records"
	"github.com/labflow/slimsctl/pkg/timestamp"
)

const headerRequestID = "X-Request-Id"

type parseRequest struct {
	Criteria string  `json:"criteria"`
	Parents  []int64 `json:"parents,omitempty"`
}

type parseResponse struct {
	Dict      map[string]any `json:"dict"`
	Criterion string         `json:"criterion"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requestScope tags every request with an id and stores a logger carrying it in the
// request context.
func (p *Server) requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		l := p.l.WithField("request_id", id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))
		l.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", ww.Status()).Dur("took", time.Since(start)).Msg("served")
	})
}

func (p *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (p *Server) parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	c, err := criteria.Parse(req.Criteria, criteria.WithParents(req.Parents...))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c = criteria.Unnest(c)
	writeJSON(w, http.StatusOK, parseResponse{Criterion: c.String(), Dict: criteria.Dict(c)})
}

func (p *Server) query(w http.ResponseWriter, r *http.Request) {
	var q records.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	result, err := p.svc.Find(r.Context(), q)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusBadGateway {
			logger.Fetch(r.Context(), "query").Error().Err(err).Msg("query failed")
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, criteria.ErrSyntax),
		errors.Is(err, criteria.ErrInvalidField),
		errors.Is(err, records.ErrEmptyQuery),
		errors.Is(err, timestamp.ErrInvalidAge):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
