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

// Package server exposes the criteria engine over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter/prom"
	"github.com/labflow/slimsctl/pkg/records"
	"github.com/labflow/slimsctl/pkg/run"
)

var (
	_ run.Config    = (*Server)(nil)
	_ run.PreRunner = (*Server)(nil)
	_ run.Service   = (*Server)(nil)

	errNoAddr = errors.New("http: no address")
)

const shutdownTimeout = 10 * time.Second

// Source provides the records service. It is consulted once, during pre-run.
type Source interface {
	Records() *records.Service
}

// Server serves the query API and the metrics endpoint.
type Server struct {
	source     Source
	gatherer   prometheus.Gatherer
	svc        *records.Service
	l          *logger.Logger
	mux        *chi.Mux
	srv        *http.Server
	stopCh     chan struct{}
	host       string
	listenAddr string
	port       uint32
}

// NewServer returns a server answering queries with source. Metrics are gathered from
// gatherer when it is not nil.
func NewServer(source Source, gatherer prometheus.Gatherer) *Server {
	return &Server{
		source:   source,
		gatherer: gatherer,
		stopCh:   make(chan struct{}),
	}
}

// Name implements run.Unit.
func (p *Server) Name() string {
	return "http"
}

// FlagSet implements run.Config.
func (p *Server) FlagSet() *run.FlagSet {
	flagSet := run.NewFlagSet("http")
	flagSet.StringVar(&p.host, "http-host", "localhost", "listen host for http")
	flagSet.Uint32Var(&p.port, "http-port", 17980, "listen port for http")
	return flagSet
}

// Validate implements run.Config.
func (p *Server) Validate() error {
	p.listenAddr = net.JoinHostPort(p.host, strconv.FormatUint(uint64(p.port), 10))
	if p.listenAddr == ":" {
		return errNoAddr
	}
	return nil
}

// PreRun implements run.PreRunner.
func (p *Server) PreRun(_ context.Context) error {
	p.l = logger.GetLogger(p.Name())
	p.svc = p.source.Records()
	if p.svc == nil {
		return errors.New("http: no records service")
	}
	p.mux = chi.NewRouter()
	p.mux.Use(middleware.Recoverer, p.requestScope, compress)
	p.mux.Route("/api", func(r chi.Router) {
		r.Get("/healthz", p.healthz)
		r.Post("/v1/criteria/parse", p.parse)
		r.Post("/v1/records/query", p.query)
	})
	if p.gatherer != nil {
		p.mux.Handle("/metrics", prom.Handler(p.gatherer))
	}
	p.srv = &http.Server{
		Addr:              p.listenAddr,
		Handler:           p.mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// compress gzips large responses for clients that accept it.
func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Handler returns the router. It is available after PreRun.
func (p *Server) Handler() http.Handler {
	return p.mux
}

// Serve implements run.Service.
func (p *Server) Serve() run.StopNotify {
	go func() {
		p.l.Info().Str("listenAddr", p.listenAddr).Msg("start http server")
		if err := p.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			p.l.Error().Err(err).Msg("http server stopped")
		}
		close(p.stopCh)
	}()
	return p.stopCh
}

// GracefulStop implements run.Service.
func (p *Server) GracefulStop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.srv.Shutdown(ctx); err != nil {
		p.l.Error().Err(err).Msg("failed to shut down http server")
	}
}
