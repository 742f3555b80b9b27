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

package cmd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter"
	"github.com/labflow/slimsctl/pkg/meter/prom"
	"github.com/labflow/slimsctl/pkg/records"
	"github.com/labflow/slimsctl/pkg/run"
	"github.com/labflow/slimsctl/pkg/slims"
	"github.com/labflow/slimsctl/pkg/store"
	"github.com/labflow/slimsctl/pkg/store/memstore"
)

const metricsNamespace = "slimsctl"

var (
	_ run.Config    = (*backend)(nil)
	_ run.PreRunner = (*backend)(nil)
	_ run.Service   = (*backend)(nil)
)

// backend owns the record store and the records service built on it. Records come from
// SLIMS, or from a fixture file when one is given.
type backend struct {
	reg            prometheus.Registerer
	svc            *records.Service
	mem            *memstore.Store
	watcher        *memstore.Watcher
	stopCh         chan struct{}
	cfg            slims.Config
	fixture        string
	pageSize       int
	refuseFullScan bool
}

func newBackend(reg prometheus.Registerer) *backend {
	return &backend{reg: reg, stopCh: make(chan struct{})}
}

func (b *backend) Name() string {
	return "slims"
}

func (b *backend) FlagSet() *run.FlagSet {
	fs := run.NewFlagSet("slims")
	fs.StringVar(&b.cfg.URL, "url", "", "the base url of SLIMS")
	fs.StringVar(&b.cfg.Username, "username", "", "the SLIMS user")
	fs.StringVar(&b.cfg.Password, "password", "", "the password of the SLIMS user")
	fs.DurationVar(&b.cfg.Timeout, "timeout", slims.DefaultTimeout, "the timeout of a single SLIMS request")
	fs.IntVar(&b.pageSize, "page-size", store.DefaultPageSize, "records requested per page")
	fs.StringVar(&b.fixture, "fixture", "", "serve records from a fixture file instead of SLIMS")
	fs.BoolVar(&b.refuseFullScan, "refuse-full-scan", false, "return nothing instead of every record when the criteria match all")
	return fs
}

func (b *backend) Validate() error {
	if b.fixture == "" && b.cfg.URL == "" {
		return errors.WithMessage(slims.ErrConfig, "either url or fixture is required")
	}
	if b.pageSize <= 0 {
		return errors.WithMessagef(slims.ErrConfig, "page-size %d is not positive", b.pageSize)
	}
	if b.cfg.Timeout < time.Millisecond {
		return errors.WithMessagef(slims.ErrConfig, "timeout %s is too short", b.cfg.Timeout)
	}
	return nil
}

func (b *backend) PreRun(_ context.Context) error {
	var fetcher store.PageFetcher
	if b.fixture != "" {
		mem, err := memstore.Load(b.fixture)
		if err != nil {
			return err
		}
		b.mem, fetcher = mem, mem
	} else {
		client, err := slims.NewClient(b.cfg)
		if err != nil {
			return err
		}
		fetcher = client
	}
	b.svc = records.NewService(
		store.NewPaginated(fetcher, store.WithPageSize(b.pageSize), store.WithMeter(b.provider("store"))),
		records.RefuseFullScan(b.refuseFullScan),
		records.WithMeter(b.provider("query")),
	)
	return nil
}

// Serve keeps a fixture store in sync with its file until GracefulStop.
func (b *backend) Serve() run.StopNotify {
	if b.mem == nil {
		return b.stopCh
	}
	w, err := b.mem.Watch(b.fixture)
	if err != nil {
		logger.GetLogger("slims").Warn().Err(err).Msg("fixture changes will not be reloaded")
		return b.stopCh
	}
	b.watcher = w
	return b.stopCh
}

func (b *backend) GracefulStop() {
	if b.watcher != nil {
		if err := b.watcher.Close(); err != nil {
			logger.GetLogger("slims").Error().Err(err).Msg("failed to close the fixture watcher")
		}
	}
	close(b.stopCh)
}

// Records returns the service built during PreRun.
func (b *backend) Records() *records.Service {
	return b.svc
}

func (b *backend) provider(subsystem string) meter.Provider {
	if b.reg == nil {
		return meter.NoopProvider{}
	}
	return prom.NewProvider(meter.NewHierarchicalScope(metricsNamespace, "_").SubScope(subsystem), b.reg)
}
