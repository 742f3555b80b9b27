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

// Package prom implements meter.Provider on top of the prometheus client.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labflow/slimsctl/pkg/meter"
)

type provider struct {
	scope meter.Scope
	reg   prometheus.Registerer
}

// NewProvider creates a new prometheus provider with given meter.Scope.
func NewProvider(scope meter.Scope, reg prometheus.Registerer) meter.Provider {
	return &provider{scope: scope, reg: reg}
}

// NewRegistry returns a registry that also exports Go runtime and process metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Counter returns a prometheus counter.
func (p *provider) Counter(name string, labels ...string) meter.Counter {
	return counter{promauto.With(p.reg).NewCounterVec(prometheus.CounterOpts{
		Name:        p.fqName(name),
		Help:        p.fqName(name),
		ConstLabels: prometheus.Labels(p.scope.GetLabels()),
	}, labels)}
}

// Gauge returns a prometheus gauge.
func (p *provider) Gauge(name string, labels ...string) meter.Gauge {
	return gauge{promauto.With(p.reg).NewGaugeVec(prometheus.GaugeOpts{
		Name:        p.fqName(name),
		Help:        p.fqName(name),
		ConstLabels: prometheus.Labels(p.scope.GetLabels()),
	}, labels)}
}

// Histogram returns a prometheus histogram.
func (p *provider) Histogram(name string, buckets meter.Buckets, labels ...string) meter.Histogram {
	return histogram{promauto.With(p.reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:        p.fqName(name),
		Help:        p.fqName(name),
		ConstLabels: prometheus.Labels(p.scope.GetLabels()),
		Buckets:     buckets,
	}, labels)}
}

func (p *provider) fqName(name string) string {
	return p.scope.GetNamespace() + "_" + name
}

type counter struct{ *prometheus.CounterVec }

func (c counter) Inc(delta float64, labelValues ...string) {
	c.WithLabelValues(labelValues...).Add(delta)
}

type gauge struct{ *prometheus.GaugeVec }

func (g gauge) Set(value float64, labelValues ...string) {
	g.WithLabelValues(labelValues...).Set(value)
}

func (g gauge) Add(delta float64, labelValues ...string) {
	g.WithLabelValues(labelValues...).Add(delta)
}

type histogram struct{ *prometheus.HistogramVec }

func (h histogram) Observe(value float64, labelValues ...string) {
	h.WithLabelValues(labelValues...).Observe(value)
}
