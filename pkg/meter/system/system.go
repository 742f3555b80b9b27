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

// Package system samples host and process usage into gauges.
package system

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/meter"
	"github.com/labflow/slimsctl/pkg/run"
)

// DefaultSchedule is the sampling schedule used when none is configured.
const DefaultSchedule = "@every 15s"

var (
	_ run.Config    = (*Collector)(nil)
	_ run.PreRunner = (*Collector)(nil)
	_ run.Service   = (*Collector)(nil)

	parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// Collector samples cpu, memory and process usage on a cron schedule.
type Collector struct {
	provider     meter.Provider
	start        time.Time
	cron         *cron.Cron
	l            *logger.Logger
	proc         *process.Process
	cpuNum       meter.Gauge
	cpuState     meter.Gauge
	memoryState  meter.Gauge
	processState meter.Gauge
	upTime       meter.Gauge
	stopCh       chan struct{}
	schedule     string
}

// NewCollector returns a Collector registering its gauges with provider.
func NewCollector(provider meter.Provider) *Collector {
	return &Collector{
		provider: provider,
		schedule: DefaultSchedule,
		stopCh:   make(chan struct{}),
	}
}

// Name implements run.Unit.
func (c *Collector) Name() string {
	return "system-metrics"
}

// FlagSet implements run.Config.
func (c *Collector) FlagSet() *run.FlagSet {
	fs := run.NewFlagSet("system-metrics")
	fs.StringVar(&c.schedule, "metrics-schedule", DefaultSchedule, "cron schedule sampling host and process gauges")
	return fs
}

// Validate implements run.Config.
func (c *Collector) Validate() error {
	_, err := parser.Parse(c.schedule)
	return errors.Wrapf(err, "metrics-schedule %q", c.schedule)
}

// PreRun implements run.PreRunner.
func (c *Collector) PreRun(_ context.Context) error {
	c.l = logger.GetLogger("metrics")
	c.start = time.Now()
	c.cpuNum = c.provider.Gauge("cpu_num")
	c.cpuState = c.provider.Gauge("cpu_state", "kind")
	c.memoryState = c.provider.Gauge("memory_state", "kind")
	c.processState = c.provider.Gauge("process_state", "kind")
	c.upTime = c.provider.Gauge("up_time")
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		c.l.Warn().Err(err).Msg("process gauges are disabled")
	}
	c.proc = proc
	c.cron = cron.New(cron.WithParser(parser))
	if _, err = c.cron.AddFunc(c.schedule, c.Collect); err != nil {
		return errors.Wrapf(err, "schedule %q", c.schedule)
	}
	return nil
}

// Serve implements run.Service. It samples once and then follows the schedule.
func (c *Collector) Serve() run.StopNotify {
	c.Collect()
	c.cron.Start()
	return c.stopCh
}

// GracefulStop implements run.Service and waits for a running sample to finish.
func (c *Collector) GracefulStop() {
	<-c.cron.Stop().Done()
	close(c.stopCh)
}

// Collect samples every gauge once. Failing sources are logged and skipped.
func (c *Collector) Collect() {
	c.upTime.Set(time.Since(c.start).Seconds())
	if n, err := cpu.Counts(true); err != nil {
		c.l.Error().Err(err).Msg("cannot get cpu count")
	} else {
		c.cpuNum.Set(float64(n))
	}
	c.collectCPU()
	if m, err := mem.VirtualMemory(); err != nil {
		c.l.Error().Err(err).Msg("cannot get memory stat")
	} else {
		c.memoryState.Set(m.UsedPercent/100, "used_percent")
		c.memoryState.Set(float64(m.Used), "used")
		c.memoryState.Set(float64(m.Total), "total")
	}
	c.collectProcess()
}

func (c *Collector) collectCPU() {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		c.l.Error().Err(err).Msg("cannot get cpu stat")
		return
	}
	s := times[0]
	total := s.User + s.System + s.Idle + s.Nice + s.Iowait + s.Irq + s.Softirq + s.Steal + s.Guest + s.GuestNice
	if total == 0 {
		return
	}
	c.cpuState.Set(s.User/total, "user")
	c.cpuState.Set(s.System/total, "system")
	c.cpuState.Set(s.Idle/total, "idle")
	c.cpuState.Set(s.Iowait/total, "iowait")
}

func (c *Collector) collectProcess() {
	if c.proc == nil {
		return
	}
	if info, err := c.proc.MemoryInfo(); err != nil {
		c.l.Error().Err(err).Msg("cannot get process memory")
	} else {
		c.processState.Set(float64(info.RSS), "rss")
		c.processState.Set(float64(info.VMS), "vms")
	}
	if threads, err := c.proc.NumThreads(); err == nil {
		c.processState.Set(float64(threads), "threads")
	}
	if pct, err := c.proc.CPUPercent(); err == nil {
		c.processState.Set(pct, "cpu_percent")
	}
}
