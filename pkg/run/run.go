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

// Package run implements a lifecycle framework to control modules.
package run

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/labflow/slimsctl/pkg/config"
	"github.com/labflow/slimsctl/pkg/logger"
)

// FlagSet holds a pflag.FlagSet as well as an exported Name variable for
// allowing improved help usage information.
type FlagSet struct {
	*pflag.FlagSet
	Name string
}

// NewFlagSet returns a new FlagSet for usage in Config objects.
func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		FlagSet: pflag.NewFlagSet(name, pflag.ContinueOnError),
		Name:    name,
	}
}

// Unit is the default interface an object needs to implement for it to be able
// to register with a Group.
type Unit interface {
	Name() string
}

// Config is implemented by Units that manage their own flags.
// A Validate error stops the Group before anything runs.
type Config interface {
	Unit
	FlagSet() *FlagSet
	Validate() error
}

// PreRunner is implemented by Units that prepare resources before services start.
type PreRunner interface {
	Unit
	PreRun(context.Context) error
}

// StopNotify sends the stopped event to the running system.
type StopNotify <-chan struct{}

// Service is implemented by Units that run until stopped.
// Serve must not block; the returned channel is closed once the service has stopped.
// GracefulStop must make that happen.
type Service interface {
	Unit
	Serve() StopNotify
	GracefulStop()
}

// Group builds on https://github.com/oklog/run to run Units through the config,
// pre-run and serve phases.
type Group struct {
	f          *FlagSet
	readyCh    chan struct{}
	log        *logger.Logger
	name       string
	configFile string
	r          run.Group
	c          []Config
	p          []PreRunner
	s          []Service
	listUnits  bool
	configured bool
}

// NewGroup return a Group with input name.
func NewGroup(name string) *Group {
	return &Group{
		name:    name,
		readyCh: make(chan struct{}),
	}
}

// Name shows the name of the group.
func (g *Group) Name() string {
	return g.name
}

// Register adds units to every phase they implement. The result tells, per unit,
// whether it joined at least one phase.
func (g *Group) Register(units ...Unit) []bool {
	registered := make([]bool, len(units))
	for i, u := range units {
		if c, ok := u.(Config); ok && !g.configured {
			g.c = append(g.c, c)
			registered[i] = true
		}
		if p, ok := u.(PreRunner); ok {
			g.p = append(g.p, p)
			registered[i] = true
		}
		if s, ok := u.(Service); ok {
			g.s = append(g.s, s)
			registered[i] = true
		}
	}
	return registered
}

// RegisterFlags returns FlagSet contains Flags in all modules.
func (g *Group) RegisterFlags() *FlagSet {
	g.log = logger.GetLogger(g.name)
	g.f = NewFlagSet(g.name)
	g.f.SortFlags = false
	g.f.StringVar(&g.configFile, "config", "", "path to a configuration file")
	g.f.BoolVar(&g.listUnits, "show-rungroup-units", false, "show rungroup units")
	for _, c := range g.c {
		fs := c.FlagSet()
		if fs == nil {
			continue
		}
		fs.VisitAll(func(f *pflag.Flag) {
			if g.f.Lookup(f.Name) != nil {
				g.log.Warn().Str("unit", c.Name()).Str("flag", f.Name).Msg("ignoring duplicate flag")
				return
			}
			g.f.AddFlag(f)
		})
	}
	return g.f
}

// RunConfig loads configuration into the registered flags and validates every Config
// unit. interrupted is set when the group was only asked to describe itself.
func (g *Group) RunConfig() (interrupted bool, err error) {
	if g.f == nil {
		g.RegisterFlags()
	}
	g.configured = true
	if err = config.Load(g.name, g.configFile, g.f.FlagSet); err != nil {
		return false, errors.Wrapf(err, "%s fails to load config", g.name)
	}
	if g.listUnits {
		fmt.Println(g.ListUnits())
		return true, nil
	}
	for _, c := range g.c {
		g.log.Debug().Str("name", c.Name()).Msg("validate config")
		err = multierr.Append(err, c.Validate())
	}
	return false, err
}

// Run executes the config, pre-run and serve phases and blocks until the first
// service stops. Every other service is then stopped gracefully.
func (g *Group) Run(ctx context.Context) error {
	if interrupted, err := g.RunConfig(); interrupted || err != nil {
		return err
	}
	for _, p := range g.p {
		g.log.Debug().Str("name", p.Name()).Msg("pre-run")
		if err := p.PreRun(ctx); err != nil {
			return errors.WithMessagef(err, "pre-run %s", p.Name())
		}
	}
	ready := &sync.WaitGroup{}
	ready.Add(len(g.s))
	go func() {
		ready.Wait()
		close(g.readyCh)
	}()
	for _, s := range g.s {
		g.r.Add(func() error {
			g.log.Debug().Str("name", s.Name()).Msg("serve")
			notify := s.Serve()
			ready.Done()
			<-notify
			return nil
		}, func(_ error) {
			g.log.Debug().Str("name", s.Name()).Msg("stop")
			s.GracefulStop()
		})
	}
	g.log.Info().Int("services", len(g.s)).Msg("started")
	return g.r.Run()
}

// ListUnits returns a list of all Group phases and the Units registered to each
// of them.
func (g *Group) ListUnits() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group: %s", g.name)
	phase := func(title string, names []string) {
		if len(names) > 0 {
			fmt.Fprintf(&b, "\n- %s: %s", title, strings.Join(names, " "))
		}
	}
	phase("config", unitNames(g.c))
	phase("prerun", unitNames(g.p))
	phase("serve ", unitNames(g.s))
	return b.String()
}

// WaitTillReady blocks the goroutine till all services are serving.
func (g *Group) WaitTillReady() {
	<-g.readyCh
}

func unitNames[U Unit](units []U) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name()
	}
	return names
}
