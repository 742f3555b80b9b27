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

package memstore

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/logger"
)

// Watcher reloads a Store whenever its fixture file is written or replaced.
type Watcher struct {
	store    *Store
	w        *fsnotify.Watcher
	l        *logger.Logger
	done     chan struct{}
	path     string
	reloaded int
	mu       sync.Mutex
}

// Watch starts reloading s from path on every change. The parent directory is watched
// so that editors replacing the file by rename are noticed.
func (s *Store) Watch(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fixture watcher")
	}
	if err = fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch fixture %s", path)
	}
	w := &Watcher{
		store: s,
		w:     fw,
		l:     logger.GetLogger("memstore").Named("watcher"),
		done:  make(chan struct{}),
		path:  path,
	}
	go w.loop()
	return w, nil
}

// Reloads returns how many times the fixture was reloaded successfully.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloaded
}

// Close stops watching and waits for a pending reload.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.l.Error().Err(err).Str("path", w.path).Msg("fixture watcher failed")
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		// a half-written file is retried on its next write
		w.l.Warn().Err(err).Msg("keeping the previous fixture")
		return
	}
	w.store.Replace(next)
	w.mu.Lock()
	w.reloaded++
	w.mu.Unlock()
	w.l.Info().Str("path", w.path).Msg("fixture reloaded")
}
