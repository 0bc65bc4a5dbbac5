// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"sync"
	"time"
)

// debouncer owns a set of named, cancelable scheduled tasks. Scheduling
// a task under a name that is already pending replaces it.
type debouncer struct {
	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
}

type task struct {
	timer *time.Timer
}

// Run schedules f to run once, after a delay, under name, replacing any task
// pending under the same name. Run does nothing after Stop.
func (d *debouncer) Run(name string, after time.Duration, f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.tasks == nil {
		d.tasks = make(map[string]*task)
	}
	if t := d.tasks[name]; t != nil {
		t.timer.Stop()
	}
	if after < 0 {
		after = 0
	}
	t := &task{}
	t.timer = time.AfterFunc(after, func() {
		// A timer that fired while being replaced must not run.
		d.mu.Lock()
		current := d.tasks[name] == t
		if current {
			delete(d.tasks, name)
		}
		d.mu.Unlock()
		if current {
			f()
		}
	})
	d.tasks[name] = t
}

// Pending reports whether a task is scheduled under name.
func (d *debouncer) Pending(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.tasks[name]
	return ok
}

// Cancel cancels the task pending under name, if any.
func (d *debouncer) Cancel(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t := d.tasks[name]; t != nil {
		t.timer.Stop()
		delete(d.tasks, name)
	}
}

// Stop cancels every pending task and makes later calls to Run no-ops.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for name, t := range d.tasks {
		t.timer.Stop()
		delete(d.tasks, name)
	}
}
