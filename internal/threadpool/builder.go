// Copyright 2025 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package threadpool

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/googlecloudplatform/tserver-taskpool/internal/poolmetrics"
	"github.com/jacobsa/timeutil"
)

// Builder is a fluent configuration record for a Pool. Every setter
// validates its argument immediately: an invalid value is a programmer
// error and panics rather than being deferred to Build.
type Builder struct {
	name         string
	minThreads   int
	maxThreads   int
	maxQueueSize int
	idleTimeout  time.Duration
	metrics      *poolmetrics.Recorder
	clock        timeutil.Clock
}

// NewBuilder returns a Builder for a pool named name, with the defaults
// from the options table: min_threads=0, max_threads=runtime.NumCPU(),
// max_queue_size=MaxInt, idle_timeout=500ms.
func NewBuilder(name string) *Builder {
	if name == "" {
		panic("threadpool: name must be non-empty")
	}
	return &Builder{
		name:         name,
		minThreads:   0,
		maxThreads:   runtime.NumCPU(),
		maxQueueSize: math.MaxInt,
		idleTimeout:  500 * time.Millisecond,
		clock:        timeutil.RealClock(),
	}
}

// MinThreads sets the number of permanent workers spawned by Init.
func (b *Builder) MinThreads(n int) *Builder {
	if n < 0 {
		panic("threadpool: min_threads must be >= 0")
	}
	b.minThreads = n
	return b
}

// MaxThreads sets the upper bound on live workers.
func (b *Builder) MaxThreads(n int) *Builder {
	if n < 1 {
		panic("threadpool: max_threads must be >= 1")
	}
	b.maxThreads = n
	return b
}

// MaxQueueSize sets the FIFO queue's capacity.
func (b *Builder) MaxQueueSize(n int) *Builder {
	if n < 1 {
		panic("threadpool: max_queue_size must be >= 1")
	}
	b.maxQueueSize = n
	return b
}

// IdleTimeout sets how long a non-permanent worker waits on an empty queue
// before self-reaping.
func (b *Builder) IdleTimeout(d time.Duration) *Builder {
	if d < 0 {
		panic("threadpool: idle_timeout must be >= 0")
	}
	b.idleTimeout = d
	return b
}

// Metrics wires an optional Recorder into the built Pool. Passing nil (the
// default) disables metrics entirely.
func (b *Builder) Metrics(r *poolmetrics.Recorder) *Builder {
	b.metrics = r
	return b
}

// Clock overrides the pool's time source. Defaults to timeutil.RealClock();
// tests pass a *timeutil.SimulatedClock to drive idle-timeout reaping
// deterministically with AdvanceTime instead of waiting on real sleeps.
func (b *Builder) Clock(c timeutil.Clock) *Builder {
	if c == nil {
		panic("threadpool: clock must be non-nil")
	}
	b.clock = c
	return b
}

// Build constructs a Pool and runs its initializer, spawning min_threads
// permanent workers. If any of them fails to spawn, the partially built
// pool is shut down and the failure is returned.
func (b *Builder) Build() (*Pool, error) {
	if b.minThreads > b.maxThreads {
		panic("threadpool: min_threads must be <= max_threads")
	}

	p := newPool(b)
	if err := p.init(); err != nil {
		return nil, fmt.Errorf("threadpool %q: %w", b.name, err)
	}
	return p, nil
}
