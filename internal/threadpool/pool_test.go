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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — FIFO: a single permanent worker must run 100 submitted tasks in
// submission order.
func TestPool_FIFO(t *testing.T) {
	p, err := NewBuilder("fifo").MinThreads(1).MaxThreads(1).MaxQueueSize(100).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	var mu sync.Mutex
	var order []int

	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, p.SubmitFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

// S2 — Elastic growth: 20 tasks that each sleep 50ms against {min=0,
// max=4} must drive num_threads to exactly 4 and all finish.
func TestPool_ElasticGrowth(t *testing.T) {
	p, err := NewBuilder("elastic").MinThreads(0).MaxThreads(4).MaxQueueSize(100).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	var mu sync.Mutex
	peak := 0
	var completed int

	for i := 0; i < 20; i++ {
		require.NoError(t, p.SubmitFunc(func() {
			p.mu.Lock()
			if p.numThreads > peak {
				peak = p.numThreads
			}
			p.mu.Unlock()
			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			completed++
			mu.Unlock()
		}))
	}

	p.Wait()

	assert.Equal(t, 4, peak)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, completed)
}

// S3 — Backpressure: {min=1, max=1, queue=2}. One blocking task, two
// queued, a fourth submit must fail with ErrQueueFull; releasing the
// blocker lets the first three complete.
func TestPool_Backpressure(t *testing.T) {
	p, err := NewBuilder("backpressure").MinThreads(1).MaxThreads(1).MaxQueueSize(2).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, p.SubmitFunc(func() {
		close(started)
		<-release
	}))
	<-started

	var mu sync.Mutex
	var ran []int
	for i := 0; i < 2; i++ {
		i := i
		require.NoError(t, p.SubmitFunc(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		}))
	}

	err = p.SubmitFunc(func() {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1}, ran)
}

// S6 — Shutdown drains: 50 fast tasks submitted, then Shutdown; not all of
// them run, no worker is left alive, and later submits fail with
// ErrUnavailable. The items carry no trace handles, so trace release is
// not checked here.
func TestPool_ShutdownDrains(t *testing.T) {
	p, err := NewBuilder("shutdown-drains").MinThreads(0).MaxThreads(1).MaxQueueSize(100).Build()
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.SubmitFunc(func() {
		close(started)
		<-release
	}))
	<-started

	var mu sync.Mutex
	var ran int
	for i := 0; i < 50; i++ {
		require.NoError(t, p.SubmitFunc(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		}))
	}

	close(release)
	p.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, ran, 50)
	assert.Equal(t, 0, p.numThreads)

	assert.ErrorIs(t, p.Submit(FromFunc(func() {})), ErrUnavailable)
}

// Invariant 7 — idle-timeout reaping: with min_threads=0, num_threads
// returns to 0 after idle_timeout with nothing queued, and a subsequent
// submit still succeeds and runs. idle_timeout is set to an hour and a
// SimulatedClock fast-forwarded past it, rather than waiting on a real
// sleep, so the test's runtime doesn't depend on how long idle_timeout
// actually is.
func TestPool_IdleTimeoutReaping(t *testing.T) {
	clock := &timeutil.SimulatedClock{}
	p, err := NewBuilder("idle-reap").MinThreads(0).MaxThreads(2).MaxQueueSize(10).
		IdleTimeout(time.Hour).Clock(clock).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	done := make(chan struct{})
	require.NoError(t, p.SubmitFunc(func() { close(done) }))
	<-done

	clock.AdvanceTime(2 * time.Hour)

	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.numThreads == 0
	}, time.Second, condPollInterval)

	again := make(chan struct{})
	require.NoError(t, p.SubmitFunc(func() { close(again) }))
	select {
	case <-again:
	case <-time.After(time.Second):
		t.Fatal("task submitted after idle-reap never ran")
	}
}

// Invariant 8 — permanent worker floor: with min_threads=k, num_threads
// never drops below k between Build and Shutdown, even while idle.
func TestPool_PermanentWorkerFloor(t *testing.T) {
	p, err := NewBuilder("floor").MinThreads(2).MaxThreads(4).
		IdleTimeout(10 * time.Millisecond).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	time.Sleep(100 * time.Millisecond)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.GreaterOrEqual(t, p.numThreads, 2)
}

// Submit before Build's init has run (simulated via the zero-value
// newPool path) is rejected as Uninitialized.
func TestPool_SubmitBeforeInit(t *testing.T) {
	p := newPool(NewBuilder("uninit").MaxThreads(1))
	err := p.Submit(FromFunc(func() {}))
	assert.ErrorIs(t, err, ErrUninitialized)
}

// Spawn failure with zero live workers fails Build outright.
func TestPool_BuildSpawnFailure(t *testing.T) {
	b := NewBuilder("spawn-fail").MinThreads(1).MaxThreads(1)
	p := newPool(b)
	p.spawnHook = func() error { return errors.New("injected spawn failure") }
	err := p.init()
	assert.ErrorIs(t, err, ErrSpawnFailed)
}

// Shutdown is idempotent.
func TestPool_ShutdownIdempotent(t *testing.T) {
	p, err := NewBuilder("idempotent").MinThreads(1).MaxThreads(1).Build()
	require.NoError(t, err)
	p.Shutdown()
	assert.NotPanics(t, func() { p.Shutdown() })
}
