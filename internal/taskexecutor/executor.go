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

// Package taskexecutor adapts a threadpool.Pool with the future/task
// protocol: Submit takes a Task and hands back a Future through which the
// submitter observes completion, failure, or abortion.
package taskexecutor

import (
	"time"

	"github.com/googlecloudplatform/tserver-taskpool/cfg"
	"github.com/googlecloudplatform/tserver-taskpool/internal/poolmetrics"
	"github.com/googlecloudplatform/tserver-taskpool/internal/threadpool"
)

// Executor is a stateless adapter around a Pool. It owns no state of its
// own beyond the pool and an optional metrics recorder.
type Executor struct {
	pool    *threadpool.Pool
	metrics *poolmetrics.Recorder
}

// New wraps pool. metrics may be nil.
func New(pool *threadpool.Pool, metrics *poolmetrics.Recorder) *Executor {
	return &Executor{pool: pool, metrics: metrics}
}

// Create builds a Pool named name with the given thread bounds and wraps
// it, mirroring the factory signature spec'd for the Executor surface.
func Create(name string, minThreads, maxThreads int) (*Executor, error) {
	pool, err := threadpool.NewBuilder(name).MinThreads(minThreads).MaxThreads(maxThreads).Build()
	if err != nil {
		return nil, err
	}
	return New(pool, nil), nil
}

// NewFromConfig builds a Pool from tc's knobs and wraps it, wiring metrics
// if non-nil. This is the constructor cmd/taskpoolctl uses once it has
// unmarshalled a cfg.Config.
func NewFromConfig(tc cfg.ThreadPoolConfig, metrics *poolmetrics.Recorder) (*Executor, error) {
	pool, err := threadpool.NewBuilder(tc.Name).
		MinThreads(tc.MinThreads).
		MaxThreads(tc.MaxThreads).
		MaxQueueSize(tc.MaxQueueSize).
		IdleTimeout(tc.IdleTimeout).
		Metrics(metrics).
		Build()
	if err != nil {
		return nil, err
	}
	return New(pool, metrics), nil
}

// Submit wraps task in a FutureTask and submits it to the pool.
func (e *Executor) Submit(task Task) (Future, error) {
	return e.SubmitFutureTask(NewFutureTask(task))
}

// SubmitFunc adapts a bare run function into a non-abortable Task and
// submits it.
func (e *Executor) SubmitFunc(run func() error) (Future, error) {
	return e.Submit(NewTask(run))
}

// SubmitAbortableFunc adapts run and abort into a Task and submits it.
func (e *Executor) SubmitAbortableFunc(run func() error, abort func() bool) (Future, error) {
	return e.Submit(NewAbortableTask(run, abort))
}

// SubmitFutureTask submits a pre-constructed FutureTask, for callers that
// need the handle (e.g. to register listeners) before the task is queued.
func (e *Executor) SubmitFutureTask(ft *FutureTask) (Future, error) {
	if e.metrics != nil {
		ft.AddListener(ListenerFunc(
			func() { e.metrics.IncFinished("ok") },
			func(error) { e.metrics.IncFinished("error") },
		))
	}
	if err := e.pool.Submit(ft); err != nil {
		return nil, err
	}
	return ft, nil
}

// Wait delegates to the pool.
func (e *Executor) Wait() {
	e.pool.Wait()
}

// TimedWait delegates to the pool.
func (e *Executor) TimedWait(deadline time.Time) bool {
	return e.pool.TimedWait(deadline)
}

// Shutdown delegates to the pool.
func (e *Executor) Shutdown() {
	e.pool.Shutdown()
}
