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

package taskexecutor

import (
	"errors"
	"sync"
	"time"

	"github.com/googlecloudplatform/tserver-taskpool/internal/tracecontext"
)

// ErrAborted is the status reported to listeners (and from Status) when a
// FutureTask is run after having been aborted, whether the abort happened
// before the worker ever picked it up or raced with a Run already in
// flight.
var ErrAborted = errors.New("taskexecutor: task was aborted")

type taskState int

const (
	statePending taskState = iota
	stateRunning
	stateFinished
	stateAborted
)

// Future is the handle a submitter gets back from Executor.Submit. It
// hides the WorkItem-facing Run method of the underlying FutureTask.
type Future interface {
	Wait()
	TimedWait(deadline time.Time) bool
	Abort() bool
	AddListener(l Listener)
	Status() error
	IsPending() bool
	IsRunning() bool
	IsDone() bool
	IsAborted() bool
}

// FutureTask composes a Task with a Future and is itself a
// threadpool.WorkItem (see Run). Ownership: the task payload belongs
// exclusively to this FutureTask; listeners are owned by it until the
// terminal transition drains and fires them, which is what keeps a
// listener closing over the Future from creating a permanent reference
// cycle.
type FutureTask struct {
	mu        sync.Mutex
	state     taskState
	status    error
	done      bool
	listeners []Listener
	latch     chan struct{}

	task  Task
	trace *tracecontext.Handle
}

// NewFutureTask wraps task in a pending FutureTask ready for submission.
func NewFutureTask(task Task) *FutureTask {
	return &FutureTask{
		state: statePending,
		task:  task,
		latch: make(chan struct{}),
	}
}

// WithTrace attaches a trace handle to be adopted by whichever worker
// eventually runs this FutureTask, satisfying threadpool.Traceable.
func (ft *FutureTask) WithTrace(h *tracecontext.Handle) *FutureTask {
	ft.trace = h
	return ft
}

// Trace implements threadpool.Traceable.
func (ft *FutureTask) Trace() *tracecontext.Handle {
	return ft.trace
}

// Run implements threadpool.WorkItem. It is invoked by the Pool worker
// that dequeued this FutureTask, and must run at most once.
func (ft *FutureTask) Run() {
	ft.mu.Lock()
	if ft.state == stateAborted {
		ft.finishLocked(ErrAborted)
		return
	}
	if ft.state != statePending {
		ft.mu.Unlock()
		return
	}
	ft.state = stateRunning
	ft.mu.Unlock()

	err := ft.task.Run()

	ft.mu.Lock()
	if ft.state == stateAborted {
		// Abort() raced with this Run and won; the Aborted transition takes
		// precedence over whatever the task itself returned.
		ft.finishLocked(ErrAborted)
		return
	}
	ft.state = stateFinished
	ft.finishLocked(err)
}

// finishLocked must be called with mu held; it unlocks before returning.
// It is the single place that fires listeners and releases the latch, so
// both the "ran and finished" and "aborted before/while running" paths
// converge on exactly-once delivery. It also detaches this FutureTask's
// own trace handle (if any) with the real outcome, ahead of the Pool's
// generic post-Run Detach(nil): Handle.Detach's sync.Once guard means
// whichever of the two runs first wins, so the accurate status always
// reaches the span.
func (ft *FutureTask) finishLocked(status error) {
	ft.status = status
	ft.done = true
	listeners := ft.listeners
	ft.listeners = nil
	ft.mu.Unlock()

	if ft.trace != nil {
		ft.trace.Detach(status)
	}
	fireListeners(listeners, status)
	close(ft.latch)
}

// Abort requests cooperative cancellation. It succeeds only if the
// FutureTask isn't already Finished or Aborted and the underlying Task's
// own Abort hook agrees. On success it merely flips the state to Aborted;
// Run (whenever it executes, including concurrently on another goroutine)
// is solely responsible for firing listeners and releasing the latch, so
// there is exactly one completion path no matter when Abort is called
// relative to Run.
func (ft *FutureTask) Abort() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.state == stateFinished || ft.state == stateAborted {
		return false
	}
	if !ft.task.Abort() {
		return false
	}
	ft.state = stateAborted
	return true
}

// AddListener registers l. If this FutureTask has already reached a
// terminal state, l fires synchronously on the calling goroutine with the
// cached outcome; otherwise it is appended and fires later, in
// registration order, exactly once.
func (ft *FutureTask) AddListener(l Listener) {
	ft.mu.Lock()
	if ft.done {
		status := ft.status
		ft.mu.Unlock()
		if status == nil {
			l.OnSuccess()
		} else {
			l.OnFailure(status)
		}
		return
	}
	ft.listeners = append(ft.listeners, l)
	ft.mu.Unlock()
}

// Status is defined only after Wait/TimedWait has observed completion.
func (ft *FutureTask) Status() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.status
}

func (ft *FutureTask) IsPending() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.state == statePending
}

func (ft *FutureTask) IsRunning() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.state == stateRunning
}

func (ft *FutureTask) IsAborted() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.state == stateAborted
}

// IsDone reports whether the completion latch has fired. Note this can
// briefly lag IsAborted: a FutureTask aborted while still queued reports
// IsAborted() == true immediately, but IsDone() only flips once Run has
// actually processed the abort and released the latch.
func (ft *FutureTask) IsDone() bool {
	select {
	case <-ft.latch:
		return true
	default:
		return false
	}
}

// Wait blocks until this FutureTask reaches a terminal state. It must not
// be called while holding ft.mu — it doesn't need to, since the latch is
// an independent channel.
func (ft *FutureTask) Wait() {
	<-ft.latch
}

// TimedWait blocks until completion or deadline, reporting which.
func (ft *FutureTask) TimedWait(deadline time.Time) bool {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ft.latch:
		return true
	case <-timer.C:
		return false
	}
}
