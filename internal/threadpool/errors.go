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

import "errors"

// Sentinel errors returned synchronously by Submit. Callers compare with
// errors.Is; none of these propagate out of a worker's execution of a
// WorkItem, only out of a rejected Submit call.
var (
	// ErrUninitialized is returned by Submit before Init has run.
	ErrUninitialized = errors.New("threadpool: not yet initialized")

	// ErrUnavailable is returned by Submit after Shutdown.
	ErrUnavailable = errors.New("threadpool: pool has been shut down")

	// ErrQueueFull is returned by Submit when the queue is at capacity.
	ErrQueueFull = errors.New("threadpool: queue is full")

	// ErrSpawnFailed is returned by Init or Submit when OS thread creation
	// (here: goroutine bookkeeping setup) fails and leaves the pool with
	// zero live workers.
	ErrSpawnFailed = errors.New("threadpool: failed to spawn worker")
)

// errShutdownDrained is the detach reason reported against the trace
// handle of any WorkItem still queued when Shutdown drains the queue.
var errShutdownDrained = errors.New("threadpool: work item dropped at shutdown")
