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

// Package tracecontext wraps reqtrace's span attach/detach contract into
// the "contextual trace handle" referenced by threadpool's WorkItem: a
// handle that a submitter attaches to a queued item, and which the worker
// that eventually runs the item adopts and then detaches exactly once.
//
// Only the attach/detach contract is used here; reqtrace's own mechanics
// (how spans are collected and reported) are out of scope for this module.
package tracecontext

import (
	"context"
	"sync"

	"github.com/jacobsa/reqtrace"
)

// Handle is a reference to a single in-flight trace span. The zero value is
// not usable; create one with Start.
type Handle struct {
	ctx    context.Context
	report reqtrace.ReportFunc
	once   sync.Once
	done   chan struct{}
}

// Start begins a span named name, returning a context carrying it and a
// Handle used to end it. Mirrors the attach half of fuseops.commonOp.init's
// use of reqtrace.StartSpan.
func Start(ctx context.Context, name string) (context.Context, *Handle) {
	spanCtx, report := reqtrace.StartSpan(ctx, name)
	return spanCtx, &Handle{ctx: spanCtx, report: report, done: make(chan struct{})}
}

// Context returns the context carrying this handle's span.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Detach ends the span, reporting err as its outcome. Safe to call more
// than once or concurrently; only the first call has any effect, which is
// what lets threadpool release a queued item's trace reference exactly
// once regardless of whether the release happens on the worker-adopts path
// or the shutdown-drains path.
func (h *Handle) Detach(err error) {
	h.once.Do(func() {
		h.report(err)
		close(h.done)
	})
}

// Detached reports whether Detach has already fired. Exists for tests that
// need to observe release of a handle they don't otherwise hold a
// reference into (e.g. one carried inside a queued WorkItem).
func (h *Handle) Detached() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
