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

import "github.com/googlecloudplatform/tserver-taskpool/internal/tracecontext"

// WorkItem is a unit of work a Pool can run. It has no return value and no
// error: anything a caller needs to observe about the outcome belongs in
// the item itself (see taskexecutor.FutureTask for the layer that adds
// that).
type WorkItem interface {
	Run()
}

// Traceable is implemented by WorkItems that carry a contextual trace
// handle. The handle is retained for as long as the item sits in the
// queue; whichever of "a worker adopted it" or "shutdown drained it"
// happens first releases it, via Handle.Detach.
type Traceable interface {
	WorkItem
	Trace() *tracecontext.Handle
}

// funcWorkItem adapts a bare closure into a WorkItem, for Pool.SubmitFunc.
type funcWorkItem struct {
	fn func()
}

func (f *funcWorkItem) Run() { f.fn() }

// FromFunc wraps fn as an anonymous WorkItem.
func FromFunc(fn func()) WorkItem {
	return &funcWorkItem{fn: fn}
}
