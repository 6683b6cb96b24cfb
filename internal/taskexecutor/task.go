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

// Task is the user-supplied payload behind a Future. Run does the actual
// work and reports its outcome as an error (nil means ok). Abort is the
// cooperative cancellation hook: the default is non-abortable.
type Task interface {
	Run() error
	Abort() bool
}

// funcTask adapts bare closures into a Task.
type funcTask struct {
	run   func() error
	abort func() bool
}

func (t *funcTask) Run() error { return t.run() }

func (t *funcTask) Abort() bool {
	if t.abort == nil {
		return false
	}
	return t.abort()
}

// NewTask wraps run as a non-abortable Task.
func NewTask(run func() error) Task {
	return &funcTask{run: run}
}

// NewAbortableTask wraps run and abort as a Task whose Abort hook is abort.
func NewAbortableTask(run func() error, abort func() bool) Task {
	return &funcTask{run: run, abort: abort}
}
