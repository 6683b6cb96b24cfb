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

// Listener observes a Future's terminal outcome. Implementations must be
// short and non-blocking: callbacks run inline, on whichever goroutine
// drove the FutureTask to its terminal state (the worker that ran the
// task, or whichever thread calls Run on an already-aborted FutureTask).
// A listener added after that point fires on the goroutine that adds it.
type Listener interface {
	OnSuccess()
	OnFailure(err error)
}

type funcListener struct {
	onSuccess func()
	onFailure func(error)
}

func (l *funcListener) OnSuccess() {
	if l.onSuccess != nil {
		l.onSuccess()
	}
}

func (l *funcListener) OnFailure(err error) {
	if l.onFailure != nil {
		l.onFailure(err)
	}
}

// ListenerFunc builds a Listener from a pair of closures. Either may be
// nil.
func ListenerFunc(onSuccess func(), onFailure func(error)) Listener {
	return &funcListener{onSuccess: onSuccess, onFailure: onFailure}
}

func fireListeners(listeners []Listener, status error) {
	for _, l := range listeners {
		if status == nil {
			l.OnSuccess()
		} else {
			l.OnFailure(status)
		}
	}
}
