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
	"context"
	"testing"
	"time"

	"github.com/googlecloudplatform/tserver-taskpool/internal/tracecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceableFunc is a WorkItem that carries a trace handle but, unlike
// FutureTask, never detaches it itself — the only release it gets must
// come from the Pool adopting it.
type traceableFunc struct {
	fn    func()
	trace *tracecontext.Handle
}

func (t *traceableFunc) Run()                        { t.fn() }
func (t *traceableFunc) Trace() *tracecontext.Handle { return t.trace }

var _ Traceable = (*traceableFunc)(nil)

// A Traceable item's handle is released automatically once a worker
// adopts and runs it, with no cooperation required from the item itself.
func TestPool_RunItemDetachesTraceOnAdopt(t *testing.T) {
	p, err := NewBuilder("trace-adopt").MinThreads(1).MaxThreads(1).Build()
	require.NoError(t, err)
	defer p.Shutdown()

	_, handle := tracecontext.Start(context.Background(), "adopted-span")
	ran := make(chan struct{})

	item := &traceableFunc{
		fn:    func() { close(ran) },
		trace: handle,
	}

	require.NoError(t, p.Submit(item))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("traceable work item never ran")
	}

	assert.Eventually(t, handle.Detached, time.Second, 5*time.Millisecond)
}
