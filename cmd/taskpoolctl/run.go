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

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/googlecloudplatform/tserver-taskpool/internal/logger"
	"github.com/googlecloudplatform/tserver-taskpool/internal/poolmetrics"
	"github.com/googlecloudplatform/tserver-taskpool/internal/taskexecutor"
	"github.com/googlecloudplatform/tserver-taskpool/internal/tracecontext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	bootstrapCount int
	dumpCount      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a batch of synthetic bootstrap and dump tasks and wait for drain",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&bootstrapCount, "bootstrap-tasks", 10, "synthetic tablet-bootstrap tasks to submit")
	runCmd.Flags().IntVar(&dumpCount, "dump-tasks", 10, "synthetic column-file-dump tasks to submit")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger.SetSeverity(cfgObj.Logging.Severity)

	recorder := poolmetrics.NewRecorder(prometheus.DefaultRegisterer, cfgObj.ThreadPool.Name)

	exec, err := taskexecutor.NewFromConfig(cfgObj.ThreadPool, recorder)
	if err != nil {
		return fmt.Errorf("building thread pool: %w", err)
	}
	defer exec.Shutdown()

	var futures []taskexecutor.Future
	submit := func(name string, i int, run func() error) {
		_, span := tracecontext.Start(context.Background(), name)
		ft := taskexecutor.NewFutureTask(taskexecutor.NewTask(run)).WithTrace(span)

		if _, err := exec.SubmitFutureTask(ft); err != nil {
			logger.Warnf("taskpoolctl: submitting %s task %d: %v", name, i, err)
			span.Detach(err)
			return
		}
		futures = append(futures, ft)
	}

	for i := 0; i < bootstrapCount; i++ {
		i := i
		submit("tablet-bootstrap", i, func() error { return simulateBootstrap(i) })
	}
	for i := 0; i < dumpCount; i++ {
		i := i
		submit("column-file-dump", i, func() error { return simulateDump(i) })
	}

	exec.Wait()

	var failed int
	for _, f := range futures {
		if f.Status() != nil {
			failed++
		}
	}
	logger.Infof("taskpoolctl: %d tasks submitted, %d failed", len(futures), failed)
	return nil
}

// simulateBootstrap stands in for tablet-bootstrap work: out of scope
// here, so it's a bare sleep with a small injected failure rate.
func simulateBootstrap(i int) error {
	time.Sleep(time.Duration(5+rand.Intn(10)) * time.Millisecond)
	if i%37 == 0 {
		return fmt.Errorf("tablet %d: simulated bootstrap failure", i)
	}
	return nil
}

// simulateDump stands in for column-file dump work: also out of scope,
// also a bare sleep.
func simulateDump(i int) error {
	time.Sleep(time.Duration(2+rand.Intn(5)) * time.Millisecond)
	return nil
}
