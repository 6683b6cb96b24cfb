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

package cfg

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// S8 — cfg: BindFlags produces a ThreadPoolConfig whose defaults match
// the pool builder's own option defaults, except max-queue-size, which the
// CLI caps at 1000 where the builder defaults to math.MaxInt.
func TestBindFlags_Defaults(t *testing.T) {
	fs := pflag.NewFlagSet("taskpoolctl", pflag.ContinueOnError)
	v, err := BindFlags(fs)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, "taskpool", cfg.ThreadPool.Name)
	require.Equal(t, 0, cfg.ThreadPool.MinThreads)
	require.Equal(t, runtime.NumCPU(), cfg.ThreadPool.MaxThreads)
	require.Equal(t, 1000, cfg.ThreadPool.MaxQueueSize)
	require.Equal(t, 500*time.Millisecond, cfg.ThreadPool.IdleTimeout)
	require.Equal(t, "INFO", cfg.Logging.Severity)
}

func TestBindFlags_OverridesApply(t *testing.T) {
	fs := pflag.NewFlagSet("taskpoolctl", pflag.ContinueOnError)
	v, err := BindFlags(fs)
	require.NoError(t, err)

	require.NoError(t, fs.Parse([]string{
		"--thread-pool.name=custom",
		"--thread-pool.min-threads=2",
		"--thread-pool.max-threads=16",
	}))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, "custom", cfg.ThreadPool.Name)
	require.Equal(t, 2, cfg.ThreadPool.MinThreads)
	require.Equal(t, 16, cfg.ThreadPool.MaxThreads)
}

// Dump round-trips through Load: a config marshalled to YAML and read
// back parses to an equal struct.
func TestDumpAndLoadRoundTrip(t *testing.T) {
	want := &Config{
		ThreadPool: ThreadPoolConfig{
			Name:         "roundtrip",
			MinThreads:   1,
			MaxThreads:   4,
			MaxQueueSize: 50,
			IdleTimeout:  250 * time.Millisecond,
		},
		Logging: LoggingConfig{Severity: "DEBUG"},
	}

	buf, err := Dump(want)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "taskpoolctl.yaml")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
