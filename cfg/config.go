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

// Package cfg binds the taskpoolctl CLI's flags and config file to a
// Config struct, with BindFlags returning a Viper bound to pflag-registered
// flags.
package cfg

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration record for taskpoolctl.
type Config struct {
	ThreadPool ThreadPoolConfig `yaml:"thread-pool" mapstructure:"thread-pool"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ThreadPoolConfig carries the threadpool.Builder knobs.
type ThreadPoolConfig struct {
	Name         string        `yaml:"name" mapstructure:"name"`
	MinThreads   int           `yaml:"min-threads" mapstructure:"min-threads"`
	MaxThreads   int           `yaml:"max-threads" mapstructure:"max-threads"`
	MaxQueueSize int           `yaml:"max-queue-size" mapstructure:"max-queue-size"`
	IdleTimeout  time.Duration `yaml:"idle-timeout" mapstructure:"idle-timeout"`
}

// LoggingConfig selects the logger package's minimum severity.
type LoggingConfig struct {
	Severity string `yaml:"severity" mapstructure:"severity"`
}

// BindFlags registers taskpoolctl's flags on flagSet and returns a Viper
// instance bound to them, for cmd/taskpoolctl's root command to merge with
// a config file and the environment.
func BindFlags(flagSet *pflag.FlagSet) (*viper.Viper, error) {
	flagSet.String("thread-pool.name", "taskpool", "worker pool name, used for worker and metric labels")
	flagSet.Int("thread-pool.min-threads", 0, "permanent worker count")
	flagSet.Int("thread-pool.max-threads", runtime.NumCPU(), "maximum live worker count")
	flagSet.Int("thread-pool.max-queue-size", 1000, "maximum queued work items")
	flagSet.Duration("thread-pool.idle-timeout", 500*time.Millisecond, "idle timeout before a non-permanent worker self-reaps")
	flagSet.String("logging.severity", "INFO", "minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF")

	v := viper.New()
	if err := v.BindPFlags(flagSet); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("TASKPOOLCTL")
	v.AutomaticEnv()
	return v, nil
}

// Load reads and parses a standalone YAML config file directly, for
// callers that want a Config without going through Viper's flag/env/file
// precedence chain (e.g. validating a config file on disk): read the whole
// file, then yaml.Unmarshal it into the target struct.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfg: reading config file: %w", err)
	}

	c := &Config{}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("cfg: parsing config file: %w", err)
	}
	return c, nil
}

// Dump renders c back to YAML, for the taskpoolctl --dump-config flag to
// print the effective configuration: marshal with yaml.Marshal and let the
// caller decide where the bytes go.
func Dump(c *Config) ([]byte, error) {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cfg: marshalling config: %w", err)
	}
	return buf, nil
}
