// Copyright 2020 Google Inc. All Rights Reserved.
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

// Package logger provides the leveled, prefix-aware logging used by the
// threadpool package for diagnostics (spawn failures, idle-timeout
// reaping, and loop-exit tracing) and by cmd/taskpoolctl.
package logger

import (
	"log"
	"os"
)

// Severity controls which levels are emitted. Levels below the configured
// severity are discarded before formatting.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityOff
)

var severityNames = map[string]Severity{
	"TRACE":   SeverityTrace,
	"DEBUG":   SeverityDebug,
	"INFO":    SeverityInfo,
	"WARNING": SeverityWarning,
	"ERROR":   SeverityError,
	"OFF":     SeverityOff,
}

var (
	defaultFactory = &loggerFactory{level: SeverityInfo}

	traceLogger = defaultFactory.newLogger("TRACE")
	debugLogger = defaultFactory.newLogger("DEBUG")
	infoLogger  = defaultFactory.newLogger("INFO")
	warnLogger  = defaultFactory.newLogger("WARNING")
	errorLogger = defaultFactory.newLogger("ERROR")
)

// SetSeverity sets the package-wide minimum severity. Unknown names are
// ignored rather than rejected.
func SetSeverity(name string) {
	if s, ok := severityNames[name]; ok {
		defaultFactory.level = s
	}
}

type loggerFactory struct {
	level Severity
}

func (f *loggerFactory) newLogger(level string) *log.Logger {
	w := f.writer(level)
	return log.New(w, "", 0)
}

func (f *loggerFactory) writer(level string) *leveledWriter {
	dest := os.Stdout
	if level == "ERROR" || level == "WARNING" {
		dest = os.Stderr
	}
	return &leveledWriter{w: dest, level: level, factory: f}
}

// enabled reports whether level should currently be emitted.
func (f *loggerFactory) enabled(level string) bool {
	s, ok := severityNames[level]
	if !ok {
		return true
	}
	return s >= f.level
}

// Tracef logs at TRACE severity, the level used for worker-loop exit
// diagnostics (see threadpool's dispatch loop).
func Tracef(format string, v ...interface{}) {
	if defaultFactory.enabled("TRACE") {
		traceLogger.Printf(format, v...)
	}
}

// Debugf logs at DEBUG severity.
func Debugf(format string, v ...interface{}) {
	if defaultFactory.enabled("DEBUG") {
		debugLogger.Printf(format, v...)
	}
}

// Infof logs at INFO severity.
func Infof(format string, v ...interface{}) {
	if defaultFactory.enabled("INFO") {
		infoLogger.Printf(format, v...)
	}
}

// Info logs a single message at INFO severity.
func Info(v ...interface{}) {
	if defaultFactory.enabled("INFO") {
		infoLogger.Println(v...)
	}
}

// Warnf logs at WARNING severity, used for demoted spawn failures.
func Warnf(format string, v ...interface{}) {
	if defaultFactory.enabled("WARNING") {
		warnLogger.Printf(format, v...)
	}
}

// Errorf logs at ERROR severity.
func Errorf(format string, v ...interface{}) {
	if defaultFactory.enabled("ERROR") {
		errorLogger.Printf(format, v...)
	}
}
