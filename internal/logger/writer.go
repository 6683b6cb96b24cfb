// Copyright 2021 Google Inc. All Rights Reserved.
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

package logger

import (
	"io"
	"time"
)

// leveledWriter prefixes every line with a single severity letter and a
// microsecond timestamp. Not safe for concurrent use by itself; callers serialize
// through the standard log.Logger that wraps it.
type leveledWriter struct {
	w       io.Writer
	level   string
	factory *loggerFactory
}

func (f *leveledWriter) Write(p []byte) (int, error) {
	now := time.Now()
	if _, err := f.w.Write([]byte{f.level[0]}); err != nil {
		return 0, err
	}
	if _, err := f.w.Write([]byte(now.Format("0102 15:04:05.000000"))); err != nil {
		return 0, err
	}
	if _, err := f.w.Write([]byte{' '}); err != nil {
		return 0, err
	}
	return f.w.Write(p)
}
