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

// taskpoolctl is the external collaborator that, in production, is the
// tablet manager's bootstrap path or the column-file dump utility: a
// caller that submits work to the task pool and waits for it to drain.
// Its own internals are intentionally thin; the pool and executor below
// it are the part of this module under test.
package main

func main() {
	Execute()
}
