// Copyright 2025 The MemGuard Authors.
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

// Package sigbind verifies that the process's fault-signal dispositions can
// deliver recoverable faults.
//
// The Go runtime owns SIGSEGV and SIGBUS: it installs its own handlers at
// startup and redelivers faults on the faulting thread as runtime panics.
// That handler runs on the alternate signal stack, touches no locks and
// allocates nothing, and faults on threads with no armed region fall through
// to the default fatal action. What can break the arrangement is foreign code
// (typically a C library) resetting the disposition or reinstalling a handler
// without SA_ONSTACK, after which the first fault aborts the process no
// matter what. Ensure checks for exactly that, once.
package sigbind

import "sync"

var (
	once    sync.Once
	onceErr error
)

// Ensure verifies, once per process, that SIGSEGV and SIGBUS are deliverable
// as recoverable faults. It is idempotent and safe to call from any number of
// threads; every call after the first returns the first call's verdict.
func Ensure() error {
	once.Do(func() {
		onceErr = checkFaultDelivery()
	})
	return onceErr
}
