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

// Package memguard converts hardware memory-protection faults (SIGSEGV and
// SIGBUS) that occur inside a guarded region into an ordinary error returned
// to the caller, instead of letting them terminate the process.
//
// A guarded region is entered per thread and may nest up to MaxNesting levels
// deep. A fault inside an inner region is observed only by that region; the
// enclosing regions remain armed and continue normally afterward. A fault on a
// thread with no active region keeps the default fatal behavior: memguard
// never masks faults outside its explicit protection.
//
// The simplest use is the block form:
//
//	if err := memguard.Protect(func() {
//		dangerousMemoryOp()
//	}); err != nil {
//		// err is a *FaultError describing the faulting address.
//	}
//
// Threads that ever entered a guarded region must call Unregister before
// exiting. The registering goroutine is pinned to its OS thread from the first
// Protect (or Current) call until Unregister.
//
// Faults are delivered through the runtime's panic machinery, so deferred
// functions between the fault point and the region boundary do run, but
// nothing else does: code between those points is abandoned. Keep resources
// that need guaranteed release out of guarded bodies, or release them with
// defers.
package memguard

import (
	"runtime"
	"strings"
)

// plainFaultMessage is the runtime's error text for a dereference in the
// first page of the address space, for which no fault address is captured.
const plainFaultMessage = "runtime error: invalid memory address or nil pointer dereference"

// faultFrom reports whether a recovered panic value represents a hardware
// memory fault, and the faulting address if the runtime captured one. Panic
// values raised by anything other than a fault, including other runtime
// errors, are not memguard's to interpret.
func faultFrom(r any) (uintptr, bool) {
	re, ok := r.(runtime.Error)
	if !ok {
		return 0, false
	}
	if a, ok := re.(interface{ Addr() uintptr }); ok {
		return a.Addr(), true
	}
	if strings.HasPrefix(re.Error(), plainFaultMessage) {
		return 0, true
	}
	return 0, false
}

// Protect runs fn inside a guarded region on the calling thread, registering
// the thread first if this is its first region. It returns nil if fn
// completed, or a *FaultError if fn was abandoned by a memory fault.
//
// Panics unrelated to memory faults propagate to the caller unchanged.
func Protect(fn func()) error {
	return Current().Protect(fn)
}
