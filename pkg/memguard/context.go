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

package memguard

import (
	"runtime/debug"
	"sync/atomic"

	"memguard.dev/memguard/pkg/sigbind"
)

// regionState tracks a Region through its lifecycle. A Region is consumed
// exactly once; Completed and Faulted are terminal.
type regionState int32

const (
	stateEntering regionState = iota
	stateRunning
	stateCompleted
	stateFaulted
)

// Context is the guard state of one thread: its stack of active regions and
// the scratch slot holding the most recent fault address. A Context is
// created by Current and mutated only by its owning thread; the sole
// exception is the registry's removal of the entry, which the caller must
// serialize with the thread's own use (never unregister a thread that may
// still be running guarded code).
type Context struct {
	tid int

	// stack holds the active regions, innermost on top.
	stack guardStack

	// active is true exactly while at least one guarded region is executing
	// on this thread. It is atomic only so that Registered snapshots can read
	// it from other threads.
	active atomic.Bool

	// faultAddr and faulted form the fault-address scratch slot, written when
	// control returns from an abandoned region and before the FaultError is
	// constructed. Owner thread only.
	faultAddr uintptr
	faulted   bool
}

// TID returns the ID of the thread owning this context.
func (c *Context) TID() int {
	return c.tid
}

// Active reports whether at least one guarded region is currently executing
// on the owning thread.
func (c *Context) Active() bool {
	return c.active.Load()
}

// Depth returns the number of active guarded regions on the owning thread.
// Owner thread only.
func (c *Context) Depth() int {
	return c.stack.depth()
}

// LastFault returns the address recorded by the most recent fault on this
// thread, if any fault has occurred. Owner thread only.
func (c *Context) LastFault() (uintptr, bool) {
	return c.faultAddr, c.faulted
}

// Region is the resumption token for one nesting level of fault protection.
// It is armed by Enter and consumed exactly once by Exit, whether the region
// completes or faults.
type Region struct {
	ctx   *Context
	state regionState

	// prevArmed is the fault-arming state of the enclosing level, restored on
	// exit. Across nested regions the thread stays armed throughout; only the
	// outermost exit disarms.
	prevArmed bool
}

// Faulted reports whether the region has been consumed by a memory fault.
func (r *Region) Faulted() bool {
	return r.state == stateFaulted
}

// Enter arms fault interception for a new nesting level on the owning thread
// and returns its Region. Every successful Enter must be paired with exactly
// one deferred Exit in the same frame. It fails with a DepthExceededError
// when MaxNesting regions are already active, leaving them undisturbed.
//
// Most callers want Protect instead.
func (c *Context) Enter() (*Region, error) {
	if err := sigbind.Ensure(); err != nil {
		return nil, err
	}
	r := &Region{ctx: c, state: stateEntering}
	if err := c.stack.push(r); err != nil {
		return nil, err
	}
	c.active.Store(true)
	r.prevArmed = debug.SetPanicOnFault(true)
	r.state = stateRunning
	return r, nil
}

// Exit completes the region. It is the region's resumption point and must be
// invoked directly by a deferred call in the frame that entered it:
//
//	r, err := ctx.Enter()
//	if err != nil {
//		return err
//	}
//	defer r.Exit(&err)
//
// On a clean completion Exit pops the region and returns. When the region was
// abandoned by a memory fault, control arrives here through the unwinding
// panic; Exit pops the region, records the faulting address, and stores a
// *FaultError through errp. The enclosing region, if any, remains armed.
//
// Panic values that are not memory faults are re-raised unchanged after the
// region is popped.
func (r *Region) Exit(errp *error) {
	if r.state != stateRunning {
		panic(MisuseError("exit of an already consumed guarded region"))
	}
	c := r.ctx
	if c.stack.top() != r {
		panic(MisuseError("guarded region exited out of nesting order"))
	}
	rec := recover()
	c.stack.pop()
	debug.SetPanicOnFault(r.prevArmed)
	if c.stack.depth() == 0 {
		c.active.Store(false)
	}
	if rec == nil {
		r.state = stateCompleted
		return
	}
	addr, ok := faultFrom(rec)
	if !ok {
		// Not a fault. The region is done, but the panic is the caller's.
		r.state = stateCompleted
		panic(rec)
	}
	r.state = stateFaulted
	c.faultAddr = addr
	c.faulted = true
	if errp == nil {
		panic(MisuseError("faulted region exited without an error destination"))
	}
	*errp = &FaultError{Addr: addr}
}

// Protect runs fn inside a guarded region on the owning thread. It returns
// nil if fn completed, a *FaultError if fn was abandoned by a memory fault,
// or a DepthExceededError if the nesting limit was already reached.
func (c *Context) Protect(fn func()) (err error) {
	r, enterErr := c.Enter()
	if enterErr != nil {
		return enterErr
	}
	defer r.Exit(&err)
	fn()
	return nil
}
