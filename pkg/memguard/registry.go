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
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"memguard.dev/memguard/pkg/log"
)

// registry maps thread IDs to their guard contexts. The mutex serializes
// creation and removal; it exists so that contexts can be enumerated
// administratively. No hot-path operation (Enter, Exit, Protect, fault
// handling) takes it.
type registry struct {
	mu       sync.Mutex
	contexts map[int]*Context
}

var procRegistry = registry{contexts: make(map[int]*Context)}

func (r *registry) current() *Context {
	// Pin before reading the tid, so it cannot change under us. LockOSThread
	// nests; the balancing unlock below keeps the count at one per
	// registered thread.
	runtime.LockOSThread()
	tid := unix.Gettid()
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contexts[tid]; ok {
		runtime.UnlockOSThread()
		return c
	}
	c := &Context{tid: tid}
	r.contexts[tid] = c
	return c
}

func (r *registry) unregister() error {
	tid := unix.Gettid()
	r.mu.Lock()
	c, ok := r.contexts[tid]
	if !ok {
		r.mu.Unlock()
		return MisuseError("unregister of a thread with no guard context")
	}
	if c.Active() {
		// Usage error: the caller is tearing down a thread that may still
		// fault. Keep the context so the active regions stay coherent.
		r.mu.Unlock()
		log.Warningf("unregister of thread %d with %d guarded regions still active", tid, c.stack.depth())
		return MisuseError("unregister while guarded regions are active")
	}
	delete(r.contexts, tid)
	r.mu.Unlock()
	runtime.UnlockOSThread()
	return nil
}

func (r *registry) snapshot() []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		cs = append(cs, c)
	}
	return cs
}

// Current returns the calling thread's guard context, creating and
// registering it on first use. The calling goroutine is pinned to its OS
// thread from the first call until Unregister, so the context it gets back
// stays its own.
func Current() *Context {
	return procRegistry.current()
}

// Unregister releases the calling thread's guard context and unpins the
// goroutine from its thread. It is required exactly once before thread exit
// for any thread that entered a guarded region, and must not be called while
// a region is still active.
func Unregister() error {
	return procRegistry.unregister()
}

// Registered returns a snapshot of all currently registered contexts, in no
// particular order. Only the fields documented as cross-thread readable are
// meaningful for contexts owned by other threads.
func Registered() []*Context {
	return procRegistry.snapshot()
}
