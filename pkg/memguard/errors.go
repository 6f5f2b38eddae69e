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

import "fmt"

// FaultError is returned when a guarded region is abandoned by a memory
// fault. It is constructed after control has returned to normal execution,
// never in signal context.
type FaultError struct {
	// Addr is the address at which the fault occurred. Zero means a classic
	// null pointer dereference, for which the runtime captures no address.
	Addr uintptr
}

// Error implements error.Error.
func (e *FaultError) Error() string {
	if e.Addr == 0 {
		return "invalid null pointer dereference"
	}
	return fmt.Sprintf("invalid memory access at address %#x", e.Addr)
}

// DepthExceededError is returned by Enter when the calling thread already has
// MaxNesting active guarded regions. It is reported before any state changes,
// so the existing regions remain intact.
type DepthExceededError struct {
	// Depth is the nesting limit that would have been exceeded.
	Depth int
}

// Error implements error.Error.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("guarded regions nested beyond the limit of %d", e.Depth)
}

// MisuseError indicates the registry or a region was driven outside its
// contract, for example unregistering a thread that still has active regions.
// Misuse is a programming error; depending on severity it is returned or
// panicked, never silently tolerated.
type MisuseError string

// Error implements error.Error.
func (e MisuseError) Error() string {
	return "memguard misuse: " + string(e)
}
