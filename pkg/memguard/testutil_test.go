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
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	sink     int
	byteSink byte
)

// derefNil reads through a nil pointer. Kept out of line so the faulting
// frame is a real call.
//
//go:noinline
func derefNil() {
	var p *int
	sink = *p
}

// readByte reads one byte from an arbitrary address.
//
//go:noinline
//go:nocheckptr
func readByte(addr uintptr) byte {
	return *(*byte)(unsafe.Pointer(addr))
}

// protNonePage maps one inaccessible page and returns its address. Reading it
// faults deterministically, and since the page stays mapped the address
// cannot be recycled by a concurrent allocation.
func protNonePage(t testing.TB) uintptr {
	t.Helper()
	b, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("mmap failed: %v", err)
	}
	t.Cleanup(func() {
		if err := unix.Munmap(b); err != nil {
			t.Errorf("munmap failed: %v", err)
		}
	})
	return uintptr(unsafe.Pointer(&b[0]))
}
