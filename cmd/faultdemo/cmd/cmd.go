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

// Package cmd holds implementations of the faultdemo commands.
package cmd

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"memguard.dev/memguard/pkg/log"
)

var (
	intSink  int
	byteSink byte
)

// Fatalf logs a message and exits with an error status.
func Fatalf(format string, args ...any) {
	log.Warningf(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(128)
}

// derefNil reads through a nil pointer. Kept out of line so the faulting
// frame is a real call.
//
//go:noinline
func derefNil() {
	var p *int
	intSink = *p
}

// readByte reads one byte from an arbitrary address.
//
//go:noinline
//go:nocheckptr
func readByte(addr uintptr) byte {
	return *(*byte)(unsafe.Pointer(addr))
}

// mapInaccessible maps one page with no access permissions and returns its
// address. Reading it faults deterministically; the mapping is intentionally
// never released, so the address cannot be recycled.
func mapInaccessible() (uintptr, error) {
	b, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("mapping an inaccessible page: %w", err)
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}
