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

//go:build linux

package sigbind

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sigAction mirrors the kernel's struct sigaction as consumed by
// rt_sigaction.
type sigAction struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

const (
	sigDfl = 0
	sigIgn = 1

	saOnStack = 0x08000000

	// maskLen is the kernel sigset size passed to rt_sigaction.
	maskLen = 8
)

// readDisposition returns the current disposition of sig, bypassing the Go
// runtime signal machinery. This is a read-only rt_sigaction, which is safe
// at any time.
func readDisposition(sig unix.Signal) (sigAction, error) {
	var sa sigAction
	if _, _, e := unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(sig), 0, uintptr(unsafe.Pointer(&sa)), maskLen, 0, 0); e != 0 {
		return sigAction{}, fmt.Errorf("reading disposition of signal %d: %w", sig, e)
	}
	return sa, nil
}

// checkFaultDelivery confirms that both fault signals have a live handler
// that runs on the alternate signal stack. The runtime installs such a
// handler before any user code runs, so a failure here means foreign code
// has since replaced it.
func checkFaultDelivery() error {
	for _, sig := range []unix.Signal{unix.SIGSEGV, unix.SIGBUS} {
		sa, err := readDisposition(sig)
		if err != nil {
			return err
		}
		if sa.handler == sigDfl || sa.handler == sigIgn {
			return fmt.Errorf("no handler installed for signal %d; a fault would take the default action", sig)
		}
		if sa.flags&saOnStack == 0 {
			return fmt.Errorf("handler for signal %d lacks SA_ONSTACK; a fault would abort the process", sig)
		}
	}
	return nil
}
