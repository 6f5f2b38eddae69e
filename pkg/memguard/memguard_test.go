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
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func TestNullFault(t *testing.T) {
	err := Protect(func() {
		derefNil()
	})
	var fe *FaultError
	if !errors.As(err, &fe) {
		t.Fatalf("Protect returned %v, want *FaultError", err)
	}
	if fe.Addr != 0 {
		t.Errorf("null dereference recorded address %#x, want 0", fe.Addr)
	}
	if !strings.Contains(err.Error(), "null pointer") {
		t.Errorf("error %q should identify a null pointer", err)
	}
	if d := Current().Depth(); d != 0 {
		t.Errorf("depth after fault is %d, want 0", d)
	}
}

func TestWildFault(t *testing.T) {
	addr := protNonePage(t)
	err := Protect(func() {
		byteSink = readByte(addr)
	})
	var fe *FaultError
	if !errors.As(err, &fe) {
		t.Fatalf("Protect returned %v, want *FaultError", err)
	}
	if fe.Addr != addr {
		t.Errorf("fault recorded address %#x, want %#x", fe.Addr, addr)
	}
	if want := fmt.Sprintf("%#x", addr); !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should carry address %s", err, want)
	}
	if got, ok := Current().LastFault(); !ok || got != addr {
		t.Errorf("LastFault = (%#x, %t), want (%#x, true)", got, ok, addr)
	}
}

func TestFaultErrorMessages(t *testing.T) {
	if msg := (&FaultError{}).Error(); !strings.Contains(msg, "null pointer") {
		t.Errorf("null fault message %q should mention the null pointer", msg)
	}
	msg := (&FaultError{Addr: 0xdead0000}).Error()
	if strings.Contains(msg, "null pointer") || !strings.Contains(msg, "0xdead0000") {
		t.Errorf("wild fault message %q should carry the address, not the null form", msg)
	}
}

func TestCleanCompletion(t *testing.T) {
	ran := false
	if err := Protect(func() { ran = true }); err != nil {
		t.Fatalf("Protect returned %v, want nil", err)
	}
	if !ran {
		t.Errorf("guarded body did not run")
	}
	if Current().Active() {
		t.Errorf("context still active after clean completion")
	}
}

func TestSequentialFaults(t *testing.T) {
	c := Current()
	for i := 0; i < 2; i++ {
		err := c.Protect(func() {
			derefNil()
		})
		var fe *FaultError
		if !errors.As(err, &fe) {
			t.Fatalf("region %d returned %v, want *FaultError", i, err)
		}
		if d := c.Depth(); d != 0 {
			t.Fatalf("depth after region %d is %d, want 0", i, d)
		}
	}
}

func TestOrdinaryPanicPassesThrough(t *testing.T) {
	c := Current()
	rec := func() (r any) {
		defer func() { r = recover() }()
		_ = c.Protect(func() { panic("boom") })
		return nil
	}()
	if rec != "boom" {
		t.Errorf("recovered %v, want the original panic value", rec)
	}
	if d := c.Depth(); d != 0 {
		t.Errorf("depth after passthrough is %d, want 0", d)
	}
}

func TestRuntimeErrorPassesThrough(t *testing.T) {
	// Runtime errors other than faults must not be reinterpreted.
	c := Current()
	rec := func() (r any) {
		defer func() { r = recover() }()
		_ = c.Protect(func() {
			var s []int
			i := 1
			sink = s[i]
		})
		return nil
	}()
	re, ok := rec.(runtime.Error)
	if !ok {
		t.Fatalf("recovered %v, want a runtime.Error", rec)
	}
	if !strings.Contains(re.Error(), "index out of range") {
		t.Errorf("recovered %q, want the original bounds error", re)
	}
}

func TestDepthExceeded(t *testing.T) {
	c := Current()
	var deepErr error
	var recurse func(remaining int)
	recurse = func(remaining int) {
		err := c.Protect(func() {
			if remaining > 1 {
				recurse(remaining - 1)
			}
		})
		if err != nil {
			deepErr = err
		}
	}
	recurse(MaxNesting + 1)

	var de *DepthExceededError
	if !errors.As(deepErr, &de) {
		t.Fatalf("deepest region returned %v, want *DepthExceededError", deepErr)
	}
	if de.Depth != MaxNesting {
		t.Errorf("limit reported as %d, want %d", de.Depth, MaxNesting)
	}
	if d := c.Depth(); d != 0 {
		t.Errorf("depth after unwinding is %d, want 0", d)
	}
}

func TestManualEnterExit(t *testing.T) {
	c := Current()
	r, err := c.Enter()
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	var ferr error
	func() {
		defer r.Exit(&ferr)
		derefNil()
	}()
	var fe *FaultError
	if !errors.As(ferr, &fe) {
		t.Fatalf("Exit stored %v, want *FaultError", ferr)
	}
	if !r.Faulted() {
		t.Errorf("region should be marked faulted")
	}
}

func TestExitConsumedRegionPanics(t *testing.T) {
	c := Current()
	r, err := c.Enter()
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	var serr error
	r.Exit(&serr)
	if serr != nil {
		t.Fatalf("clean exit stored %v", serr)
	}

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatalf("second Exit should panic")
		}
		if _, ok := rec.(MisuseError); !ok {
			t.Fatalf("second Exit panicked with %v, want MisuseError", rec)
		}
	}()
	r.Exit(&serr)
}
