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
	"testing"
)

func TestGuardStackOrder(t *testing.T) {
	var s guardStack
	outer, inner := &Region{}, &Region{}

	if err := s.push(outer); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if err := s.push(inner); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if s.top() != inner {
		t.Errorf("top is not the innermost region")
	}
	if d := s.depth(); d != 2 {
		t.Errorf("depth is %d, want 2", d)
	}
	if got := s.pop(); got != inner {
		t.Errorf("pop returned the wrong region")
	}
	if s.top() != outer {
		t.Errorf("outer region should be back on top")
	}
	if got := s.pop(); got != outer {
		t.Errorf("pop returned the wrong region")
	}
	if s.top() != nil || s.depth() != 0 {
		t.Errorf("stack not empty after popping everything")
	}
}

func TestGuardStackLimit(t *testing.T) {
	var s guardStack
	for i := 0; i < MaxNesting; i++ {
		if err := s.push(&Region{}); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	err := s.push(&Region{})
	var de *DepthExceededError
	if !errors.As(err, &de) {
		t.Fatalf("push beyond the limit returned %v, want *DepthExceededError", err)
	}
	if d := s.depth(); d != MaxNesting {
		t.Errorf("failed push changed depth to %d, want %d", d, MaxNesting)
	}
}

func TestGuardStackPopEmpty(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatalf("pop of an empty stack should panic")
		}
		if _, ok := rec.(MisuseError); !ok {
			t.Fatalf("pop panicked with %v, want MisuseError", rec)
		}
	}()
	var s guardStack
	s.pop()
}
