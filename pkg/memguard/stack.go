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

// MaxNesting is the maximum number of guarded regions that may be active on
// one thread at once. The limit is fixed so that runaway nesting surfaces as
// a DepthExceededError instead of unbounded growth.
const MaxNesting = 10

// guardStack holds the active regions of one thread, outermost first. The top
// entry is always the region that the next fault on the thread belongs to.
//
// A guardStack is owned exclusively by its thread and needs no
// synchronization.
type guardStack struct {
	regions [MaxNesting]*Region
	n       int
}

func (s *guardStack) push(r *Region) error {
	if s.n == MaxNesting {
		return &DepthExceededError{Depth: MaxNesting}
	}
	s.regions[s.n] = r
	s.n++
	return nil
}

func (s *guardStack) pop() *Region {
	if s.n == 0 {
		// Internal invariant violation: every pop is paired with a push.
		panic(MisuseError("pop of an empty guard stack"))
	}
	s.n--
	r := s.regions[s.n]
	s.regions[s.n] = nil
	return r
}

func (s *guardStack) top() *Region {
	if s.n == 0 {
		return nil
	}
	return s.regions[s.n-1]
}

func (s *guardStack) depth() int {
	return s.n
}
