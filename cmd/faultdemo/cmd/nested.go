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

package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"memguard.dev/memguard/pkg/memguard"
)

// Nested implements subcommands.Command for the "nested" command.
type Nested struct {
	depth int
}

// Name implements subcommands.Command.Name.
func (*Nested) Name() string {
	return "nested"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Nested) Synopsis() string {
	return "faults in the innermost of several nested guarded regions"
}

// Usage implements subcommands.Command.Usage.
func (*Nested) Usage() string {
	return `nested [-depth N] - nest N guarded regions and fault in the innermost one.

Only the innermost region observes the fault; the enclosing regions complete
normally.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (n *Nested) SetFlags(f *flag.FlagSet) {
	f.IntVar(&n.depth, "depth", 3, "number of nested guarded regions")
}

// Execute implements subcommands.Command.Execute.
func (n *Nested) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if n.depth < 1 || n.depth > memguard.MaxNesting {
		f.Usage()
		return subcommands.ExitUsageError
	}

	c := memguard.Current()
	var descend func(level int)
	descend = func(level int) {
		err := c.Protect(func() {
			fmt.Printf("level %d entered, stack depth %d\n", level, c.Depth())
			if level < n.depth {
				descend(level + 1)
				return
			}
			derefNil()
		})
		switch {
		case level == n.depth && err == nil:
			Fatalf("the innermost region did not fault")
		case level == n.depth:
			fmt.Printf("level %d caught: %v\n", level, err)
		case err != nil:
			Fatalf("level %d caught a fault that belongs to level %d: %v", level, n.depth, err)
		default:
			fmt.Printf("level %d completed normally\n", level)
		}
	}
	descend(1)

	if d := c.Depth(); d != 0 {
		Fatalf("stack depth is %d after all regions exited, want 0", d)
	}
	if err := memguard.Unregister(); err != nil {
		Fatalf("unregistering the main thread: %v", err)
	}
	return subcommands.ExitSuccess
}
