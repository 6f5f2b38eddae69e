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
	"golang.org/x/sync/errgroup"

	"memguard.dev/memguard/pkg/log"
	"memguard.dev/memguard/pkg/memguard"
)

// Threads implements subcommands.Command for the "threads" command.
type Threads struct {
	count int
}

// Name implements subcommands.Command.Name.
func (*Threads) Name() string {
	return "threads"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Threads) Synopsis() string {
	return "runs guarded regions on several threads, half of which fault"
}

// Usage implements subcommands.Command.Usage.
func (*Threads) Usage() string {
	return `threads [-count T] - run T workers with independent guarded regions.

Even-numbered workers dereference a null pointer; every worker survives.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (t *Threads) SetFlags(f *flag.FlagSet) {
	f.IntVar(&t.count, "count", 4, "number of worker threads")
}

// Execute implements subcommands.Command.Execute.
func (t *Threads) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if t.count < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	var g errgroup.Group
	for i := 0; i < t.count; i++ {
		i := i
		g.Go(func() error {
			c := memguard.Current()
			defer memguard.Unregister()
			err := c.Protect(func() {
				log.Infof("worker %d: inside the guarded region on thread %d", i, c.TID())
				if i%2 == 0 {
					log.Infof("worker %d: dereferencing a null pointer", i)
					derefNil()
				}
			})
			if i%2 == 0 && err == nil {
				return fmt.Errorf("worker %d: the fault was not intercepted", i)
			}
			if err != nil {
				log.Infof("worker %d: caught: %v", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		Fatalf("%v", err)
	}
	fmt.Println("all workers finished")
	return subcommands.ExitSuccess
}
