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
	"strconv"

	"github.com/google/subcommands"

	"memguard.dev/memguard/pkg/memguard"
)

// Wild implements subcommands.Command for the "wild" command.
type Wild struct {
	addr string
}

// Name implements subcommands.Command.Name.
func (*Wild) Name() string {
	return "wild"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Wild) Synopsis() string {
	return "reads an invalid non-null address inside a guarded region"
}

// Usage implements subcommands.Command.Usage.
func (*Wild) Usage() string {
	return `wild [-addr 0x...] - read an invalid address inside a guarded region and survive.

Without -addr, an inaccessible page is mapped and its address is used, which
faults deterministically.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (w *Wild) SetFlags(f *flag.FlagSet) {
	f.StringVar(&w.addr, "addr", "", "address to read, e.g. 0xdead0000; defaults to a freshly mapped inaccessible page")
}

// Execute implements subcommands.Command.Execute.
func (w *Wild) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	var addr uintptr
	if w.addr != "" {
		n, err := strconv.ParseUint(w.addr, 0, 64)
		if err != nil {
			f.Usage()
			return subcommands.ExitUsageError
		}
		addr = uintptr(n)
	} else {
		a, err := mapInaccessible()
		if err != nil {
			Fatalf("%v", err)
		}
		addr = a
	}

	err := memguard.Protect(func() {
		fmt.Printf("reading address %#x\n", addr)
		byteSink = readByte(addr)
		fmt.Println("the address was readable; no fault")
	})
	if err != nil {
		fmt.Printf("caught: %v\n", err)
	}
	if err := memguard.Unregister(); err != nil {
		Fatalf("unregistering the main thread: %v", err)
	}
	return subcommands.ExitSuccess
}
