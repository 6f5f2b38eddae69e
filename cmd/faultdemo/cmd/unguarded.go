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
)

// Unguarded implements subcommands.Command for the "unguarded" command.
type Unguarded struct{}

// Name implements subcommands.Command.Name.
func (*Unguarded) Name() string {
	return "unguarded"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Unguarded) Synopsis() string {
	return "faults with no guarded region armed; the process dies"
}

// Usage implements subcommands.Command.Usage.
func (*Unguarded) Usage() string {
	return `unguarded - read an invalid address outside any guarded region.

Faults outside guarded regions are never masked, so this command is expected
to kill the process. It exists as a fixture for tests of that behavior.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Unguarded) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Unguarded) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	addr, err := mapInaccessible()
	if err != nil {
		Fatalf("%v", err)
	}
	fmt.Printf("reading address %#x with no guarded region armed\n", addr)
	byteSink = readByte(addr)
	Fatalf("survived an unguarded fault")
	return subcommands.ExitFailure
}
