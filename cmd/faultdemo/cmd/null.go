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

// Null implements subcommands.Command for the "null" command.
type Null struct{}

// Name implements subcommands.Command.Name.
func (*Null) Name() string {
	return "null"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Null) Synopsis() string {
	return "dereferences a null pointer inside a guarded region"
}

// Usage implements subcommands.Command.Usage.
func (*Null) Usage() string {
	return `null - dereference a null pointer inside a guarded region and survive.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Null) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Null) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	err := memguard.Protect(func() {
		fmt.Println("dereferencing a null pointer")
		derefNil()
		fmt.Println("not reached")
	})
	if err == nil {
		Fatalf("the fault was not intercepted")
	}
	fmt.Printf("caught: %v\n", err)
	if err := memguard.Unregister(); err != nil {
		Fatalf("unregistering the main thread: %v", err)
	}
	return subcommands.ExitSuccess
}
