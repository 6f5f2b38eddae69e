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

// Binary faultdemo exercises guarded regions against real memory faults.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"memguard.dev/memguard/cmd/faultdemo/cmd"
	"memguard.dev/memguard/pkg/log"
)

var debugLog = flag.Bool("debug", false, "enable debug logging")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(cmd.Null), "")
	subcommands.Register(new(cmd.Wild), "")
	subcommands.Register(new(cmd.Nested), "")
	subcommands.Register(new(cmd.Threads), "")
	subcommands.Register(new(cmd.Stress), "")
	subcommands.Register(new(cmd.Unguarded), "")

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	if *debugLog {
		log.SetLevel(log.Debug)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
