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
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"memguard.dev/memguard/pkg/log"
	"memguard.dev/memguard/pkg/memguard"
)

// stressConfig is the TOML scenario file format for the "stress" command.
type stressConfig struct {
	Scenario []scenario `toml:"scenario"`
}

// scenario is one stress round: Threads workers, each nesting guarded
// regions Nesting deep and faulting in the innermost region according to
// Faults ("none", "even" or "all").
type scenario struct {
	Name    string `toml:"name"`
	Threads int    `toml:"threads"`
	Nesting int    `toml:"nesting"`
	Faults  string `toml:"faults"`
}

func (s *scenario) validate() error {
	if s.Threads < 1 {
		return fmt.Errorf("scenario %q: threads must be positive, got %d", s.Name, s.Threads)
	}
	if s.Nesting < 1 || s.Nesting > memguard.MaxNesting {
		return fmt.Errorf("scenario %q: nesting must be in [1, %d], got %d", s.Name, memguard.MaxNesting, s.Nesting)
	}
	switch s.Faults {
	case "none", "even", "all":
		return nil
	default:
		return fmt.Errorf("scenario %q: faults must be none, even or all, got %q", s.Name, s.Faults)
	}
}

// wantFault reports whether the given worker faults in this scenario.
func (s *scenario) wantFault(worker int) bool {
	switch s.Faults {
	case "all":
		return true
	case "even":
		return worker%2 == 0
	default:
		return false
	}
}

// expectedCatches returns the number of faults the scenario must intercept.
func (s *scenario) expectedCatches() int {
	n := 0
	for i := 0; i < s.Threads; i++ {
		if s.wantFault(i) {
			n++
		}
	}
	return n
}

// defaultScenarios is used when no config file is given.
var defaultScenarios = []scenario{
	{Name: "halves", Threads: 4, Nesting: 1, Faults: "even"},
	{Name: "deep", Threads: 2, Nesting: 5, Faults: "all"},
	{Name: "quiet", Threads: 4, Nesting: 3, Faults: "none"},
}

// Stress implements subcommands.Command for the "stress" command.
type Stress struct {
	config string
}

// Name implements subcommands.Command.Name.
func (*Stress) Name() string {
	return "stress"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Stress) Synopsis() string {
	return "runs fault scenarios described by a TOML config"
}

// Usage implements subcommands.Command.Usage.
func (*Stress) Usage() string {
	return `stress [-config file.toml] - run guarded-region scenarios and verify the catch counts.

The config file holds one or more [[scenario]] tables:

	[[scenario]]
	name = "halves"
	threads = 8
	nesting = 3
	faults = "even"   # none|even|all

Without -config, a built-in set of scenarios runs.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Stress) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.config, "config", "", "path to a TOML scenario file")
}

// Execute implements subcommands.Command.Execute.
func (s *Stress) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	scenarios := defaultScenarios
	if s.config != "" {
		var cfg stressConfig
		if _, err := toml.DecodeFile(s.config, &cfg); err != nil {
			Fatalf("reading config %q: %v", s.config, err)
		}
		scenarios = cfg.Scenario
	}
	if len(scenarios) == 0 {
		Fatalf("no scenarios to run")
	}

	for i := range scenarios {
		sc := &scenarios[i]
		if err := sc.validate(); err != nil {
			Fatalf("%v", err)
		}
		caught, err := runScenario(sc)
		if err != nil {
			Fatalf("scenario %q: %v", sc.Name, err)
		}
		if want := sc.expectedCatches(); caught != want {
			Fatalf("scenario %q: caught %d faults, want %d", sc.Name, caught, want)
		}
		log.Infof("scenario %q: %d threads, nesting %d, %d faults caught", sc.Name, sc.Threads, sc.Nesting, caught)
	}
	fmt.Println("all scenarios passed")
	return subcommands.ExitSuccess
}

// runScenario runs one scenario and returns the number of faults caught.
func runScenario(sc *scenario) (int, error) {
	var caught atomic.Int64
	var g errgroup.Group
	for i := 0; i < sc.Threads; i++ {
		i := i
		g.Go(func() error {
			c := memguard.Current()
			defer memguard.Unregister()

			var descend func(level int) error
			descend = func(level int) error {
				var innerErr error
				err := c.Protect(func() {
					if level < sc.Nesting {
						innerErr = descend(level + 1)
						return
					}
					if sc.wantFault(i) {
						derefNil()
					}
				})
				if innerErr != nil {
					return innerErr
				}
				if level == sc.Nesting && sc.wantFault(i) {
					if err == nil {
						return fmt.Errorf("worker %d: the fault was not intercepted", i)
					}
					caught.Add(1)
					return nil
				}
				return err
			}
			if err := descend(1); err != nil {
				return err
			}
			if d := c.Depth(); d != 0 {
				return fmt.Errorf("worker %d: depth %d after the scenario, want 0", i, d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(caught.Load()), nil
}
