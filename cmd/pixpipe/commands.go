// Copyright 2025 go-pixpipe Authors
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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/bench"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/group"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/pipeline"
)

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "pixpipe",
		Short:         "Benchmark parallel and distributed image filter chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.register(root.PersistentFlags())

	root.AddCommand(
		newSimpleCmd(o),
		newLocalCmd(o),
		newCoordinatorCmd(o),
		newWorkerCmd(o),
		newBaselineCmd(o),
		newCompareCmd(o),
		newKernelsCmd(),
	)
	return root
}

// invocation is one pipeline run returning the finished image.
type invocation func(pipeline.Config) (*pixpipe.Buffer, error)

// measure runs inv o.reps times under a fresh harness.
func measure(name string, o *options, cfg pipeline.Config, inv invocation) (bench.Entry, error) {
	var h bench.Harness
	pixels := 0
	res, err := h.Run(func() error {
		img, err := inv(cfg)
		if img != nil {
			pixels = img.Pixels()
		}
		return err
	}, o.reps)
	if err != nil {
		return bench.Entry{}, fmt.Errorf("%s: %w", name, err)
	}
	return bench.Entry{Name: name, Result: res, Pixels: pixels, Invalid: cfg.Unsafe}, nil
}

// runBenchmark is the body shared by the single-strategy commands.
func runBenchmark(o *options, name string, inv invocation) error {
	logger := o.logger()
	cfg, pool, err := o.config(logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("benchmark", "name", name, "host", bench.Host(), "strategy", cfg.Strategy.String(), "chain", cfg.Chain.String(), "reps", o.reps)
	entry, err := measure(name, o, cfg, inv)
	if err != nil {
		return err
	}
	bench.Report(os.Stdout, entry)
	return nil
}

func newSimpleCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "simple",
		Short:   "Run the chain over the whole image in one process",
		PreRunE: requireInput(o),
		RunE: func(*cobra.Command, []string) error {
			return runBenchmark(o, "Simple Filters", pipeline.Simple)
		},
	}
}

func newLocalCmd(o *options) *cobra.Command {
	workers := pixpipe.EnvInt("WORKERS", 4)
	cmd := &cobra.Command{
		Use:     "local",
		Short:   "Split the image across in-process ranks",
		PreRunE: requireInput(o),
		RunE: func(*cobra.Command, []string) error {
			return runBenchmark(o, fmt.Sprintf("Local Filters (%d ranks)", workers), func(cfg pipeline.Config) (*pixpipe.Buffer, error) {
				return pipeline.Local(workers, cfg)
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", workers, "number of ranks (PIXPIPE_WORKERS)")
	return cmd
}

func newCoordinatorCmd(o *options) *cobra.Command {
	listen := pixpipe.EnvString("LISTEN", ":7070")
	size := pixpipe.EnvInt("SIZE", 2)
	cmd := &cobra.Command{
		Use:     "coordinator",
		Short:   "Run rank 0 of a TCP group and report timings",
		PreRunE: requireInput(o),
		RunE: func(*cobra.Command, []string) error {
			logger := o.logger()
			ln, err := group.Listen(listen, size, logger)
			if err != nil {
				return err
			}
			logger.Info("waiting for workers", "addr", ln.Addr().String(), "workers", size-1)
			comm, err := ln.Accept()
			if err != nil {
				return err
			}
			defer comm.Close()
			return runBenchmark(o, fmt.Sprintf("Distributed Filters (%d ranks)", size), func(cfg pipeline.Config) (*pixpipe.Buffer, error) {
				return pipeline.Distributed(comm, cfg)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", listen, "address to accept workers on (PIXPIPE_LISTEN)")
	cmd.Flags().IntVar(&size, "size", size, "group size including the coordinator (PIXPIPE_SIZE)")
	return cmd
}

func newWorkerCmd(o *options) *cobra.Command {
	connect := pixpipe.EnvString("CONNECT", "localhost:7070")
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Join a coordinator's TCP group as a worker rank",
		RunE: func(*cobra.Command, []string) error {
			logger := o.logger()
			cfg, pool, err := o.config(logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			comm, err := group.Dial(connect, logger)
			if err != nil {
				return err
			}
			defer comm.Close()
			logger.Info("joined group", "rank", comm.Rank(), "size", comm.Size(), "reps", o.reps)

			for i := range o.reps {
				if _, err := pipeline.Distributed(comm, cfg); err != nil {
					return fmt.Errorf("repetition %d of %d: %w", i+1, o.reps, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&connect, "connect", connect, "coordinator address (PIXPIPE_CONNECT)")
	return cmd
}

func newBaselineCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "baseline",
		Short:   "Run the library reference filters",
		PreRunE: requireInput(o),
		RunE: func(*cobra.Command, []string) error {
			return runBenchmark(o, "Library Filters", pipeline.Baseline)
		},
	}
}

func newCompareCmd(o *options) *cobra.Command {
	workers := pixpipe.EnvInt("WORKERS", 4)
	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Time every strategy on the same image and rank them",
		PreRunE: requireInput(o),
		RunE: func(*cobra.Command, []string) error {
			logger := o.logger()
			cfg, pool, err := o.config(logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			cfg.Fused, cfg.Unsafe = false, false
			logger.Info("compare", "host", bench.Host(), "strategy", cfg.Strategy.String(), "chain", cfg.Chain.String(), "reps", o.reps)

			local := func(cfg pipeline.Config) (*pixpipe.Buffer, error) { return pipeline.Local(workers, cfg) }
			fused, single := cfg, cfg
			fused.Fused = true
			single.Unsafe = true

			runs := []struct {
				name string
				cfg  pipeline.Config
				inv  invocation
			}{
				{"simple", cfg, pipeline.Simple},
				{"simple fused", fused, pipeline.Simple},
				{fmt.Sprintf("local x%d", workers), cfg, local},
				{fmt.Sprintf("local x%d fused", workers), fused, local},
				{fmt.Sprintf("local x%d single pass", workers), single, local},
				{"library", cfg, pipeline.Baseline},
			}
			var entries []bench.Entry
			for _, r := range runs {
				logger.Debug("running", "name", r.name)
				e, err := measure(r.name, o, r.cfg, r.inv)
				if err != nil {
					return err
				}
				entries = append(entries, e)
			}
			bench.Compare(os.Stdout, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", workers, "number of in-process ranks (PIXPIPE_WORKERS)")
	return cmd
}

func newKernelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kernels",
		Short: "List the available filters",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range kernel.Names() {
				k, _ := kernel.Lookup(name)
				kind := "point"
				if !k.InPlaceSafe() {
					kind = fmt.Sprintf("neighbourhood, reach %d", k.Reach)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", name, kind)
			}
		},
	}
}
