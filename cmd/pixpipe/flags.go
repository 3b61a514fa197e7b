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
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/codec"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/loop"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/pipeline"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/workerpool"
)

// options holds the flags shared by every benchmark command.
type options struct {
	input     string
	outputDir string
	chain     string
	reps      int
	threads   int
	layout    string
	schedule  string
	chunk     int
	fused     bool
	unsafe    bool
	halo      bool
	show      bool
	save      bool
	debug     bool
}

// register binds the shared flags, with defaults taken from the
// environment.
func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.input, "input", "i", pixpipe.EnvString("INPUT", ""), "image to filter (PIXPIPE_INPUT)")
	fs.StringVarP(&o.outputDir, "output", "o", pixpipe.EnvString("OUTPUT_DIR", "."), "directory for saved and shown images (PIXPIPE_OUTPUT_DIR)")
	fs.StringVar(&o.chain, "chain", pixpipe.EnvString("CHAIN", kernel.DefaultChain.String()), "comma separated filter chain (PIXPIPE_CHAIN)")
	fs.IntVarP(&o.reps, "reps", "n", pixpipe.EnvInt("REPS", 100), "benchmark repetitions (PIXPIPE_REPS)")
	fs.IntVarP(&o.threads, "threads", "t", pixpipe.EnvInt("THREADS", runtime.GOMAXPROCS(0)), "goroutines per rank, 1 runs serially (PIXPIPE_THREADS)")
	fs.StringVar(&o.layout, "layout", pixpipe.EnvString("LAYOUT", loop.Nested.String()), "loop layout: nested or flattened (PIXPIPE_LAYOUT)")
	fs.StringVar(&o.schedule, "schedule", pixpipe.EnvString("SCHEDULE", loop.Static.String()), "loop schedule: static or dynamic (PIXPIPE_SCHEDULE)")
	fs.IntVar(&o.chunk, "chunk", pixpipe.EnvInt("CHUNK", 0), "dynamic schedule chunk, 0 for one row (PIXPIPE_CHUNK)")
	fs.BoolVar(&o.fused, "fused", pixpipe.EnvBool("FUSED", false), "compose consecutive point filters into one pass (PIXPIPE_FUSED)")
	fs.BoolVar(&o.unsafe, "unsafe", pixpipe.EnvBool("UNSAFE", false), "run the whole chain in one in-place pass; output is NOT deterministic (PIXPIPE_UNSAFE)")
	fs.BoolVar(&o.halo, "halo", pixpipe.EnvBool("HALO", false), "ship neighbour rows across partition seams; without it emboss output depends on the rank count (PIXPIPE_HALO)")
	fs.BoolVar(&o.show, "show", pixpipe.EnvBool("SHOW", false), "show the final image (PIXPIPE_SHOW)")
	fs.BoolVar(&o.save, "save", pixpipe.EnvBool("SAVE", false), "save the final image (PIXPIPE_SAVE)")
	fs.BoolVar(&o.debug, "debug", pixpipe.EnvBool("DEBUG", false), "enable debug logging (PIXPIPE_DEBUG)")
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// config builds the pipeline configuration. The returned pool must be
// closed by the caller.
func (o *options) config(logger *slog.Logger) (pipeline.Config, *workerpool.Pool, error) {
	chain, err := kernel.ParseChain(o.chain)
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	layout, err := loop.ParseLayout(o.layout)
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	schedule, err := loop.ParseSchedule(o.schedule)
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	if o.reps < 0 {
		return pipeline.Config{}, nil, pixpipe.Configf("repetitions %d must not be negative", o.reps)
	}
	if o.unsafe {
		logger.Warn("unsafe single pass enabled: results depend on scheduling and timings are not comparable")
	}

	pool := workerpool.New(max(o.threads, 1))
	cfg := pipeline.Config{
		Input:     o.input,
		OutputDir: o.outputDir,
		Chain:     chain,
		Strategy:  loop.Strategy{Layout: layout, Schedule: schedule, Pool: pool, Chunk: o.chunk},
		Fused:     o.fused,
		Unsafe:    o.unsafe,
		Halo:      o.halo,
		Show:      o.show,
		Save:      o.save,
		Codec:     codec.Imaging{},
		Display:   codec.FileDisplay{Dir: o.outputDir, Logger: logger},
		Logger:    logger,
	}
	return cfg, pool, nil
}

func requireInput(o *options) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		if o.input == "" {
			return pixpipe.Configf("an input image is required (--input or PIXPIPE_INPUT)")
		}
		return nil
	}
}
