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

package pipeline

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/baseline"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/group"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/loop"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/partition"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/workerpool"
)

// Distributed runs one invocation as comm's rank. The root returns the
// reassembled image; other ranks return nil. On error the group is
// aborted so that no rank stays blocked in a collective.
//
// Unless cfg.Halo is set, neighbourhood kernels such as emboss see each
// partition as a separate image: the first row of every non-root
// partition takes the border value, so the output differs from Simple
// and changes with comm.Size(). Point-only chains are unaffected.
func Distributed(comm group.Comm, cfg Config) (*pixpipe.Buffer, error) {
	cfg = cfg.withDefaults(VariantMPI)
	img, err := distributed(comm, cfg)
	if err != nil {
		comm.Abort(err)
		return nil, err
	}
	return img, nil
}

func distributed(comm group.Comm, cfg Config) (*pixpipe.Buffer, error) {
	rank := comm.Rank()
	logger := cfg.Logger.With("rank", rank, "size", comm.Size())

	var img *pixpipe.Buffer
	var props pixpipe.Properties
	if rank == group.Root {
		var err error
		img, props, err = cfg.Codec.Decode(cfg.Input)
		if err != nil {
			return nil, err
		}
		logger.Debug("image loaded", "width", props.Cols, "height", props.Rows, "pixels", props.Rows*props.Cols)
	}

	if err := comm.Broadcast(&props); err != nil {
		return nil, err
	}
	if err := props.Validate(); err != nil {
		return nil, err
	}

	plan := partition.ForProperties(props, comm.Size())
	if plan.HasEmpty() {
		return nil, pixpipe.Configf("%d rows cannot be split across %d workers: every worker needs at least one row",
			props.Rows, comm.Size())
	}
	depth := 0
	if cfg.Halo {
		depth = cfg.Chain.Reach()
	}
	halo := plan.Halo(depth)
	part := plan.Part(rank)
	logger.Debug("partition", "rows", part.RowCount, "offset", part.RowOffset, "halo", halo.Rows[rank])

	if err := comm.Barrier(); err != nil {
		return nil, err
	}
	var send []byte
	if rank == group.Root {
		send = img.Pix
	}
	data, err := comm.Scatterv(send, halo.Counts, halo.Displs)
	if err != nil {
		return nil, err
	}
	local, err := pixpipe.FromPix(data, part.RowCount+halo.Rows[rank], props.Cols)
	if err != nil {
		return nil, err
	}

	cfg.transform(local)

	own := local.RowRange(halo.Rows[rank], local.Rows)
	var recv []byte
	if rank == group.Root {
		recv = img.Pix
	}
	if err := comm.Gatherv(own.Pix, recv, plan.Counts(), plan.Displs()); err != nil {
		return nil, err
	}

	if rank != group.Root {
		return nil, nil
	}
	return img, cfg.finalize(img)
}

// Local runs a distributed invocation with workers ranks inside this
// process and returns the root's image. Each rank gets its own pool with
// as many goroutines as cfg.Strategy.Pool, as a separate process would,
// so workers ranks run up to workers*NumWorkers goroutines in total.
// The pools are closed when their rank finishes.
func Local(workers int, cfg Config) (*pixpipe.Buffer, error) {
	if workers <= 0 {
		return nil, pixpipe.Configf("worker count %d must be positive", workers)
	}
	comms := group.NewLocal(workers)
	errs := make([]error, workers)
	var out *pixpipe.Buffer

	var g errgroup.Group
	for _, c := range comms {
		g.Go(func() error {
			defer c.Close()
			rcfg := cfg
			var release func()
			rcfg.Strategy, release = rankStrategy(cfg.Strategy)
			defer release()
			img, err := Distributed(c, rcfg)
			if c.Rank() == group.Root {
				out = img
			}
			errs[c.Rank()] = err
			return nil
		})
	}
	g.Wait()
	if err := rootCause(errs); err != nil {
		return nil, err
	}
	return out, nil
}

// rankStrategy returns s with a private pool the size of s.Pool, and the
// func that closes it. Serial strategies are returned unchanged.
func rankStrategy(s loop.Strategy) (loop.Strategy, func()) {
	n := s.Pool.NumWorkers()
	if n <= 1 {
		return s, func() {}
	}
	pool := workerpool.New(n)
	s.Pool = pool
	return s, pool.Close
}

// rootCause picks the error that started an abort over the ones it
// induced on other ranks.
func rootCause(errs []error) error {
	var induced error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, pixpipe.ErrAborted):
			if induced == nil {
				induced = err
			}
		default:
			return err
		}
	}
	return induced
}

// Simple runs the chain over the whole image in this process, without
// partitioning.
func Simple(cfg Config) (*pixpipe.Buffer, error) {
	cfg = cfg.withDefaults(VariantSimple)
	img, props, err := cfg.Codec.Decode(cfg.Input)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("image loaded", "width", props.Cols, "height", props.Rows, "pixels", props.Rows*props.Cols)
	cfg.transform(img)
	return img, cfg.finalize(img)
}

// Baseline runs the library reference implementation of the chain's
// filters. Chain order is ignored; the filters always run HSV, grayscale,
// emboss.
func Baseline(cfg Config) (*pixpipe.Buffer, error) {
	cfg = cfg.withDefaults(VariantBaseline)
	img, _, err := cfg.Codec.Decode(cfg.Input)
	if err != nil {
		return nil, err
	}
	img = baseline.Apply(img, BaselineOptions(cfg.Chain))
	return img, cfg.finalize(img)
}

// BaselineOptions enables the library filters named in chain.
func BaselineOptions(chain kernel.Chain) baseline.Options {
	var opts baseline.Options
	for _, k := range chain {
		switch k.Name {
		case kernel.HSVKernel.Name:
			opts.HSV = true
		case kernel.GrayscaleKernel.Name:
			opts.Grayscale = true
		case kernel.EmbossKernel.Name:
			opts.Emboss = true
		}
	}
	return opts
}
