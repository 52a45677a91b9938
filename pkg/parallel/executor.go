// Package parallel splits images into row bands and runs a pixel
// chain over every band concurrently.
//
// Each band owns a disjoint range of rows in the destination image, so
// the workers never need to synchronize on the output buffer. The
// source image is only read.
package parallel

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"golang.org/x/sync/errgroup"

	"codeberg.org/pixsplit/pixsplit/pkg/pixel"
)

// Executor runs pixel chains over image partitions.
//
// The zero value is ready to use and starts one goroutine per
// partition.
type Executor struct {
	// Pool, when set, bounds the concurrency. Partitions are queued
	// and picked up by the pool workers in submission order.
	Pool *workerpool.WorkerPool

	// Timeout is the maximum time a run waits for its workers.
	// Zero means no limit.
	Timeout time.Duration
}

// task is the work performed on one partition.
type task func(ctx context.Context, i int, p Partition) error

// Run applies chain to src over workers partitions, each partition
// writing straight into the shared output image. It returns once every
// partition is done. When one partition fails, the result is discarded
// and a *WorkerError is returned.
func (e *Executor) Run(ctx context.Context, src image.Image, chain pixel.Chain, workers int) (image.Image, error) {
	b := src.Bounds()
	parts, err := Split(b.Dy(), workers)
	if err != nil {
		return nil, err
	}

	dst := chain.NewOutput(src, b)
	err = e.execute(ctx, parts, func(ctx context.Context, _ int, p Partition) error {
		return applyRows(ctx, dst, src, chain, p)
	})
	if err != nil {
		return nil, err
	}

	return dst, nil
}

// RunStaged is the variant of Run where each partition renders into
// its own band image. The bands are copied, in row order, into the
// final image after all the partitions are done.
func (e *Executor) RunStaged(ctx context.Context, src image.Image, chain pixel.Chain, workers int) (image.Image, error) {
	b := src.Bounds()
	parts, err := Split(b.Dy(), workers)
	if err != nil {
		return nil, err
	}

	bands := make([]draw.Image, len(parts))
	err = e.execute(ctx, parts, func(ctx context.Context, i int, p Partition) error {
		r := image.Rect(b.Min.X, b.Min.Y+p.Start, b.Max.X, b.Min.Y+p.End)
		band := chain.NewOutput(src, r)
		if err := applyRows(ctx, band, src, chain, p); err != nil {
			return err
		}
		bands[i] = band
		return nil
	})
	if err != nil {
		return nil, err
	}

	dst := chain.NewOutput(src, b)
	for _, band := range bands {
		if band == nil {
			continue
		}
		copyBand(dst, band)
	}

	return dst, nil
}

// execute runs fn on every partition and waits for all of them.
func (e *Executor) execute(ctx context.Context, parts []Partition, fn task) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	// Sequential mode, no goroutine at all
	if len(parts) == 1 {
		return safeRun(ctx, fn, 0, parts[0])
	}

	if e.Pool != nil {
		return e.executePool(ctx, parts, fn)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		i, p := i, p
		if p.Empty() {
			continue
		}
		g.Go(func() error {
			return safeRun(ctx, fn, i, p)
		})
	}

	return g.Wait()
}

// executePool submits every partition to the worker pool and waits
// for all of them. The first error cancels the remaining partitions.
func (e *Executor) executePool(ctx context.Context, parts []Partition, fn task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var res error

	for i, p := range parts {
		i, p := i, p
		if p.Empty() {
			continue
		}
		wg.Add(1)
		e.Pool.Submit(func() {
			defer wg.Done()
			if err := safeRun(ctx, fn, i, p); err != nil {
				once.Do(func() {
					res = err
					cancel()
				})
			}
		})
	}

	wg.Wait()
	return res
}

// safeRun runs fn on a partition and turns any error, or panic,
// into a *WorkerError.
func safeRun(ctx context.Context, fn task, i int, p Partition) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerError{Partition: p, Err: &PanicError{r}}
		}
	}()

	if err = fn(ctx, i, p); err != nil {
		if _, ok := err.(*WorkerError); !ok {
			err = &WorkerError{Partition: p, Err: err}
		}
	}
	return
}

// applyRows transforms the rows of partition p. The context is
// checked before every row.
func applyRows(ctx context.Context, dst draw.Image, src image.Image, chain pixel.Chain, p Partition) error {
	top := src.Bounds().Min.Y
	for y := top + p.Start; y < top+p.End; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		chain.ApplyRow(dst, src, y)
	}
	return nil
}

// copyBand copies the pixels of band into dst, at the same position.
func copyBand(dst, band draw.Image) {
	r := band.Bounds()
	switch out := dst.(type) {
	case *image.Gray:
		if in, ok := band.(*image.Gray); ok {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				copy(out.Pix[out.PixOffset(r.Min.X, y):], in.Pix[in.PixOffset(r.Min.X, y):in.PixOffset(r.Max.X, y)])
			}
			return
		}
	case *image.NRGBA:
		if in, ok := band.(*image.NRGBA); ok {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				copy(out.Pix[out.PixOffset(r.Min.X, y):], in.Pix[in.PixOffset(r.Min.X, y):in.PixOffset(r.Max.X, y)])
			}
			return
		}
	}
	draw.Draw(dst, r, band, r.Min, draw.Src)
}
