// Package convert exposes the engine as a synchronous request and
// response function that any shell can call.
package convert

import (
	"context"
	"fmt"
	"image"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"codeberg.org/pixsplit/pixsplit/internal/timing"
	"codeberg.org/pixsplit/pixsplit/pkg/histogram"
	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
	"codeberg.org/pixsplit/pixsplit/pkg/pixel"
)

// Request describes a transformation.
type Request struct {
	Strategy   Strategy
	Workers    int
	Grayscale  bool
	Brightness *int
	Histogram  bool
}

// Response is the result of a transformation.
type Response struct {
	Image     image.Image
	Elapsed   time.Duration
	Workers   int
	Histogram *histogram.Histogram
}

// ElapsedMs returns the elapsed time in milliseconds.
func (r *Response) ElapsedMs() int64 {
	return r.Elapsed.Milliseconds()
}

// Validate checks the request. The returned error wraps
// parallel.ErrInvalidArgument.
func (r Request) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Strategy, validation.Required, validation.In(Strategies...)),
		validation.Field(&r.Workers, validation.When(r.Strategy == NWaySplit,
			validation.Required, validation.Min(1), validation.Max(parallel.MaxWorkers))),
		validation.Field(&r.Brightness, validation.Min(-255), validation.Max(255)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", parallel.ErrInvalidArgument, err)
	}
	return nil
}

// Chain returns the pixel chain of the request.
func (r Request) Chain() pixel.Chain {
	ops := []pixel.Op{}
	if r.Grayscale {
		ops = append(ops, pixel.GrayscaleOp{})
	}
	if r.Brightness != nil {
		ops = append(ops, pixel.BrightnessOp{Delta: *r.Brightness})
	}
	return pixel.NewChain(ops...)
}

// Service runs requests on an executor and keeps track of their
// timings.
type Service struct {
	Executor *parallel.Executor
	Timings  *timing.Log
}

// NewService creates a new Service. A nil executor is replaced by
// a default one.
func NewService(e *parallel.Executor, timings *timing.Log) *Service {
	if e == nil {
		e = &parallel.Executor{}
	}
	if timings == nil {
		timings = timing.NewLog()
	}
	return &Service{Executor: e, Timings: timings}
}

// Convert applies the request to src and appends one timing record
// to the service log.
func (s *Service) Convert(ctx context.Context, src image.Image, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	workers := req.Strategy.Workers(req.Workers)
	stop := s.Timings.Start(req.Strategy.String(), workers)
	m, h, err := s.Apply(ctx, src, req)
	if err != nil {
		return nil, err
	}
	rec := stop()

	return &Response{
		Image:     m,
		Elapsed:   rec.Elapsed,
		Workers:   workers,
		Histogram: h,
	}, nil
}

// Apply applies the request to src, without recording its timing.
// The histogram, when requested, is built on the transformed image.
func (s *Service) Apply(ctx context.Context, src image.Image, req Request) (image.Image, *histogram.Histogram, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	workers := req.Strategy.Workers(req.Workers)
	chain := req.Chain()

	var m image.Image
	var err error
	if req.Strategy == NonBlocking {
		m, err = s.Executor.RunStaged(ctx, src, chain, workers)
	} else {
		m, err = s.Executor.Run(ctx, src, chain, workers)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", req.Strategy, err)
	}

	if !req.Histogram {
		return m, nil, nil
	}

	h, err := histogram.BuildParallel(ctx, m, workers)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: histogram: %w", req.Strategy, err)
	}
	return m, &h, nil
}
