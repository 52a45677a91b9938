package parallel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixsplit/pixsplit/pkg/pixel"
)

// checkerboard returns an image alternating two colors.
func checkerboard(r image.Rectangle) *image.NRGBA {
	m := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if (x+y)%2 == 0 {
				m.SetNRGBA(x, y, color.NRGBA{30, 60, 90, 255})
			} else {
				m.SetNRGBA(x, y, color.NRGBA{250, 10, 0, 200})
			}
		}
	}
	return m
}

// gradient returns an image where each pixel is different.
func gradient(w, h int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, color.RGBA{uint8(x * 7), uint8(y * 5), uint8(x + y), 255})
		}
	}
	return m
}

func run(ctx context.Context, src image.Image, chain pixel.Chain, workers int) (image.Image, error) {
	return (&Executor{}).Run(ctx, src, chain, workers)
}

type panicOp struct {
	calls int32
}

func (o *panicOp) Apply(p pixel.RGB) pixel.RGB {
	if atomic.AddInt32(&o.calls, 1) > 3 {
		panic("boom")
	}
	return p
}

func (o *panicOp) String() string {
	return "panic"
}

type slowOp struct{}

func (slowOp) Apply(p pixel.RGB) pixel.RGB {
	time.Sleep(time.Millisecond)
	return p
}

func (slowOp) String() string {
	return "slow"
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("checkerboard", func(t *testing.T) {
		src := checkerboard(image.Rect(0, 0, 4, 4))
		chain := pixel.NewChain(pixel.GrayscaleOp{})

		ref, err := run(ctx, src, chain, 1)
		require.NoError(t, err)
		require.IsType(t, &image.Gray{}, ref)

		g := ref.(*image.Gray)
		assert.Equal(t, uint8(60), g.GrayAt(0, 0).Y)
		assert.Equal(t, uint8(86), g.GrayAt(1, 0).Y)

		for _, workers := range []int{2, 3, 4, 8} {
			m, err := run(ctx, src, chain, workers)
			require.NoError(t, err)
			assert.Equal(t, g.Pix, m.(*image.Gray).Pix, "workers=%d", workers)
		}
	})

	t.Run("strategies", func(t *testing.T) {
		src := gradient(37, 23)
		pool := workerpool.New(3)
		defer pool.StopWait()

		chains := []pixel.Chain{
			pixel.NewChain(pixel.GrayscaleOp{}),
			pixel.NewChain(pixel.BrightnessOp{Delta: 40}),
			pixel.NewChain(pixel.GrayscaleOp{}, pixel.BrightnessOp{Delta: -20}),
		}
		executors := map[string]*Executor{
			"goroutines": {},
			"pool":       {Pool: pool},
			"timeout":    {Timeout: time.Minute},
		}

		for _, chain := range chains {
			ref, err := run(ctx, src, chain, 1)
			require.NoError(t, err)

			for name, e := range executors {
				for _, workers := range []int{1, 2, 5, 23, 40} {
					m, err := e.Run(ctx, src, chain, workers)
					require.NoError(t, err)
					assert.Equal(t, ref, m, "%s %s workers=%d", chain, name, workers)

					m, err = e.RunStaged(ctx, src, chain, workers)
					require.NoError(t, err)
					assert.Equal(t, ref, m, "%s %s staged workers=%d", chain, name, workers)
				}
			}
		}
	})

	t.Run("alpha", func(t *testing.T) {
		src := checkerboard(image.Rect(0, 0, 3, 3))
		m, err := run(ctx, src, pixel.NewChain(pixel.BrightnessOp{Delta: 20}), 2)
		require.NoError(t, err)

		out := m.(*image.NRGBA)
		assert.Equal(t, color.NRGBA{50, 80, 110, 255}, out.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{255, 30, 20, 200}, out.NRGBAAt(1, 0))
	})

	t.Run("offset bounds", func(t *testing.T) {
		src := checkerboard(image.Rect(5, 10, 9, 17))
		chain := pixel.NewChain(pixel.GrayscaleOp{})

		m, err := run(ctx, src, chain, 3)
		require.NoError(t, err)
		assert.Equal(t, src.Bounds(), m.Bounds())

		staged, err := (&Executor{}).RunStaged(ctx, src, chain, 3)
		require.NoError(t, err)
		assert.Equal(t, m, staged)

		for y := 10; y < 17; y++ {
			for x := 5; x < 9; x++ {
				p, _ := pixel.At(src, x, y)
				assert.Equal(t, pixel.Grayscale(p).R, m.(*image.Gray).GrayAt(x, y).Y)
			}
		}
	})

	t.Run("source unchanged", func(t *testing.T) {
		src := gradient(8, 8)
		before := make([]uint8, len(src.Pix))
		copy(before, src.Pix)

		_, err := run(ctx, src, pixel.NewChain(pixel.GrayscaleOp{}, pixel.BrightnessOp{Delta: 99}), 4)
		require.NoError(t, err)
		assert.Equal(t, before, src.Pix)
	})

	t.Run("idempotent", func(t *testing.T) {
		src := gradient(9, 9)
		chain := pixel.NewChain(pixel.GrayscaleOp{})

		once, err := run(ctx, src, chain, 3)
		require.NoError(t, err)
		twice, err := run(ctx, once, chain, 3)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("empty image", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 0))
		m, err := run(ctx, src, pixel.NewChain(pixel.GrayscaleOp{}), 4)
		require.NoError(t, err)
		assert.True(t, m.Bounds().Empty())
	})

	t.Run("invalid workers", func(t *testing.T) {
		m, err := run(ctx, gradient(2, 2), pixel.NewChain(), 0)
		assert.Nil(t, m)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}

func TestRunFailure(t *testing.T) {
	ctx := context.Background()
	pool := workerpool.New(2)
	defer pool.StopWait()

	executors := map[string]*Executor{
		"inline":     {},
		"goroutines": {},
		"pool":       {Pool: pool},
	}

	for name, e := range executors {
		workers := 4
		if name == "inline" {
			workers = 1
		}

		t.Run(name, func(t *testing.T) {
			m, err := e.Run(ctx, gradient(6, 6), pixel.Chain{&panicOp{}}, workers)
			assert.Nil(t, m)

			var werr *WorkerError
			require.True(t, errors.As(err, &werr))
			var perr *PanicError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "boom", perr.Value)
			assert.Contains(t, err.Error(), "worker panic: boom")
		})

		t.Run(name+" staged", func(t *testing.T) {
			m, err := e.RunStaged(ctx, gradient(6, 6), pixel.Chain{&panicOp{}}, workers)
			assert.Nil(t, m)

			var werr *WorkerError
			assert.True(t, errors.As(err, &werr))
		})
	}
}

func TestRunTimeout(t *testing.T) {
	e := &Executor{Timeout: 5 * time.Millisecond}
	m, err := e.Run(context.Background(), gradient(50, 50), pixel.Chain{slowOp{}}, 2)
	assert.Nil(t, m)

	var werr *WorkerError
	require.True(t, errors.As(err, &werr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := run(ctx, gradient(4, 4), pixel.NewChain(pixel.GrayscaleOp{}), 1)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, context.Canceled))
}
