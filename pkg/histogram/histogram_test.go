package histogram

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
)

func TestBuild(t *testing.T) {
	t.Run("red channel", func(t *testing.T) {
		m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		m.SetNRGBA(0, 0, color.NRGBA{10, 0, 0, 255})
		m.SetNRGBA(1, 0, color.NRGBA{10, 200, 0, 255})
		m.SetNRGBA(0, 1, color.NRGBA{250, 0, 30, 255})
		m.SetNRGBA(1, 1, color.NRGBA{250, 1, 1, 255})

		h := Build(m)
		assert.Equal(t, 2, h[10])
		assert.Equal(t, 2, h[250])
		assert.Equal(t, 0, h[0])
		assert.Equal(t, 4, h.Total())
	})

	t.Run("gray", func(t *testing.T) {
		m := image.NewGray(image.Rect(0, 0, 3, 1))
		m.Pix = []uint8{0, 128, 128}

		h := Build(m)
		assert.Equal(t, 1, h[0])
		assert.Equal(t, 2, h[128])
	})

	t.Run("empty", func(t *testing.T) {
		h := Build(image.NewGray(image.Rect(0, 0, 0, 0)))
		assert.Equal(t, 0, h.Total())
	})
}

func TestBuildParallel(t *testing.T) {
	m := image.NewRGBA(image.Rect(3, 4, 40, 31))
	for y := 4; y < 31; y++ {
		for x := 3; x < 40; x++ {
			m.SetRGBA(x, y, color.RGBA{uint8(x * y), 0, 0, 255})
		}
	}
	expected := Build(m)

	for _, workers := range []int{1, 2, 4, 7, 27, 50} {
		h, err := BuildParallel(context.Background(), m, workers)
		require.NoError(t, err)
		assert.Equal(t, expected, h, "workers=%d", workers)
		assert.Equal(t, 37*27, h.Total())
	}

	t.Run("invalid workers", func(t *testing.T) {
		_, err := BuildParallel(context.Background(), m, 0)
		assert.True(t, errors.Is(err, parallel.ErrInvalidArgument))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := BuildParallel(ctx, m, 2)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestBins(t *testing.T) {
	var h Histogram
	h[0] = 1
	h[7] = 2
	h[8] = 4
	h[255] = 8

	tests := []struct {
		n        int
		expected []int
	}{
		{1, []int{15}},
		{2, []int{7, 8}},
		{32, append(append([]int{3, 4}, make([]int, 29)...), 8)},
		{0, []int{15}},
		{1000, h[:]},
	}

	for _, x := range tests {
		assert.Equal(t, x.expected, h.Bins(x.n), "n=%d", x.n)
	}

	// 30 is rounded down to 16
	assert.Len(t, h.Bins(30), 16)
}
