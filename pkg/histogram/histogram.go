// Package histogram computes 256 level intensity histograms.
//
// The intensity is read from the red channel. After a grayscale pass
// all channels are equal and this is the gray level. On a color image
// it gives a red channel histogram.
package histogram

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
	"codeberg.org/pixsplit/pixsplit/pkg/pixel"
)

// Buckets is the number of intensity levels.
const Buckets = 256

// Channel is the index of the channel carrying the intensity
// (0 is red).
const Channel = 0

// Histogram holds a pixel count for every intensity level.
type Histogram [Buckets]int

// Build scans every pixel of m.
func Build(m image.Image) Histogram {
	var h Histogram
	b := m.Bounds()
	h.scan(m, b.Min.Y, b.Max.Y)
	return h
}

// BuildParallel scans m using one partial histogram per row partition.
// The partial histograms are summed once all of them are done.
func BuildParallel(ctx context.Context, m image.Image, workers int) (Histogram, error) {
	var h Histogram
	b := m.Bounds()
	parts, err := parallel.Split(b.Dy(), workers)
	if err != nil {
		return h, err
	}

	partials := make([]Histogram, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		i, p := i, p
		if p.Empty() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &parallel.WorkerError{Partition: p, Err: err}
			}
			partials[i].scan(m, b.Min.Y+p.Start, b.Min.Y+p.End)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return h, err
	}

	for _, x := range partials {
		h.Add(x)
	}
	return h, nil
}

func (h *Histogram) scan(m image.Image, y0, y1 int) {
	b := m.Bounds()
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p, _ := pixel.At(m, x, y)
			h[p.R]++
		}
	}
}

// Add adds the counts of o to h.
func (h *Histogram) Add(o Histogram) {
	for i, v := range o {
		h[i] += v
	}
}

// Total returns the number of counted pixels.
func (h Histogram) Total() int {
	n := 0
	for _, v := range h {
		n += v
	}
	return n
}

// Bins groups the buckets into n bins of equal width. n must divide
// Buckets; other values are rounded down to the nearest divisor.
func (h Histogram) Bins(n int) []int {
	if n < 1 {
		n = 1
	}
	if n > Buckets {
		n = Buckets
	}
	for Buckets%n != 0 {
		n--
	}

	width := Buckets / n
	res := make([]int, n)
	for i, v := range h {
		res[i/width] += v
	}
	return res
}
