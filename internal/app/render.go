package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"codeberg.org/pixsplit/pixsplit/internal/timing"
	"codeberg.org/pixsplit/pixsplit/pkg/histogram"
)

const (
	histogramBins  = 32
	histogramWidth = 50
)

// printTimings writes the timing records as a table.
func printTimings(w io.Writer, records []timing.Record) {
	if len(records) == 0 {
		return
	}

	color.New(color.Bold).Fprintf(w, "%-14s %8s %12s\n", "STRATEGY", "WORKERS", "ELAPSED (ms)")
	for _, r := range records {
		fmt.Fprintf(w, "%-14s %8d ", r.Strategy, r.Workers)
		color.New(color.FgGreen).Fprintf(w, "%12d\n", r.ElapsedMs())
	}
}

// printHistogram writes the histogram as horizontal bars.
func printHistogram(w io.Writer, h histogram.Histogram) {
	bins := h.Bins(histogramBins)
	max := 0
	for _, v := range bins {
		if v > max {
			max = v
		}
	}

	size := histogram.Buckets / len(bins)
	c := color.New(color.FgCyan)
	for i, v := range bins {
		n := 0
		if max > 0 {
			n = v * histogramWidth / max
		}
		fmt.Fprintf(w, "%3d-%3d ", i*size, (i+1)*size-1)
		c.Fprint(w, strings.Repeat("#", n))
		fmt.Fprintf(w, " %d\n", v)
	}
}
