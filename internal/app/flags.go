package app

import (
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/configs"
	"codeberg.org/pixsplit/pixsplit/internal/convert"
)

// requestFlags holds the command line flags describing
// a conversion request.
type requestFlags struct {
	strategy   string
	workers    int
	grayscale  bool
	brightness int
	histogram  bool
	format     string

	cmd *cobra.Command
}

func addRequestFlags(c *cobra.Command) *requestFlags {
	f := &requestFlags{cmd: c}
	fs := c.Flags()
	fs.StringVarP(&f.strategy, "strategy", "s", "nway",
		"Execution strategy (sequential, blocking, nonblocking, nway)")
	fs.IntVarP(&f.workers, "workers", "w", 0,
		"Number of workers for the nway strategy, up to 1024 (default from configuration)")
	fs.BoolVarP(&f.grayscale, "grayscale", "g", true, "Convert to grayscale")
	fs.IntVarP(&f.brightness, "brightness", "b", 0, "Brightness offset, from -255 to 255")
	fs.BoolVar(&f.histogram, "histogram", false, "Display the intensity histogram")
	fs.StringVarP(&f.format, "format", "f", "",
		"Output format (jpeg, png, gif, bmp); defaults to the input format")
	return f
}

// request returns the conversion request built from the flags.
func (f *requestFlags) request() (convert.Request, error) {
	s, err := convert.ParseStrategy(f.strategy)
	if err != nil {
		return convert.Request{}, err
	}

	req := convert.Request{
		Strategy:  s,
		Workers:   f.workers,
		Grayscale: f.grayscale,
		Histogram: f.histogram,
	}
	if req.Workers == 0 {
		req.Workers = configs.Config.Engine.Workers
	}
	if f.cmd != nil && f.cmd.Flags().Changed("brightness") {
		delta := f.brightness
		req.Brightness = &delta
	}

	return req, req.Validate()
}

// outputFormat returns the format to use for the output file.
func (f *requestFlags) outputFormat() string {
	if f.format != "" {
		return f.format
	}
	return configs.Config.Images.Format
}
