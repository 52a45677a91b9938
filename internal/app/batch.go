package app

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/internal/batch"
	"codeberg.org/pixsplit/pixsplit/pkg/histogram"
)

var batchFlags *requestFlags

func init() {
	rootCmd.AddCommand(batchCmd)
	batchFlags = addRequestFlags(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <input-dir> <dest-dir>",
	Short: "Convert every image of a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatch,
}

func runBatch(c *cobra.Command, args []string) error {
	req, err := batchFlags.request()
	if err != nil {
		return err
	}

	inputs, err := batch.Inputs(args[0])
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	runner := batch.NewRunner(codec, service)
	if req.Histogram {
		runner.OnHistogram = func(input string, h histogram.Histogram) {
			fmt.Fprintln(out, input)
			printHistogram(out, h)
		}
	}

	res, err := runner.Run(context.Background(), inputs, args[1], batch.Options{
		Request: req,
		Format:  batchFlags.outputFormat(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d image(s) saved to %s\n", len(res.Outputs), args[1])
	if len(res.Failures) > 0 {
		red := color.New(color.FgRed)
		red.Fprintf(out, "%d failure(s)\n", len(res.Failures))
		for _, f := range res.Failures {
			red.Fprintf(out, "  %s\n", f.Error())
		}
	}
	printTimings(out, timings.Records())

	return nil
}
