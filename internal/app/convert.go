package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/pkg/img"
)

var convertFlags *requestFlags

func init() {
	rootCmd.AddCommand(convertCmd)
	convertFlags = addRequestFlags(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output]",
	Short: "Convert one image",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

func runConvert(c *cobra.Command, args []string) error {
	req, err := convertFlags.request()
	if err != nil {
		return err
	}

	src, format, err := img.Open(codec, args[0])
	if err != nil {
		return err
	}
	if f := convertFlags.outputFormat(); f != "" {
		format = f
	}

	output := "output_" + req.Strategy.String() + img.Extension(format)
	if len(args) > 1 {
		output = args[1]
		if f := img.FormatFromPath(output); f != "" && convertFlags.format == "" {
			format = f
		}
	}

	rsp, err := service.Convert(context.Background(), src, req)
	if err != nil {
		return err
	}

	if err = img.Save(codec, rsp.Image, output, format); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"input":      args[0],
		"output":     output,
		"strategy":   req.Strategy.String(),
		"workers":    rsp.Workers,
		"elapsed_ms": rsp.ElapsedMs(),
	}).Info("image converted")

	out := c.OutOrStdout()
	fmt.Fprintf(out, "Image saved to %s\n", output)
	if rsp.Histogram != nil {
		printHistogram(out, *rsp.Histogram)
	}
	printTimings(out, timings.Records())

	return nil
}
