package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
)

const menuInput = "input.jpg"

// menuChoices maps the menu numbers to a strategy and its output file.
var menuChoices = map[int]struct {
	strategy convert.Strategy
	output   string
}{
	1: {convert.TwoWaySplit, "output_blocking.jpg"},
	2: {convert.NonBlocking, "output_nonblocking.jpg"},
	3: {convert.Sequential, "output_sequential.jpg"},
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Convert input.jpg to grayscale, choosing the mode from a menu",
	Args:  cobra.NoArgs,
	RunE:  runMenu,
}

func runMenu(c *cobra.Command, _ []string) error {
	out := c.OutOrStdout()
	fmt.Fprintln(out, "Select mode:")
	fmt.Fprintln(out, "1 - Blocking")
	fmt.Fprintln(out, "2 - Non-blocking")
	fmt.Fprintln(out, "3 - Single-threaded")

	var choice int
	if _, err := fmt.Fscan(c.InOrStdin(), &choice); err != nil {
		return nil
	}
	x, ok := menuChoices[choice]
	if !ok {
		return nil
	}

	src, _, err := img.Open(codec, menuInput)
	if err != nil {
		return err
	}

	rsp, err := service.Convert(context.Background(), src, convert.Request{
		Strategy:  x.strategy,
		Grayscale: true,
	})
	if err != nil {
		return err
	}

	if err = img.Save(codec, rsp.Image, x.output, "jpeg"); err != nil {
		return err
	}
	fmt.Fprintf(out, "Image saved to %s\n", x.output)

	return nil
}
