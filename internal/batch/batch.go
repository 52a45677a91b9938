// Package batch runs a conversion request over a list of image files.
//
// A batch never stops on a failing file: the failure is logged and the
// next file is processed. One timing record covers the whole batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/shortuuid/v3"
	log "github.com/sirupsen/logrus"
	"github.com/thoas/go-funk"

	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/internal/timing"
	"codeberg.org/pixsplit/pixsplit/pkg/histogram"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
)

// Extensions lists the file extensions picked up by Inputs.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".ico"}

// Options are the batch options.
type Options struct {
	Request convert.Request

	// Format is the output format. When empty, the input format is
	// used if it can be encoded, JPEG otherwise.
	Format string
}

// Failure is a file that could not be processed.
type Failure struct {
	Input string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Input, f.Err)
}

// Result holds the outcome of a batch run.
type Result struct {
	ID       string
	Record   timing.Record
	Outputs  []string
	Failures []Failure
}

// Runner runs batches.
type Runner struct {
	Codec   img.Codec
	Service *convert.Service
	Log     *log.Entry

	// OnHistogram, when set, receives the histogram of every
	// converted file, when the request asks for one.
	OnHistogram func(input string, h histogram.Histogram)
}

// NewRunner creates a new Runner.
func NewRunner(codec img.Codec, service *convert.Service) *Runner {
	return &Runner{
		Codec:   codec,
		Service: service,
		Log:     log.NewEntry(log.StandardLogger()),
	}
}

// Run processes every input, in order, and saves the results into
// dest. It returns an error only when nothing could be attempted:
// invalid request or unusable destination.
func (r *Runner) Run(ctx context.Context, inputs []string, dest string, opts Options) (*Result, error) {
	if err := opts.Request.Validate(); err != nil {
		return nil, err
	}
	if err := createFolder(dest); err != nil {
		return nil, err
	}

	res := &Result{
		ID:       shortuuid.New(),
		Outputs:  []string{},
		Failures: []Failure{},
	}
	workers := opts.Request.Strategy.Workers(opts.Request.Workers)
	logEntry := r.Log.WithFields(log.Fields{
		"@id":      res.ID,
		"strategy": opts.Request.Strategy.String(),
		"workers":  workers,
	})
	logEntry.WithField("count", len(inputs)).Info("batch start")

	produced := map[string]bool{}
	stop := r.Service.Timings.Start(opts.Request.Strategy.String(), workers)
	for _, input := range inputs {
		output, renamed, err := r.process(ctx, input, dest, opts, produced)
		if err != nil {
			logEntry.WithField("input", input).WithError(err).Error("batch item failed")
			res.Failures = append(res.Failures, Failure{input, err})
			continue
		}
		if renamed {
			logEntry.WithField("input", input).WithField("output", output).Warn("output renamed")
		}
		logEntry.WithField("input", input).WithField("output", output).Debug("batch item done")
		res.Outputs = append(res.Outputs, output)
	}
	res.Record = stop()

	logEntry.WithFields(log.Fields{
		"done":       len(res.Outputs),
		"failed":     len(res.Failures),
		"elapsed_ms": res.Record.ElapsedMs(),
	}).Info("batch done")

	return res, nil
}

func (r *Runner) process(ctx context.Context, input, dest string, opts Options, produced map[string]bool) (string, bool, error) {
	src, format, err := img.Open(r.Codec, input)
	if err != nil {
		return "", false, err
	}

	m, h, err := r.Service.Apply(ctx, src, opts.Request)
	if err != nil {
		return "", false, err
	}

	if opts.Format != "" {
		format = opts.Format
	}
	output, renamed := uniqueOutputPath(dest, input, format, produced)
	if err = img.Save(r.Codec, m, output, format); err != nil {
		return "", false, err
	}
	produced[output] = true

	if h != nil && r.OnHistogram != nil {
		r.OnHistogram(input, *h)
	}
	return output, renamed, nil
}

// OutputPath returns the destination file of input in dest, with
// the extension of the given format.
func OutputPath(dest, input, format string) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dest, name+img.Extension(format))
}

// uniqueOutputPath returns OutputPath, unless a previous file of the
// same run already produced it. In that case the input extension is
// kept in the name (a.bmp.png) and a counter is added when needed.
func uniqueOutputPath(dest, input, format string, produced map[string]bool) (string, bool) {
	output := OutputPath(dest, input, format)
	if !produced[output] {
		return output, false
	}

	name := filepath.Base(input)
	output = filepath.Join(dest, name+img.Extension(format))
	for i := 2; produced[output]; i++ {
		output = filepath.Join(dest, fmt.Sprintf("%s-%d%s", name, i, img.Extension(format)))
	}
	return output, true
}

// Inputs returns the image files found in dir, sorted by name.
func Inputs(dir string) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	res := []string{}
	for _, x := range entries {
		if x.IsDir() {
			continue
		}
		if !funk.ContainsString(Extensions, strings.ToLower(filepath.Ext(x.Name()))) {
			continue
		}
		res = append(res, filepath.Join(dir, x.Name()))
	}
	sort.Strings(res)
	return res, nil
}

func createFolder(name string) error {
	stat, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(name, 0750); err != nil {
				return err
			}
		} else {
			return err
		}
	} else if !stat.IsDir() {
		return fmt.Errorf("'%s' is not a directory", name)
	}

	return nil
}
