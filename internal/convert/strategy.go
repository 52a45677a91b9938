package convert

import (
	"fmt"
	"strings"

	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
)

// Strategy is an execution strategy of the engine.
type Strategy int

const (
	// Sequential runs on a single partition, without concurrency.
	Sequential Strategy = iota + 1

	// TwoWaySplit runs two workers writing into the same output.
	TwoWaySplit

	// NonBlocking runs two workers, each one rendering its own band.
	// Bands are merged once both are done.
	NonBlocking

	// NWaySplit runs a user chosen number of workers.
	NWaySplit
)

var strategyNames = map[Strategy]string{
	Sequential:  "sequential",
	TwoWaySplit: "blocking",
	NonBlocking: "nonblocking",
	NWaySplit:   "nway",
}

// Strategies lists all the strategies.
var Strategies = []interface{}{Sequential, TwoWaySplit, NonBlocking, NWaySplit}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Workers returns the number of partitions used by the strategy.
// Only NWaySplit uses the requested value.
func (s Strategy) Workers(requested int) int {
	switch s {
	case Sequential:
		return 1
	case TwoWaySplit, NonBlocking:
		return 2
	}
	return requested
}

// ParseStrategy returns the strategy for a name. A few aliases
// are accepted.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "single", "single-threaded":
		return Sequential, nil
	case "blocking", "two", "twoway":
		return TwoWaySplit, nil
	case "nonblocking", "non-blocking":
		return NonBlocking, nil
	case "nway", "n-way", "parallel":
		return NWaySplit, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", parallel.ErrInvalidArgument, name)
}
