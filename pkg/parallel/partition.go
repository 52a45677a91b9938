package parallel

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a partition or worker count
// request cannot be satisfied.
var ErrInvalidArgument = errors.New("invalid argument")

// MaxWorkers is the highest worker count Split accepts.
const MaxWorkers = 1024

// Partition is a half-open range of rows [Start, End), relative to
// the top of an image.
type Partition struct {
	Start int
	End   int
}

// Len returns the number of rows in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Empty returns true when the partition has no row.
func (p Partition) Empty() bool {
	return p.End <= p.Start
}

func (p Partition) String() string {
	return fmt.Sprintf("[%d,%d)", p.Start, p.End)
}

// Split divides totalRows rows into exactly workers contiguous
// partitions. Every partition but the last one has totalRows/workers
// rows, the last one receives the remainder.
func Split(totalRows, workers int) ([]Partition, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be at least 1 (got %d)", ErrInvalidArgument, workers)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: worker count cannot exceed %d (got %d)", ErrInvalidArgument, MaxWorkers, workers)
	}
	if totalRows < 0 {
		return nil, fmt.Errorf("%w: row count cannot be negative (got %d)", ErrInvalidArgument, totalRows)
	}

	chunk := totalRows / workers
	res := make([]Partition, workers)
	for i := 0; i < workers-1; i++ {
		res[i] = Partition{i * chunk, (i + 1) * chunk}
	}
	res[workers-1] = Partition{(workers - 1) * chunk, totalRows}

	return res, nil
}
