package parallel

import "fmt"

// WorkerError is returned when the work on one partition fails.
// The output of the whole run is discarded.
type WorkerError struct {
	Partition Partition
	Err       error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("partition %s: %s", e.Partition, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// PanicError holds the value recovered from a panicking worker.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}
