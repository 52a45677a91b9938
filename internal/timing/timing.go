package timing

import (
	"encoding/json"
	"sync"
	"time"
)

// Record is the duration of one convert or batch invocation.
type Record struct {
	Strategy string        `json:"strategy"`
	Workers  int           `json:"workers"`
	Elapsed  time.Duration `json:"-"`
}

// ElapsedMs returns the elapsed time in milliseconds.
func (r Record) ElapsedMs() int64 {
	return r.Elapsed.Milliseconds()
}

// MarshalJSON adds the elapsed time in milliseconds to the
// JSON representation.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		ElapsedMs int64 `json:"elapsed_ms"`
	}{alias(r), r.ElapsedMs()})
}

// Log is an append-only list of timing records. Records are kept
// in insertion order.
type Log struct {
	sync.Mutex

	records []Record
}

// NewLog creates a new, empty, Log.
func NewLog() *Log {
	return &Log{records: []Record{}}
}

// Append adds a record at the end of the log.
func (l *Log) Append(r Record) {
	l.Lock()
	defer l.Unlock()

	l.records = append(l.records, r)
}

// Start starts a stopwatch for the given strategy. The returned
// function stops it, appends the record to the log and returns it.
func (l *Log) Start(strategy string, workers int) func() Record {
	start := time.Now()
	return func() Record {
		r := Record{
			Strategy: strategy,
			Workers:  workers,
			Elapsed:  time.Since(start),
		}
		l.Append(r)
		return r
	}
}

// Records returns a copy of all the records.
func (l *Log) Records() []Record {
	l.Lock()
	defer l.Unlock()

	res := make([]Record, len(l.records))
	copy(res, l.records)
	return res
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.Lock()
	defer l.Unlock()

	return len(l.records)
}
