// Package metrics provides a small, backend-agnostic abstraction for
// recording operational counters from the pipeline.
//
// The pipeline's tolerated-drop paths (page-filter discards, join misses)
// silently reduce row counts, so they are counted here even though nothing
// in the run aborts on them. A global, pluggable backend defaults to a
// no-op implementation; the Pushgateway backend lives in the prompush
// subpackage so the core stays decoupled from Prometheus.
package metrics

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// Flush pushes collected metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels) {}
func (nopBackend) Flush() error                       { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b != nil {
		backend = b
	}
}

// IncCounter delegates to the current backend.
func IncCounter(name string, delta float64, labels Labels) {
	backend.IncCounter(name, delta, labels)
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// Metric names used by the pipeline.
const (
	RecordsRead    = "songlake_records_read_total"    // labels: feed
	RecordsDropped = "songlake_records_dropped_total" // labels: reason
	RowsWritten    = "songlake_rows_written_total"    // labels: table
)

// CountRows is a convenience for the common per-table counter.
func CountRows(name, label, value string, n int) {
	IncCounter(name, float64(n), Labels{label: value})
}
