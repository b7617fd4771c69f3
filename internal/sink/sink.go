package sink

import "errors"

// ErrSinkInit is a sentinel for sink-constructor failures (spec section
// 7's "sink-fatal" taxonomy item): auth/credential problems at startup
// that should disable the sink rather than abort the run.
var ErrSinkInit = errors.New("sink init error")

// Sink is the narrow contract spec section 6 describes for an output
// collaborator: write a header once, write rows as flows are exported,
// and flush (idempotently) at shutdown.
type Sink interface {
	// WriteHeader writes the column header. Called exactly once, before
	// the first WriteRow, with hasLabel indicating whether the label
	// column should be present.
	WriteHeader(hasLabel bool) error
	// WriteRow writes one exported flow. label is ignored when the sink
	// was told via WriteHeader that no label column is present.
	WriteRow(row Row, label string) error
	// Flush finalizes any buffered output. Idempotent: a second call is
	// a no-op that returns nil.
	Flush() error
}
