package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownEntryShape = errors.New("unknown entry shape")
	ErrExpectedSequence  = errors.New("sequence expected")
	ErrStrictSyncFailure = errors.New("process failed")
	ErrEmptyEntry        = errors.New("entry must not be empty")
	ErrUnnamedCallable   = errors.New("callable must have a name")
	ErrCallableMustBeSet = errors.New("callable function must be set")
	ErrExecutorMustBeSet = errors.New("sub-pipeline must be set")
	ErrDuplicateName     = errors.New("duplicate callable name in entry")
	ErrCallablePanicked  = errors.New("callable panicked")
	ErrExecutorPanicked  = errors.New("sub-pipeline panicked")
	ErrStateKeyNotFound  = errors.New("state key not found")
	ErrStateKeyType      = errors.New("state key has unexpected type")
)

// CallError is returned when a callable fails. Name is the key the callable is registered with.
type CallError struct {
	Name string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Failure describes why an invocation stopped. It is what the error sink receives.
type Failure struct {
	// Pipeline is the display name of the pipeline, e.g. "<Pipe>".
	Pipeline   string
	Invocation string
	// Index is the position of the offending entry, -1 when no entry is involved.
	Index int
	// Entry is the rendering of the offending entry.
	Entry string
	// Driver is the name of the callable driving the entry: the failing member of a parallel call,
	// the driver of a fork or the label of a trace.
	Driver string
	Err    error
}

func (f *Failure) Error() string {
	if f.Index < 0 {
		return fmt.Sprintf("%v in %s", f.Err, f.Pipeline)
	}

	return fmt.Sprintf("%v in entry [ %s ] of %s", f.Err, f.Entry, f.Pipeline)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(q *queue, index int, entry Entry, err error) *Failure {
	failure := &Failure{
		Pipeline:   q.pipe.String(),
		Invocation: q.id,
		Index:      index,
		Err:        err,
	}

	if entry == nil {
		return failure
	}

	failure.Entry = entry.String()
	failure.Driver = driverName(entry)

	var callErr *CallError
	if errors.As(err, &callErr) {
		failure.Driver = callErr.Name
	}

	return failure
}

func driverName(entry Entry) string {
	switch ent := entry.(type) {
	case *ParallelCall:
		if len(ent.Calls) > 0 {
			return ent.Calls[0].Name
		}
	case *Fork:
		return ent.Driver.Name
	case *TracePoint:
		return ent.Label
	}

	return ""
}
