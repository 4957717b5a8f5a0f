package pipeline

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Classify turns a list of items into an entry, based on the shape of the items:
//
//   - callables only: a parallel call.
//   - a callable followed by executors: a fork.
//   - a label followed by zero or more callables: a trace.
//
// Any other shape fails with ErrUnknownEntryShape.
func Classify(items ...any) (Entry, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(ErrUnknownEntryShape, "empty entry")
	}

	head, tail := items[0], items[1:]

	if calls, ok := allCallables(items); ok {
		return Calls(calls...), nil
	}

	if driver, ok := head.(Callable); ok && len(tail) > 0 {
		if pipes, ok := allExecutors(tail); ok {
			return Split(driver, pipes...), nil
		}
	}

	if isLabel(head) {
		if calls, ok := allCallables(tail); ok || len(tail) == 0 {
			return Trace(fmt.Sprint(head), calls...), nil
		}
	}

	return nil, errors.Wrapf(ErrUnknownEntryShape, "[ %s ]", renderItems(items))
}

// Define classifies every row of a pipeline definition.
func Define(rows ...[]any) ([]Entry, error) {
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entry, err := Classify(row...)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}

		entries[i] = entry
	}

	return entries, nil
}

func allCallables(items []any) ([]Callable, bool) {
	if len(items) == 0 {
		return nil, false
	}

	calls := make([]Callable, len(items))
	for i, item := range items {
		call, ok := item.(Callable)
		if !ok {
			return nil, false
		}

		calls[i] = call
	}

	return calls, true
}

func allExecutors(items []any) ([]Executor, bool) {
	pipes := make([]Executor, len(items))
	for i, item := range items {
		pipe, ok := item.(Executor)
		if !ok || isNilExecutor(pipe) {
			return nil, false
		}

		pipes[i] = pipe
	}

	return pipes, true
}

func isLabel(item any) bool {
	switch item.(type) {
	case nil, Callable, Executor, Func:
		return false
	default:
		// unregistered functions have no name to be stored under
		return reflect.TypeOf(item).Kind() != reflect.Func
	}
}

func renderItems(items []any) string {
	rendered := make([]string, len(items))
	for i, item := range items {
		rendered[i] = renderValue(item)
	}

	return render(rendered...)
}
