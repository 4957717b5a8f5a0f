package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

// Func is a function run by a pipeline. It receives the current state and its result is stored
// in the state under the name of the callable.
type Func func(ctx context.Context, state State) (any, error)

// Callable is a function registered with the key its result is stored under.
type Callable struct {
	Name string
	Fn   Func
}

// Call creates a callable.
func Call(name string, fn Func) Callable {
	return Callable{Name: name, Fn: fn}
}

func (c Callable) String() string {
	return c.Name
}

// MarshalJSON renders the callable by name, a trace payload can hold callables that did not run yet.
func (c Callable) MarshalJSON() ([]byte, error) {
	return json.Marshal("func " + c.Name)
}

func (c Callable) call(ctx context.Context, state State) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallError{Name: c.Name, Err: errors.Wrapf(ErrCallablePanicked, "%v", r)}
		}
	}()

	out, err = c.Fn(ctx, state)
	if err != nil {
		return nil, &CallError{Name: c.Name, Err: err}
	}

	return out, nil
}

// Executor is anything a fork can run for each of its arguments. *Pipeline is an Executor.
type Executor interface {
	Execute(ctx context.Context, input any, seed State) bool
}

// Entry is one item of a pipeline definition: a *ParallelCall, a *Fork or a *TracePoint.
type Entry interface {
	fmt.Stringer
	Kind() model.EntryKind
	validate() error
}

// ParallelCall runs all its callables concurrently with the same state.
type ParallelCall struct {
	Calls []Callable
}

// Fork runs its driver, then every sub-pipeline once per element of the driver result.
type Fork struct {
	Driver Callable
	Pipes  []Executor
}

// TracePoint sends the state, or the values of the listed callables, to the trace sink.
type TracePoint struct {
	Label string
	Calls []Callable
}

// Calls creates a parallel call entry.
func Calls(calls ...Callable) Entry {
	return &ParallelCall{Calls: calls}
}

// Split creates a fork entry.
func Split(driver Callable, pipes ...Executor) Entry {
	return &Fork{Driver: driver, Pipes: pipes}
}

// Trace creates a trace entry.
func Trace(label string, calls ...Callable) Entry {
	return &TracePoint{Label: label, Calls: calls}
}

func (e *ParallelCall) Kind() model.EntryKind { return model.ParallelKind }
func (e *Fork) Kind() model.EntryKind         { return model.ForkKind }
func (e *TracePoint) Kind() model.EntryKind   { return model.TraceKind }

func (e *ParallelCall) String() string {
	return render(callNames(e.Calls)...)
}

func (e *Fork) String() string {
	items := []string{e.Driver.Name}
	for _, pipe := range e.Pipes {
		items = append(items, renderValue(pipe))
	}

	return render(items...)
}

func (e *TracePoint) String() string {
	return render(append([]string{fmt.Sprintf("%q", e.Label)}, callNames(e.Calls)...)...)
}

func (e *ParallelCall) validate() error {
	if len(e.Calls) == 0 {
		return errors.Wrap(ErrEmptyEntry, "parallel call without callables")
	}

	return validateCalls(e.Calls)
}

func (e *Fork) validate() error {
	if len(e.Pipes) == 0 {
		return errors.Wrapf(ErrEmptyEntry, "fork %s without sub-pipelines", e.Driver.Name)
	}

	for i, pipe := range e.Pipes {
		if isNilExecutor(pipe) {
			return errors.Wrapf(ErrExecutorMustBeSet, "sub-pipeline %d of fork %s", i, e.Driver.Name)
		}
	}

	return validateCalls([]Callable{e.Driver})
}

// isNilExecutor also catches a nil pointer held by the interface, such as a nil *Pipeline.
func isNilExecutor(pipe Executor) bool {
	if pipe == nil {
		return true
	}

	val := reflect.ValueOf(pipe)

	return val.Kind() == reflect.Pointer && val.IsNil()
}

func (e *TracePoint) validate() error {
	return validateCalls(e.Calls)
}

func validateCalls(calls []Callable) error {
	seen := make(map[string]struct{}, len(calls))
	for i, call := range calls {
		if call.Name == "" {
			return errors.Wrapf(ErrUnnamedCallable, "callable %d", i)
		}

		if call.Fn == nil {
			return errors.Wrapf(ErrCallableMustBeSet, "callable %s", call.Name)
		}

		if _, ok := seen[call.Name]; ok {
			return errors.Wrapf(ErrDuplicateName, "callable %s", call.Name)
		}

		seen[call.Name] = struct{}{}
	}

	return nil
}

func callNames(calls []Callable) []string {
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Name
	}

	return names
}

func render(items ...string) string {
	return strings.Join(items, ", ")
}

// renderValue renders one item of a definition: callables by name, anything else as a quoted literal.
func renderValue(item any) string {
	switch val := item.(type) {
	case Callable:
		if val.Name == "" {
			return "func"
		}

		return val.Name
	case *Pipeline:
		return val.String()
	case nil:
		return `"nil"`
	case Func:
		return "func"
	default:
		if _, ok := val.(Executor); ok {
			return fmt.Sprintf("%T", val)
		}

		if reflect.TypeOf(val).Kind() == reflect.Func {
			return "func"
		}

		return fmt.Sprintf("%q", fmt.Sprint(val))
	}
}

// entryInfo describes the layout of entry for the hooks.
func entryInfo(pipeID string, index int, entry Entry) *model.EntryInfo {
	info := &model.EntryInfo{
		ID:    model.EntryID(pipeID, index),
		Index: index,
		Kind:  entry.Kind(),
		Label: entry.String(),
	}

	switch ent := entry.(type) {
	case *ParallelCall:
		info.Names = callNames(ent.Calls)
	case *Fork:
		info.Names = []string{ent.Driver.Name}

		for _, pipe := range ent.Pipes {
			if sub, ok := pipe.(*Pipeline); ok {
				info.Subs = append(info.Subs, sub.info)
			}
		}
	case *TracePoint:
		info.Names = callNames(ent.Calls)
	}

	return info
}
