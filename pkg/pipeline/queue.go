package pipeline

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// queue is one invocation of a pipeline. It owns the state of the invocation.
type queue struct {
	pipe  *Pipeline
	id    string
	log   zerolog.Logger
	state State
	start time.Time
}

func newQueue(pipe *Pipeline) *queue {
	id := uuid.NewString()

	return &queue{
		pipe: pipe,
		id:   id,
		log: pipe.logger.With().
			Str("pipeline", pipe.String()).
			Str("invocation", id).
			Logger(),
	}
}

// execute folds over the entries: each entry is fully resolved before the next one starts.
func (q *queue) execute(ctx context.Context, input any, seed State) (State, *Failure) {
	q.start = time.Now()
	q.state = seed.With(q.pipe.inputName, input)

	var failure *Failure

	for i, entry := range q.pipe.entries {
		failure = q.process(ctx, i, entry)
		if failure != nil {
			break
		}
	}

	failure = q.finish(failure)
	if failure != nil {
		q.pipe.errorSink(failure)
	} else if q.pipe.summary {
		q.pipe.traceSink(SummaryLabel, q.state.Map())
	}

	if q.pipe.timing {
		q.log.Debug().
			Bool("success", failure == nil).
			Msgf("executed in %s by %s", formatElapsed(time.Since(q.start)), q.pipe)
	}

	return q.state, failure
}

func (q *queue) finish(failure *Failure) *Failure {
	total := time.Since(q.start)
	for _, opt := range q.pipe.hooks {
		err := opt.Finish(q.pipe.info, failure == nil, total)
		if err != nil && failure == nil {
			failure = newFailure(q, -1, nil, errors.Wrap(err, "unable to finish pipeline option"))
		}
	}

	return failure
}

func (q *queue) process(ctx context.Context, index int, entry Entry) *Failure {
	err := ctx.Err()
	if err != nil {
		return newFailure(q, index, entry, errors.Wrap(err, "pipeline interrupted"))
	}

	info := q.pipe.info.Entries[index]
	startFn := time.Now()
	bindings, err := q.run(ctx, index, entry)
	endFn := time.Since(startFn)

	for _, opt := range q.pipe.hooks {
		hookErr := opt.OnEntryOutput(q.pipe.info, info, endFn, err)
		if hookErr != nil && err == nil {
			err = errors.Wrap(hookErr, "unable to run entry option")
		}
	}

	if err != nil {
		return newFailure(q, index, entry, err)
	}

	q.state = q.state.merge(bindings)

	return nil
}

func (q *queue) run(ctx context.Context, index int, entry Entry) ([]binding, error) {
	switch ent := entry.(type) {
	case *ParallelCall:
		return q.runCalls(ctx, ent.Calls)
	case *Fork:
		return q.runFork(ctx, index, ent)
	case *TracePoint:
		q.trace(ent)

		return nil, nil
	default:
		return nil, errors.Wrapf(ErrUnknownEntryShape, "[ %s ]", renderValue(entry))
	}
}

// runCalls runs every callable with the same state. The bindings follow the declaration order,
// whatever the completion order, and so does the reported error when several callables fail.
func (q *queue) runCalls(ctx context.Context, calls []Callable) ([]binding, error) {
	state := q.state
	bindings := make([]binding, len(calls))

	if len(calls) == 1 {
		out, err := calls[0].call(ctx, state)
		if err != nil {
			return nil, err
		}

		bindings[0] = binding{name: calls[0].Name, value: out}

		return bindings, nil
	}

	// no shared context: a failing callable does not cancel the others
	var errGrp errgroup.Group

	errs := make([]error, len(calls))
	for i, call := range calls {
		errGrp.Go(func() error {
			out, err := call.call(ctx, state)
			if err != nil {
				errs[i] = err

				return err
			}

			bindings[i] = binding{name: call.Name, value: out}

			return nil
		})
	}

	if errGrp.Wait() == nil {
		return bindings, nil
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return bindings, nil
}

func (q *queue) runFork(ctx context.Context, index int, fork *Fork) ([]binding, error) {
	out, err := fork.Driver.call(ctx, q.state)
	if err != nil {
		return nil, err
	}

	args, err := sequence(out)
	if err != nil {
		return nil, errors.Wrapf(err, "result of %s", fork.Driver.Name)
	}

	mtx := newMatrix(fork.Pipes, args, q.pipe.forkLimit, q.log)
	start := time.Now()

	results, err := mtx.run(ctx, q.state)
	if err != nil {
		return nil, errors.Wrap(err, "unable to run matrix")
	}

	elapsed := time.Since(start)
	for _, opt := range q.pipe.hooks {
		err := opt.OnForkOutput(q.pipe.info, q.pipe.info.Entries[index], results, elapsed)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run fork option")
		}
	}

	if q.pipe.strictSync {
		failed := countFailed(results)
		if failed > 0 {
			return nil, errors.Wrapf(ErrStrictSyncFailure, "%d of %d sub-pipeline runs failed", failed, len(results))
		}
	}

	return []binding{{name: fork.Driver.Name, value: out}}, nil
}

// trace sends the whole state, or the values of the listed callables, to the trace sink.
// Callables without a value yet are sent as is.
func (q *queue) trace(point *TracePoint) {
	if len(point.Calls) == 0 {
		q.pipe.traceSink(point.Label, q.state.Map())

		return
	}

	payload := make(map[string]any, len(point.Calls))
	for _, call := range point.Calls {
		val, ok := q.state.Get(call.Name)
		if !ok {
			payload[call.Name] = call

			continue
		}

		payload[call.Name] = val
	}

	q.pipe.traceSink(point.Label, payload)
}

// sequence converts a slice or an array into a list of arguments.
func sequence(out any) ([]any, error) {
	if args, ok := out.([]any); ok {
		return args, nil
	}

	val := reflect.ValueOf(out)
	if !val.IsValid() || (val.Kind() != reflect.Slice && val.Kind() != reflect.Array) {
		return nil, errors.Wrapf(ErrExpectedSequence, "got %T", out)
	}

	args := make([]any, val.Len())
	for i := range args {
		args[i] = val.Index(i).Interface()
	}

	return args, nil
}

func countFailed(results []bool) int {
	failed := 0

	for _, ok := range results {
		if !ok {
			failed++
		}
	}

	return failed
}
