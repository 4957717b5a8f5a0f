package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline"
)

type traceCall struct {
	label   string
	payload map[string]any
}

// sinks records what a pipeline sends to its error and trace sinks.
type sinks struct {
	mu       sync.Mutex
	failures []*pipeline.Failure
	traces   []traceCall
}

func (s *sinks) options() []pipeline.Option {
	return []pipeline.Option{
		pipeline.PipelineLogger(zerolog.Nop()),
		pipeline.PipelineErrorSink(func(failure *pipeline.Failure) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.failures = append(s.failures, failure)
		}),
		pipeline.PipelineTraceSink(func(label string, payload map[string]any) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.traces = append(s.traces, traceCall{label: label, payload: payload})
		}),
	}
}

func (s *sinks) allFailures() []*pipeline.Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*pipeline.Failure(nil), s.failures...)
}

func (s *sinks) allTraces() []traceCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]traceCall(nil), s.traces...)
}

// recorder collects values from concurrent callables.
type recorder struct {
	mu     sync.Mutex
	values []any
}

func (r *recorder) add(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]any(nil), r.values...)
}

func constant(name string, value any) pipeline.Callable {
	return pipeline.Call(name, func(context.Context, pipeline.State) (any, error) {
		return value, nil
	})
}

func failing(name string, err error) pipeline.Callable {
	return pipeline.Call(name, func(context.Context, pipeline.State) (any, error) {
		return nil, err
	})
}

func newPipeline(t *testing.T, entries []pipeline.Entry, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()

	pipe, err := pipeline.New(entries, opts...)
	require.NoError(t, err)

	return pipe
}
