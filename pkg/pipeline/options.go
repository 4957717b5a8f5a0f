package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

type Option func(p *Pipeline)

// PipelineErrorSink sets the function receiving the failure of an invocation.
// It defaults to an error log line.
func PipelineErrorSink(sink ErrorSink) Option {
	return func(p *Pipeline) {
		p.errorSink = sink
	}
}

// PipelineTraceSink sets the function receiving trace entries and the summary.
// It defaults to a debug log line.
func PipelineTraceSink(sink TraceSink) Option {
	return func(p *Pipeline) {
		p.traceSink = sink
	}
}

// PipelineInputName sets the state key the input of an invocation is stored under.
func PipelineInputName(name string) Option {
	return func(p *Pipeline) {
		p.inputName = name
	}
}

// PipelineSummary sends the final state to the trace sink, labelled "summary".
func PipelineSummary() Option {
	return func(p *Pipeline) {
		p.summary = true
	}
}

// PipelineStrictSync makes a fork fail when any of its sub-pipeline runs fails.
func PipelineStrictSync() Option {
	return func(p *Pipeline) {
		p.strictSync = true
	}
}

// PipelineTiming logs the elapsed time of every invocation.
func PipelineTiming() Option {
	return func(p *Pipeline) {
		p.timing = true
	}
}

func PipelineName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

func PipelineLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// PipelineForkLimit caps the number of sub-pipeline runs a fork starts at once. 0 means no limit.
func PipelineForkLimit(limit int) Option {
	return func(p *Pipeline) {
		p.forkLimit = limit
	}
}

// PipelineHooks registers hooks observing the pipeline, such as measure.PipelineMeasure or drawer.PipelineDrawer.
func PipelineHooks(hooks ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}
