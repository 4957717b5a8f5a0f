package model

import "time"

// PipelineOption defines the interface for pipeline hooks.
//
// A pipeline is reusable and its invocations may run concurrently (forks run sub-pipelines
// in parallel), so implementations must be safe for concurrent use.
type PipelineOption interface {
	// New initialises the option with the layout of the pipeline. It runs once, when the pipeline is built.
	New(pipe *PipelineInfo) error

	pipelineEntryOption
	pipelineForkOption

	// Finish runs after every invocation, whether it succeeded or not.
	Finish(pipe *PipelineInfo, ok bool, totalDuration time.Duration) error
}

// pipelineEntryOption defines the interface for entry options at the pipeline level.
type pipelineEntryOption interface {
	// OnEntryOutput runs everytime an entry completes. err is the entry failure, if any.
	OnEntryOutput(pipe *PipelineInfo, entry *EntryInfo, computationDuration time.Duration, err error) error
}

// pipelineForkOption defines the interface for fork options at the pipeline level.
type pipelineForkOption interface {
	// OnForkOutput runs everytime the matrix of a fork completes, with one result per sub-pipeline run.
	OnForkOutput(pipe *PipelineInfo, entry *EntryInfo, results []bool, matrixDuration time.Duration) error
}
