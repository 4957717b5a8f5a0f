// Package pipeline provides a declarative engine chaining concurrent computations.
//
// A pipeline is an ordered list of entries. Entries run one after the other, each one fully resolved
// before the next starts, while the work inside one entry runs concurrently. There are three kinds of
// entries: a parallel call runs several callables at once, a fork runs a driver callable and then every
// sub-pipeline once per element of the driver result, and a trace sends values to the trace sink.
//
// Every callable is registered with a name. Its result is stored under that name in the state, a
// key-value accumulator passed to every callable of the next entries. The state of an invocation is
// private: the sub-pipelines of a fork receive a snapshot of it and never write back.
//
// Execute never returns an error. The first failing entry stops the invocation, the failure is
// sent to the error sink and Execute returns false. Run also returns the final state and the failure.
// With strict sync enabled, a fork also fails when any of its sub-pipeline runs fails.
//
// Example:
//
//	sub, _ := pipeline.New([]pipeline.Entry{pipeline.Calls(write)})
//	pipe, _ := pipeline.New([]pipeline.Entry{
//		pipeline.Calls(template, packages),
//		pipeline.Split(packagePaths, sub),
//		pipeline.Trace("packages", packagePaths),
//	}, pipeline.PipelineStrictSync())
//	ok := pipe.Execute(ctx, root, pipeline.State{})
package pipeline
