package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// matrix is the cross product of the arguments of a fork (rows) and its sub-pipelines (columns).
type matrix struct {
	pipes []Executor
	args  []any
	limit int
	log   zerolog.Logger
}

func newMatrix(pipes []Executor, args []any, limit int, log zerolog.Logger) *matrix {
	return &matrix{
		pipes: pipes,
		args:  args,
		limit: limit,
		log:   log,
	}
}

func (m *matrix) size() int {
	return len(m.args) * len(m.pipes)
}

// cell returns the sub-pipeline and the argument of the run at idx.
func (m *matrix) cell(idx int) (Executor, any) {
	return m.pipes[idx%len(m.pipes)], m.args[idx/len(m.pipes)]
}

// run starts every (sub-pipeline, argument) pair with the parent state and waits for all of them.
// It returns one result per pair, in cell order.
func (m *matrix) run(ctx context.Context, parent State) ([]bool, error) {
	if len(m.pipes) == 0 {
		return nil, errors.Wrap(ErrEmptyEntry, "matrix without sub-pipelines")
	}

	for i, pipe := range m.pipes {
		if pipe == nil {
			return nil, errors.Wrapf(ErrExecutorMustBeSet, "sub-pipeline %d", i)
		}
	}

	results := make([]bool, m.size())

	var errGrp errgroup.Group
	if m.limit > 0 {
		errGrp.SetLimit(m.limit)
	}

	for idx := range results {
		pipe, arg := m.cell(idx)

		errGrp.Go(func() error {
			results[idx] = m.launch(ctx, idx, pipe, arg, parent)

			return nil
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (m *matrix) launch(ctx context.Context, idx int, pipe Executor, arg any, parent State) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Err(errors.Wrapf(ErrExecutorPanicked, "%v", r)).
				Int("run", idx).
				Msg("sub-pipeline run failed")

			ok = false
		}
	}()

	return pipe.Execute(ctx, arg, parent)
}
