package measure_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/measure"
)

func TestDefaultMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("step")
	assert.Same(t, mt, msr.AddMetric("step"))
	assert.Same(t, mt, msr.GetMetric("step"))
	assert.Nil(t, msr.GetMetric("missing"))

	assert.Equal(t, time.Duration(0), mt.AVGDuration())

	mt.AddDuration(2*time.Millisecond, false)
	mt.AddDuration(4*time.Millisecond, true)
	assert.Equal(t, 3*time.Millisecond, mt.AVGDuration())
	assert.Equal(t, int64(2), mt.Total())
	assert.Equal(t, int64(1), mt.Failures())

	mt.AddRuns([]bool{true, false, false})
	total, failed := mt.Runs()
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), failed)

	mt.SetTotalDuration(time.Second)
	assert.Equal(t, time.Second, mt.GetTotalDuration())
	assert.Len(t, msr.AllMetrics(), 1)
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	hook := measure.PipelineMeasure(msr)

	sub, err := pipeline.New([]pipeline.Entry{
		pipeline.Calls(pipeline.Call("check", func(_ context.Context, state pipeline.State) (any, error) {
			if state.Value(pipeline.DefaultInputName) == 2 {
				return nil, errors.New("two")
			}

			return true, nil
		})),
	}, pipeline.PipelineName("sub"), pipeline.PipelineLogger(zerolog.Nop()), pipeline.PipelineHooks(hook))
	require.NoError(t, err)

	pipe, err := pipeline.New([]pipeline.Entry{
		pipeline.Calls(pipeline.Call("values", func(context.Context, pipeline.State) (any, error) {
			return []int{1, 2, 3}, nil
		})),
		pipeline.Split(pipeline.Call("driver", func(_ context.Context, state pipeline.State) (any, error) {
			return state.Value("values"), nil
		}), sub),
	}, pipeline.PipelineName("main"), pipeline.PipelineLogger(zerolog.Nop()), pipeline.PipelineHooks(hook))
	require.NoError(t, err)

	assert.True(t, pipe.Execute(context.Background(), nil, pipeline.State{}))

	mainInfo, subInfo := pipe.Info(), sub.Info()
	all := msr.AllMetrics()

	for _, id := range []string{
		mainInfo.StartID(), mainInfo.EndID(), mainInfo.Entries[0].ID, mainInfo.Entries[1].ID,
		subInfo.StartID(), subInfo.EndID(), subInfo.Entries[0].ID,
	} {
		assert.Contains(t, all, id)
	}

	assert.Equal(t, int64(1), msr.GetMetric(mainInfo.EndID()).Total())
	assert.Equal(t, int64(0), msr.GetMetric(mainInfo.EndID()).Failures())
	assert.Positive(t, msr.GetMetric(mainInfo.EndID()).GetTotalDuration())

	runs, failed := msr.GetMetric(mainInfo.Entries[1].ID).Runs()
	assert.Equal(t, int64(3), runs)
	assert.Equal(t, int64(1), failed)

	assert.Equal(t, int64(3), msr.GetMetric(subInfo.Entries[0].ID).Total())
	assert.Equal(t, int64(1), msr.GetMetric(subInfo.Entries[0].ID).Failures())
	assert.Equal(t, int64(3), msr.GetMetric(subInfo.EndID()).Total())
	assert.Equal(t, int64(1), msr.GetMetric(subInfo.EndID()).Failures())
}

func TestPipelineMeasureSharedNames(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	hook := measure.PipelineMeasure(msr)

	sub, err := pipeline.New([]pipeline.Entry{
		pipeline.Calls(pipeline.Call("noop", func(context.Context, pipeline.State) (any, error) { return nil, nil })),
	}, pipeline.PipelineLogger(zerolog.Nop()), pipeline.PipelineHooks(hook))
	require.NoError(t, err)

	pipe, err := pipeline.New([]pipeline.Entry{
		pipeline.Split(pipeline.Call("driver", func(context.Context, pipeline.State) (any, error) {
			return []int{1, 2}, nil
		}), sub),
	}, pipeline.PipelineLogger(zerolog.Nop()), pipeline.PipelineHooks(hook))
	require.NoError(t, err)

	assert.True(t, pipe.Execute(context.Background(), nil, pipeline.State{}))

	assert.Equal(t, int64(1), msr.GetMetric(pipe.Info().Entries[0].ID).Total())
	assert.Equal(t, int64(2), msr.GetMetric(sub.Info().Entries[0].ID).Total())
	assert.Equal(t, int64(1), msr.GetMetric(pipe.Info().EndID()).Total())
	assert.Equal(t, int64(2), msr.GetMetric(sub.Info().EndID()).Total())

	labels := pipe.Info().Labels()
	assert.Equal(t, "<Pipe>[0]", labels[pipe.Info().Entries[0].ID])
	assert.Equal(t, "<Pipe>[0]", labels[sub.Info().Entries[0].ID])
	assert.Equal(t, "<Pipe> end", labels[sub.Info().EndID()])
}
