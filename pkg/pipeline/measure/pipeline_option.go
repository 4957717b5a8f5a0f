package measure

import (
	"time"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New(pipe *model.PipelineInfo) error {
	pm.AddMetric(pipe.StartID())
	pm.AddMetric(pipe.EndID())

	for _, entry := range pipe.Entries {
		pm.AddMetric(entry.ID)
	}

	return nil
}

func (pm *pipelineMeasure) OnEntryOutput(_ *model.PipelineInfo, entry *model.EntryInfo, computationDuration time.Duration, err error) error {
	mt := pm.GetMetric(entry.ID)
	if mt == nil {
		mt = pm.AddMetric(entry.ID)
	}

	mt.AddDuration(computationDuration, err != nil)

	return nil
}

func (pm *pipelineMeasure) OnForkOutput(_ *model.PipelineInfo, entry *model.EntryInfo, results []bool, _ time.Duration) error {
	mt := pm.GetMetric(entry.ID)
	if mt == nil {
		mt = pm.AddMetric(entry.ID)
	}

	mt.AddRuns(results)

	return nil
}

func (pm *pipelineMeasure) Finish(pipe *model.PipelineInfo, ok bool, totalDuration time.Duration) error {
	mt := pm.GetMetric(pipe.EndID())
	if mt == nil {
		mt = pm.AddMetric(pipe.EndID())
	}

	mt.AddDuration(totalDuration, !ok)
	mt.SetTotalDuration(totalDuration)

	return nil
}

// PipelineMeasure records the duration and the outcome of every entry and invocation into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
