package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/measure"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m      measure.Measure
	labels map[string]string
}

func (pd *pipelineDrawer) New(pipe *model.PipelineInfo) error {
	for id, label := range pipe.Labels() {
		pd.labels[id] = label
	}

	return pd.addPipeline(pipe)
}

// addPipeline draws start -> entries -> end, and links every fork to the start of its sub-pipelines.
func (pd *pipelineDrawer) addPipeline(pipe *model.PipelineInfo) error {
	err := pd.AddStep(pipe.StartID(), pd.labels[pipe.StartID()])
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(pipe.EndID(), pd.labels[pipe.EndID()])
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	parent := pipe.StartID()
	for _, entry := range pipe.Entries {
		err := pd.AddStep(entry.ID, pd.labels[entry.ID])
		if err != nil {
			return err
		}

		err = pd.AddLink(parent, entry.ID)
		if err != nil {
			return err
		}

		for _, sub := range entry.Subs {
			err := pd.addPipeline(sub)
			if err != nil {
				return errors.Wrapf(err, "unable to add sub-pipeline %s", sub.Name)
			}

			err = pd.AddLink(entry.ID, sub.StartID())
			if err != nil {
				return err
			}
		}

		parent = entry.ID
	}

	return pd.AddLink(parent, pipe.EndID())
}

func (pd *pipelineDrawer) OnEntryOutput(_ *model.PipelineInfo, _ *model.EntryInfo, _ time.Duration, _ error) error {
	return nil
}

func (pd *pipelineDrawer) OnForkOutput(_ *model.PipelineInfo, _ *model.EntryInfo, _ []bool, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish(pipe *model.PipelineInfo, _ bool, totalDuration time.Duration) error {
	err := pd.SetTotalTime(pipe.EndID(), totalDuration)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline after every invocation. When measure is not nil, the
// drawing includes its durations; the measure must also be registered with measure.PipelineMeasure.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure, labels: make(map[string]string)}
}
