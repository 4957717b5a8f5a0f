package drawer

import (
	"time"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a vertex to the pipeline drawer, displayed as label when not empty.
	// Adding an existing vertex is a no-op.
	AddStep(stepName, label string) error
	// AddLink adds a link between parent and children steps. Adding an existing link is a no-op.
	AddLink(parentStepName, childrenStepName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the total time for the step.
	SetTotalTime(stepName string, totalTime time.Duration) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
