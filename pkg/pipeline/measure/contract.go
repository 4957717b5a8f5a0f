package measure

import "time"

// Measure stores one metric per vertex of a pipeline: its entries, its start and its end.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

type Metric interface {
	// AddDuration records one run of an entry.
	AddDuration(elapsed time.Duration, failed bool)
	AVGDuration() time.Duration
	Total() int64
	Failures() int64
	// AddRuns records the results of the sub-pipeline runs of a fork.
	AddRuns(results []bool)
	Runs() (total, failed int64)
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
