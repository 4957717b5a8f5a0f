package model

import "fmt"

type EntryKind string

const (
	ParallelKind EntryKind = "parallel"
	ForkKind     EntryKind = "fork"
	TraceKind    EntryKind = "trace"
)

// EntryInfo describes one entry of a pipeline definition.
type EntryInfo struct {
	// ID is unique across pipelines, e.g. "<pipeline ID>[2]".
	ID    string
	Index int
	Kind  EntryKind
	// Label is the human-readable rendering of the entry: callable names or literal values, comma-joined.
	Label string
	Names []string
	// Subs lists the layout of the sub-pipelines of a fork, when known.
	Subs []*PipelineInfo
}

// PipelineInfo describes a pipeline definition.
type PipelineInfo struct {
	// ID is unique per pipeline, two pipelines sharing a name have different IDs.
	ID        string
	Name      string
	InputName string
	Entries   []*EntryInfo
}

// StartID is the identifier of the virtual vertex preceding the first entry.
func (p *PipelineInfo) StartID() string {
	return p.ID + " start"
}

// EndID is the identifier of the virtual vertex following the last entry.
func (p *PipelineInfo) EndID() string {
	return p.ID + " end"
}

// Labels maps the vertex identifiers of the pipeline and of its sub-pipelines to readable
// labels, built from the pipeline names: "<Pipe> start", "<Pipe>[0]", "<Pipe> end".
func (p *PipelineInfo) Labels() map[string]string {
	labels := make(map[string]string)
	p.addLabels(labels)

	return labels
}

func (p *PipelineInfo) addLabels(labels map[string]string) {
	if _, ok := labels[p.StartID()]; ok {
		return
	}

	labels[p.StartID()] = p.Name + " start"
	labels[p.EndID()] = p.Name + " end"

	for _, entry := range p.Entries {
		labels[entry.ID] = EntryID(p.Name, entry.Index)

		for _, sub := range entry.Subs {
			sub.addLabels(labels)
		}
	}
}

func EntryID(pipelineID string, index int) string {
	return fmt.Sprintf("%s[%d]", pipelineID, index)
}
