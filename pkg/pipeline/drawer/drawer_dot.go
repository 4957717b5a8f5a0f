package drawer

import (
	"fmt"
	"html"
	"io"
	"os"
	"sort"
	"sync"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-mixed-pipeline/internal/store"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/measure"
)

// DOTDrawer is a drawer that creates a DOT file with the pipeline graph.
type DOTDrawer struct {
	mu          sync.Mutex
	store       store.CustomStore[string, string]
	graph       graph.Graph[string, string]
	dotFileName string
	options     []func(*description)
}

// NewDOTDrawer creates a new DOT drawer writing to dotFileName.
func NewDOTDrawer(dotFileName string, options ...func(*description)) *DOTDrawer {
	vertices := store.NewMemoryStore[string, string]()

	return &DOTDrawer{
		dotFileName: dotFileName,
		store:       vertices,
		graph:       graph.NewWithStore(graph.StringHash, vertices, graph.Directed()),
		options:     options,
	}
}

// AddStep adds a vertex to the pipeline graph.
func (d *DOTDrawer) AddStep(name, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	options := []func(*graph.VertexProperties){}
	if label != "" {
		options = append(options, graph.VertexAttribute("label", label))
	}

	err := d.graph.AddVertex(name, options...)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between parent and children steps.
func (d *DOTDrawer) AddLink(parentName, childrenName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.graph.AddEdge(parentName, childrenName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw creates a DOT file with the pipeline graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}
	defer file.Close()

	err = d.Render(file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.dotFileName)
	}

	return nil
}

// Render writes the DOT description of the pipeline graph to wrt.
func (d *DOTDrawer) Render(wrt io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return dot(d.graph, wrt, d.options...)
}

// SetTotalTime sets the total time for the step.
func (d *DOTDrawer) SetTotalTime(stepName string, totalTime time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.store.UpdateVertex(stepName, graph.VertexAttribute("xlabel", totalTime.String()))
	if err != nil {
		return errors.Wrapf(err, "unable to update %s vertex", stepName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every vertex with its average duration and colours the links leading to it,
// from blue for the fastest entry to red for the slowest.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	allMetrics := msr.AllMetrics()
	allAvg := make(map[time.Duration]string)
	sortedAllAvg := []time.Duration{}

	for _, step := range allMetrics {
		avg := step.AVGDuration()
		if avg == 0 {
			continue
		}

		if _, ok := allAvg[avg]; ok {
			continue
		}

		allAvg[avg] = ""
		sortedAllAvg = append(sortedAllAvg, avg)
	}

	if len(sortedAllAvg) == 0 {
		return d.updateMetrics(allMetrics, allAvg)
	}

	sort.Slice(sortedAllAvg, func(i, j int) bool {
		return sortedAllAvg[i] > sortedAllAvg[j]
	})

	maxValue := sortedAllAvg[0]
	minValue := sortedAllAvg[len(sortedAllAvg)-1]

	for curr := range allAvg {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		allAvg[curr] = colour.ToHEX().String()
	}

	err := d.updateMetrics(allMetrics, allAvg)
	if err != nil {
		return errors.Wrap(err, "unable to update metrics")
	}

	return nil
}

func (d *DOTDrawer) updateMetrics(allMetrics map[string]measure.Metric, allAvg map[time.Duration]string) error {
	adjacencyMap, err := d.graph.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	for name, step := range allMetrics {
		if _, ok := adjacencyMap[name]; !ok {
			continue
		}

		label := ""
		if avg := step.AVGDuration(); avg != 0 {
			label = avg.String()
		}

		if failures := step.Failures(); failures > 0 {
			label += fmt.Sprintf(", failed: %d/%d", failures, step.Total())
		}

		if runs, failedRuns := step.Runs(); runs > 0 {
			label += fmt.Sprintf(", runs: %d (%d failed)", runs, failedRuns)
		}

		if step.GetTotalDuration() > 0 {
			label += ", end: " + step.GetTotalDuration().String()
		}

		if label != "" {
			err := d.store.UpdateVertex(name, graph.VertexAttribute("xlabel", label))
			if err != nil {
				return errors.Wrapf(err, "unable to update %s vertex", name)
			}
		}

		colour, ok := allAvg[step.AVGDuration()]
		if !ok || colour == "" {
			continue
		}

		for parent, adjacencies := range adjacencyMap {
			if _, ok := adjacencies[name]; !ok {
				continue
			}

			err := d.graph.UpdateEdge(parent, name,
				graph.EdgeAttribute("label", step.AVGDuration().String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", colour),
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot(gra graph.Graph[string, string], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(gra, options...)
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute sets a graph level attribute, such as rankdir.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// generateDOT describes the graph, vertices and links sorted by name.
func generateDOT(gra graph.Graph[string, string], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range sortedKeys(adjacencyMap) {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)
		sourceAttributes := make(map[string]string, len(sourceProperties.Attributes))

		title, ok := sourceProperties.Attributes["label"]
		if !ok {
			title = vertex
		}

		for k, v := range sourceProperties.Attributes {
			sourceAttributes[k] = v
		}

		if xlabel, ok := sourceAttributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, html.EscapeString(title), html.EscapeString(xlabel))

			delete(sourceAttributes, "xlabel")
			delete(sourceAttributes, "label")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceAttributes,
			HTMLAttributes:   htmlAttributes,
		})

		adjacencies := adjacencyMap[vertex]
		for _, adjacency := range sortedKeys(adjacencies) {
			edge := adjacencies[adjacency]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
