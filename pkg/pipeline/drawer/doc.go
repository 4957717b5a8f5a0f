// Package drawer renders the layout of a pipeline, and optionally its measures, as a Graphviz DOT graph.
package drawer
