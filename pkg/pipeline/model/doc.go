// Package model provides the data structures shared by the pipeline package and its hooks.
// It describes the static layout of a pipeline (its entries and their sub-pipelines)
// and the interface a pipeline option implements to observe invocations.
package model
