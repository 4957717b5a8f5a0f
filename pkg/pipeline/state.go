package pipeline

import (
	"sort"

	"github.com/pkg/errors"
)

// State is the accumulator of one invocation: the last value produced by every callable, keyed by its name.
//
// A State is never modified in place. Every merge builds a new one, which is why a snapshot can be
// shared with the sub-pipelines of a fork without any lock.
type State struct {
	values map[string]any
}

type binding struct {
	name  string
	value any
}

// NewState creates a state holding a copy of values.
func NewState(values map[string]any) State {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}

	return State{values: copied}
}

// Get returns the value stored under key.
func (s State) Get(key string) (any, bool) {
	v, ok := s.values[key]

	return v, ok
}

// Value returns the value stored under key, or nil.
func (s State) Value(key string) any {
	return s.values[key]
}

func (s State) Len() int {
	return len(s.values)
}

// Keys returns the sorted keys of the state.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Map returns a copy of the state content.
func (s State) Map() map[string]any {
	return NewState(s.values).values
}

// With returns a copy of the state with key set to value.
func (s State) With(key string, value any) State {
	return s.merge([]binding{{name: key, value: value}})
}

// merge applies bindings in order, later bindings overwrite earlier ones.
func (s State) merge(bindings []binding) State {
	values := make(map[string]any, len(s.values)+len(bindings))
	for k, v := range s.values {
		values[k] = v
	}

	for _, b := range bindings {
		values[b.name] = b.value
	}

	return State{values: values}
}

// Lookup reads a typed value from the state.
func Lookup[T any](state State, key string) (T, error) {
	var zero T

	raw, ok := state.Get(key)
	if !ok {
		return zero, errors.Wrapf(ErrStateKeyNotFound, "key %q", key)
	}

	val, ok := raw.(T)
	if !ok {
		return zero, errors.Wrapf(ErrStateKeyType, "key %q: expected %T, got %T", key, zero, raw)
	}

	return val, nil
}
