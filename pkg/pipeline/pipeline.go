package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

const (
	DefaultInputName = "execute"
	DefaultName      = "Pipe"
	SummaryLabel     = "summary"
)

// Pipeline is an immutable definition of entries. Every call to Execute or Run is an independent
// invocation with its own state, so a pipeline can be reused and run concurrently.
type Pipeline struct {
	entries    []Entry
	errorSink  ErrorSink
	traceSink  TraceSink
	inputName  string
	name       string
	logger     zerolog.Logger
	hooks      []model.PipelineOption
	info       *model.PipelineInfo
	forkLimit  int
	summary    bool
	strictSync bool
	timing     bool
}

// New creates a new pipeline.
func New(entries []Entry, opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		entries:   append([]Entry(nil), entries...),
		inputName: DefaultInputName,
		name:      DefaultName,
		logger:    defaultLogger(),
	}

	for _, opt := range opts {
		opt(pipe)
	}

	if pipe.name == "" {
		pipe.name = DefaultName
	}

	if pipe.inputName == "" {
		pipe.inputName = DefaultInputName
	}

	if pipe.errorSink == nil {
		pipe.errorSink = logErrorSink(pipe.logger)
	}

	if pipe.traceSink == nil {
		pipe.traceSink = logTraceSink(pipe.logger)
	}

	pipe.info = &model.PipelineInfo{
		ID:        uuid.NewString(),
		Name:      pipe.String(),
		InputName: pipe.inputName,
		Entries:   make([]*model.EntryInfo, len(pipe.entries)),
	}

	for i, entry := range pipe.entries {
		if entry == nil {
			return nil, errors.Wrapf(ErrUnknownEntryShape, "entry %d is nil", i)
		}

		err := entry.validate()
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}

		pipe.info.Entries[i] = entryInfo(pipe.info.ID, i, entry)
	}

	for _, opt := range pipe.hooks {
		err := opt.New(pipe.info)
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// Execute runs the pipeline with input and an optional seed state. It returns true when every entry
// succeeded. Failures are never returned, they are sent to the error sink.
func (p *Pipeline) Execute(ctx context.Context, input any, seed State) bool {
	_, err := p.Run(ctx, input, seed)

	return err == nil
}

// Run runs the pipeline like Execute, and also returns the final state and the *Failure sent to the
// error sink, if any. On failure the state holds the results of the entries that succeeded.
func (p *Pipeline) Run(ctx context.Context, input any, seed State) (State, error) {
	state, failure := newQueue(p).execute(ctx, input, seed)
	if failure != nil {
		return state, failure
	}

	return state, nil
}

// Info returns the layout of the pipeline.
func (p *Pipeline) Info() *model.PipelineInfo {
	return p.info
}

func (p *Pipeline) String() string {
	if p == nil {
		return "<nil>"
	}

	return "<" + p.name + ">"
}

var _ Executor = (*Pipeline)(nil)
