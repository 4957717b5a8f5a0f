package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrorSink receives the failure of an invocation.
type ErrorSink func(failure *Failure)

// TraceSink receives the payload of a trace entry, or the final state when the summary is enabled.
type TraceSink func(label string, payload map[string]any)

func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
}

func logErrorSink(logger zerolog.Logger) ErrorSink {
	return func(failure *Failure) {
		logger.Error().
			Err(failure.Err).
			Str("pipeline", failure.Pipeline).
			Str("invocation", failure.Invocation).
			Int("index", failure.Index).
			Str("entry", failure.Entry).
			Str("driver", failure.Driver).
			Msg("pipeline failed")
	}
}

func logTraceSink(logger zerolog.Logger) TraceSink {
	return func(label string, payload map[string]any) {
		logger.Debug().Fields(payload).Msg(label)
	}
}

var elapsedUnits = []struct {
	unit time.Duration
	name string
}{
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "µs"},
	{time.Nanosecond, "ns"},
}

// formatElapsed renders d with three decimals in the largest unit it exceeds.
func formatElapsed(d time.Duration) string {
	for _, u := range elapsedUnits {
		if d >= u.unit {
			return fmt.Sprintf("%.3f %s", float64(d)/float64(u.unit), u.name)
		}
	}

	return "0.000 ns"
}
