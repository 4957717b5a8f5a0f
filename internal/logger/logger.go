package logger

import (
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
	ErrInvalidOutput = errors.New("invalid log output")
)

var (
	validLevels  = []string{"trace", "debug", "info", "warn", "error"}
	validFormats = []string{FormatJSON, FormatConsole}
	validOutputs = []string{"stdout", "stderr"}
)

// Config contains logging configuration.
type Config struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	NoColor   bool   `mapstructure:"no_color"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = FormatConsole
	}

	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return errors.Wrapf(ErrInvalidLevel, "level must be one of %v (got: %s)", validLevels, c.Level)
	}

	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return errors.Wrapf(ErrInvalidFormat, "format must be one of %v (got: %s)", validFormats, c.Format)
	}

	if !slices.Contains(validOutputs, strings.ToLower(c.Output)) {
		return errors.Wrapf(ErrInvalidOutput, "output must be one of %v (got: %s)", validOutputs, c.Output)
	}

	return nil
}

// New creates a logger writing to the output of cfg.
func New(cfg Config) (zerolog.Logger, error) {
	cfg.ApplyDefaults()

	out := os.Stderr
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}

	return NewWithWriter(cfg, out)
}

// NewWithWriter creates a logger writing to wrt. The output of cfg is ignored.
// The level is set on the logger, the global zerolog level is left untouched.
func NewWithWriter(cfg Config, wrt io.Writer) (zerolog.Logger, error) {
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err != nil {
		return zerolog.Nop(), err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), errors.Wrap(ErrInvalidLevel, err.Error())
	}

	if strings.EqualFold(cfg.Format, FormatConsole) {
		wrt = zerolog.ConsoleWriter{
			Out:        wrt,
			NoColor:    cfg.NoColor,
			TimeFormat: time.TimeOnly,
		}
	}

	zl := zerolog.New(wrt).Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}

	return zl, nil
}
