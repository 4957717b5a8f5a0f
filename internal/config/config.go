// Package config loads the configuration of the configgen command from flags, environment
// variables, an optional .env file and an optional YAML file.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/askiada/go-mixed-pipeline/internal/logger"
)

const EnvPrefix = "CONFIGGEN"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the configuration of the configgen command.
type Config struct {
	// Packages is the directory holding one sub-directory per package.
	Packages string `mapstructure:"packages" validate:"required,dir"`
	// Template is the file the package configurations are substituted into.
	Template string `mapstructure:"template" validate:"required,file"`
	// Output is the name of the file written in every package directory.
	Output    string `mapstructure:"output" validate:"required,excludesall=/\\"`
	Strict    bool   `mapstructure:"strict"`
	Summary   bool   `mapstructure:"summary"`
	Measure   bool   `mapstructure:"measure"`
	Timing    bool   `mapstructure:"timing"`
	Graph     string `mapstructure:"graph"`
	ForkLimit int    `mapstructure:"fork_limit" validate:"gte=0"`

	Log logger.Config `mapstructure:"log"`
}

// SetDefaults registers every key with viper, so that environment variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("packages", "packages")
	v.SetDefault("template", "config.template")
	v.SetDefault("output", "config.json")
	v.SetDefault("strict", false)
	v.SetDefault("summary", false)
	v.SetDefault("measure", false)
	v.SetDefault("timing", false)
	v.SetDefault("graph", "")
	v.SetDefault("fork_limit", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatConsole)
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", true)
}

// Load reads the configuration. envFile and configFile are optional: a missing .env file is
// ignored, a missing config file is an error.
func Load(v *viper.Viper, envFile, configFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "unable to load env file %s", envFile)
		}
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)

		err := v.ReadInConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", configFile)
		}
	}

	cfg := &Config{}

	err := v.Unmarshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal config")
	}

	cfg.Log.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags of cfg and its logging configuration.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.Wrap(err, "unable to validate config")
		}

		msgs := make([]string, len(fieldErrs))
		for i, fieldErr := range fieldErrs {
			msgs[i] = fieldErr.Namespace() + ": failed on " + fieldErr.Tag()
		}

		return errors.Wrap(ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	err = c.Log.Validate()
	if err != nil {
		return errors.Wrap(err, "log")
	}

	return nil
}
