package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askiada/go-mixed-pipeline/internal/config"
	"github.com/askiada/go-mixed-pipeline/internal/configgen"
	"github.com/askiada/go-mixed-pipeline/internal/logger"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/drawer"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/measure"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline/model"
)

var errGenerationFailed = errors.New("configuration generation failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand(os.Stderr).ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand(errW io.Writer) *cobra.Command {
	v := viper.New()

	var envFile, configFile string

	cmd := &cobra.Command{
		Use:           "configgen",
		Short:         "Write the configuration file of every package from a shared template",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, envFile, configFile)
			if err != nil {
				fmt.Fprintln(errW, err)

				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}

			err = run(cmd.Context(), cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("configgen failed")
			}

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "optional .env file")
	flags.StringVar(&configFile, "config", "", "optional YAML configuration file")
	flags.String("packages", "packages", "directory holding one sub-directory per package")
	flags.String("template", "config.template", "template the package configurations are substituted into")
	flags.String("output", configgen.DefaultOutput, "name of the file written in every package directory")
	flags.Bool("strict", false, "fail when the generation of any package fails")
	flags.Bool("summary", false, "log the final state of the main pipeline")
	flags.Bool("measure", false, "log the duration of every entry")
	flags.Bool("timing", false, "log the duration of every invocation")
	flags.String("graph", "", "write the pipeline graph to this DOT file")
	flags.Int("fork-limit", 0, "maximum number of packages processed at once, 0 means no limit")
	flags.String("log-level", "info", "log level: trace, debug, info, warn or error")
	flags.String("log-format", logger.FormatConsole, "log format: console or json")

	for key, flag := range map[string]string{
		"packages":   "packages",
		"template":   "template",
		"output":     "output",
		"strict":     "strict",
		"summary":    "summary",
		"measure":    "measure",
		"timing":     "timing",
		"graph":      "graph",
		"fork_limit": "fork-limit",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}

	return cmd
}

// run generates the configuration files and returns an error when the main pipeline fails.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	opts := []pipeline.Option{pipeline.PipelineForkLimit(cfg.ForkLimit)}
	subOpts := []pipeline.Option{}
	hooks := []model.PipelineOption{}

	if cfg.Strict {
		opts = append(opts, pipeline.PipelineStrictSync())
	}

	if cfg.Summary {
		opts = append(opts, pipeline.PipelineSummary())
	}

	if cfg.Timing {
		opts = append(opts, pipeline.PipelineTiming())
		subOpts = append(subOpts, pipeline.PipelineTiming())
	}

	var msr *measure.DefaultMeasure
	if cfg.Measure || cfg.Graph != "" {
		msr = measure.NewDefaultMeasure()
		hook := measure.PipelineMeasure(msr)
		hooks = append(hooks, hook)
		subOpts = append(subOpts, pipeline.PipelineHooks(hook))
	}

	if cfg.Graph != "" {
		hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.Graph, drawer.GraphAttribute("rankdir", "LR")), msr))
	}

	opts = append(opts, pipeline.PipelineHooks(hooks...))

	pipe, err := configgen.New(cfg.Template, cfg.Output, log).Build(opts, subOpts)
	if err != nil {
		return err
	}

	ok := pipe.Execute(ctx, cfg.Packages, pipeline.State{})

	if cfg.Measure {
		logMeasure(log, msr, pipe.Info().Labels())
	}

	if !ok {
		return errGenerationFailed
	}

	return nil
}

// logMeasure logs the metrics sorted by vertex label.
func logMeasure(log zerolog.Logger, msr measure.Measure, labels map[string]string) {
	all := msr.AllMetrics()

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}

	label := func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}

		return id
	}

	sort.Slice(ids, func(i, j int) bool {
		return label(ids[i]) < label(ids[j])
	})

	for _, id := range ids {
		mt := all[id]
		if mt.Total() == 0 {
			continue
		}

		runs, failedRuns := mt.Runs()
		log.Info().
			Str("vertex", label(id)).
			Int64("calls", mt.Total()).
			Int64("failures", mt.Failures()).
			Dur("average", mt.AVGDuration()).
			Int64("runs", runs).
			Int64("failed_runs", failedRuns).
			Msg("measure")
	}
}
