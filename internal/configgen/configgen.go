// Package configgen writes the configuration file of every package found under a directory,
// by substituting the values of each package's config.yaml into a shared template.
//
// The work is split into two pipelines. The main one reads the template and lists the
// packages once, then forks one run of the package pipeline per package directory:
//
//	[ template, packages ] -> [ packagePath, <package> ] -> [ "packages", packagePath ]
//
// The package pipeline receives the package directory as its input:
//
//	[ deleteConfigFile, packageConfig ] -> configOutput -> writeConfig -> displaySuccess
package configgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-mixed-pipeline/pkg/pipeline"
)

const (
	// ConfigName is the file holding the values of a package.
	ConfigName = "config.yaml"
	// Marker prefixes the keys of a package configuration in the template.
	Marker = "$config_"
	// DefaultOutput is the name of the file written in every package directory.
	DefaultOutput = "config.json"

	packagesInput = "root"
	packageInput  = "packagePath"
)

var ErrMissingName = errors.New("configuration output has no name")

// Generator holds the callables of the configgen pipelines.
type Generator struct {
	templatePath string
	output       string
	log          zerolog.Logger
}

// New creates a generator reading the template at templatePath and writing output in every
// package directory.
func New(templatePath, output string, log zerolog.Logger) *Generator {
	if output == "" {
		output = DefaultOutput
	}

	return &Generator{
		templatePath: templatePath,
		output:       output,
		log:          log,
	}
}

// Build creates the main pipeline. Its input is the directory holding the packages. opts apply
// to the main pipeline, subOpts to the package pipeline.
func (g *Generator) Build(opts, subOpts []pipeline.Option) (*pipeline.Pipeline, error) {
	process, err := pipeline.New([]pipeline.Entry{
		pipeline.Calls(g.deleteConfigFile(), g.packageConfig()),
		pipeline.Calls(g.configOutput()),
		pipeline.Calls(g.writeConfig()),
		pipeline.Calls(g.displaySuccess()),
	}, append([]pipeline.Option{
		pipeline.PipelineName("package"),
		pipeline.PipelineInputName(packageInput),
		pipeline.PipelineLogger(g.log),
	}, subOpts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create package pipeline")
	}

	packagePath := g.packagePath()

	pipe, err := pipeline.New([]pipeline.Entry{
		pipeline.Calls(g.template(), g.packages()),
		pipeline.Split(packagePath, process),
		pipeline.Trace("packages", packagePath),
	}, append([]pipeline.Option{
		pipeline.PipelineName("configgen"),
		pipeline.PipelineInputName(packagesInput),
		pipeline.PipelineLogger(g.log),
	}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create main pipeline")
	}

	return pipe, nil
}

func (g *Generator) template() pipeline.Callable {
	return pipeline.Call("template", func(context.Context, pipeline.State) (any, error) {
		content, err := os.ReadFile(g.templatePath)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read template %s", g.templatePath)
		}

		return string(content), nil
	})
}

func (g *Generator) packages() pipeline.Callable {
	return pipeline.Call("packages", func(_ context.Context, state pipeline.State) (any, error) {
		root, err := pipeline.Lookup[string](state, packagesInput)
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read directory %s", root)
		}

		return entries, nil
	})
}

// packagePath keeps the directories listed by packages.
func (g *Generator) packagePath() pipeline.Callable {
	return pipeline.Call("packagePath", func(_ context.Context, state pipeline.State) (any, error) {
		root, err := pipeline.Lookup[string](state, packagesInput)
		if err != nil {
			return nil, err
		}

		entries, err := pipeline.Lookup[[]os.DirEntry](state, "packages")
		if err != nil {
			return nil, err
		}

		paths := []string{}
		for _, entry := range entries {
			if entry.IsDir() {
				paths = append(paths, filepath.Join(root, entry.Name()))
			}
		}

		return paths, nil
	})
}

// deleteConfigFile removes the output of a previous run, a missing file is not an error.
func (g *Generator) deleteConfigFile() pipeline.Callable {
	return pipeline.Call("deleteConfigFile", func(_ context.Context, state pipeline.State) (any, error) {
		dir, err := pipeline.Lookup[string](state, packageInput)
		if err != nil {
			return nil, err
		}

		err = os.Remove(filepath.Join(dir, g.output))
		if err != nil {
			g.log.Debug().Err(err).Str("package", dir).Msg("no previous output removed")

			return false, nil
		}

		return true, nil
	})
}

func (g *Generator) packageConfig() pipeline.Callable {
	return pipeline.Call("packageConfig", func(_ context.Context, state pipeline.State) (any, error) {
		dir, err := pipeline.Lookup[string](state, packageInput)
		if err != nil {
			return nil, err
		}

		file := filepath.Join(dir, ConfigName)

		content, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", file)
		}

		values := map[string]any{}

		err = yaml.Unmarshal(content, &values)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decode %s", file)
		}

		return values, nil
	})
}

func (g *Generator) configOutput() pipeline.Callable {
	return pipeline.Call("configOutput", func(_ context.Context, state pipeline.State) (any, error) {
		tpl, err := pipeline.Lookup[string](state, "template")
		if err != nil {
			return nil, err
		}

		values, err := pipeline.Lookup[map[string]any](state, "packageConfig")
		if err != nil {
			return nil, err
		}

		return Substitute(tpl, values), nil
	})
}

func (g *Generator) writeConfig() pipeline.Callable {
	return pipeline.Call("writeConfig", func(_ context.Context, state pipeline.State) (any, error) {
		dir, err := pipeline.Lookup[string](state, packageInput)
		if err != nil {
			return nil, err
		}

		out, err := pipeline.Lookup[string](state, "configOutput")
		if err != nil {
			return nil, err
		}

		file := filepath.Join(dir, g.output)

		err = os.WriteFile(file, []byte(out), 0o644) //nolint:gosec // generated configuration is not secret
		if err != nil {
			return nil, errors.Wrapf(err, "unable to write %s", file)
		}

		return file, nil
	})
}

func (g *Generator) displaySuccess() pipeline.Callable {
	return pipeline.Call("displaySuccess", func(_ context.Context, state pipeline.State) (any, error) {
		out, err := pipeline.Lookup[string](state, "configOutput")
		if err != nil {
			return nil, err
		}

		var written struct {
			Name string `json:"name"`
		}

		err = json.Unmarshal([]byte(out), &written)
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode configuration output")
		}

		if written.Name == "" {
			return nil, ErrMissingName
		}

		g.log.Info().Msgf("%s's %s successfully written!", written.Name, g.output)

		return written.Name, nil
	})
}

// Substitute replaces every Marker+key of tpl with its value. Longer keys are replaced first so
// that a key never replaces the prefix of another one.
func Substitute(tpl string, values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}

		return keys[i] < keys[j]
	})

	for _, key := range keys {
		tpl = strings.ReplaceAll(tpl, Marker+key, fmt.Sprint(values[key]))
	}

	return tpl
}
