package configgen_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mixed-pipeline/internal/configgen"
	"github.com/askiada/go-mixed-pipeline/pkg/pipeline"
)

const template = `{"name": "$config_name", "version": "$config_version", "full": "$config_name_full"}`

type fixture struct {
	root     string
	template string
}

func newFixture(t *testing.T, packages map[string]string) fixture {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "packages")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("not a package"), 0o600))

	for name, cfg := range packages {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))

		if cfg != "" {
			require.NoError(t, os.WriteFile(filepath.Join(root, name, configgen.ConfigName), []byte(cfg), 0o600))
		}
	}

	tpl := filepath.Join(dir, "config.template")
	require.NoError(t, os.WriteFile(tpl, []byte(template), 0o600))

	return fixture{root: root, template: tpl}
}

type failures struct {
	mu   sync.Mutex
	main []*pipeline.Failure
	sub  []*pipeline.Failure
}

func (f *failures) options() ([]pipeline.Option, []pipeline.Option) {
	record := func(dst *[]*pipeline.Failure) pipeline.Option {
		return pipeline.PipelineErrorSink(func(failure *pipeline.Failure) {
			f.mu.Lock()
			defer f.mu.Unlock()
			*dst = append(*dst, failure)
		})
	}

	return []pipeline.Option{record(&f.main)}, []pipeline.Option{record(&f.sub)}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, map[string]string{
		"alpha": "name: alpha\nversion: 1.2.0\nname_full: Alpha package\n",
		"beta":  "name: beta\nversion: 2\nname_full: Beta package\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(fix.root, "alpha", configgen.DefaultOutput), []byte("stale"), 0o600))

	buf := &bytes.Buffer{}
	var traced map[string]any

	opts, subOpts := (&failures{}).options()
	opts = append(opts, pipeline.PipelineStrictSync(), pipeline.PipelineTraceSink(func(label string, payload map[string]any) {
		if label == "packages" {
			traced = payload
		}
	}))

	pipe, err := configgen.New(fix.template, "", zerolog.New(zerolog.SyncWriter(buf))).Build(opts, subOpts)
	require.NoError(t, err)

	state, err := pipe.Run(context.Background(), fix.root, pipeline.State{})
	require.NoError(t, err)

	expectedPaths := []string{filepath.Join(fix.root, "alpha"), filepath.Join(fix.root, "beta")}
	assert.Equal(t, expectedPaths, state.Value("packagePath"))
	assert.Equal(t, map[string]any{"packagePath": expectedPaths}, traced)

	alpha, err := os.ReadFile(filepath.Join(fix.root, "alpha", configgen.DefaultOutput))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "alpha", "version": "1.2.0", "full": "Alpha package"}`, string(alpha))

	beta, err := os.ReadFile(filepath.Join(fix.root, "beta", configgen.DefaultOutput))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "beta", "version": "2", "full": "Beta package"}`, string(beta))

	assert.Contains(t, buf.String(), "alpha's config.json successfully written!")
	assert.Contains(t, buf.String(), "beta's config.json successfully written!")
}

func TestGenerateMissingConfig(t *testing.T) {
	t.Parallel()

	for name, strict := range map[string]bool{"strict": true, "lenient": false} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fix := newFixture(t, map[string]string{
				"alpha": "name: alpha\nversion: 1\nname_full: Alpha\n",
				"empty": "",
			})

			fails := &failures{}
			opts, subOpts := fails.options()

			if strict {
				opts = append(opts, pipeline.PipelineStrictSync())
			}

			pipe, err := configgen.New(fix.template, "settings.json", zerolog.Nop()).Build(opts, subOpts)
			require.NoError(t, err)

			assert.Equal(t, !strict, pipe.Execute(context.Background(), fix.root, pipeline.State{}))
			assert.FileExists(t, filepath.Join(fix.root, "alpha", "settings.json"))
			assert.NoFileExists(t, filepath.Join(fix.root, "empty", "settings.json"))

			require.Len(t, fails.sub, 1)
			assert.Equal(t, "packageConfig", fails.sub[0].Driver)
			assert.ErrorIs(t, fails.sub[0], os.ErrNotExist)

			if strict {
				require.Len(t, fails.main, 1)
				assert.ErrorIs(t, fails.main[0], pipeline.ErrStrictSyncFailure)
			} else {
				assert.Empty(t, fails.main)
			}
		})
	}
}

func TestGenerateMissingRoot(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, nil)
	fails := &failures{}
	opts, subOpts := fails.options()

	pipe, err := configgen.New(fix.template, "", zerolog.Nop()).Build(opts, subOpts)
	require.NoError(t, err)

	assert.False(t, pipe.Execute(context.Background(), filepath.Join(fix.root, "missing"), pipeline.State{}))
	require.Len(t, fails.main, 1)
	assert.Equal(t, "packages", fails.main[0].Driver)
	assert.Equal(t, 0, fails.main[0].Index)
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	out := configgen.Substitute(template, map[string]any{
		"name":      "gen",
		"name_full": "generator",
		"version":   3,
	})

	assert.JSONEq(t, `{"name": "gen", "version": "3", "full": "generator"}`, out)
	assert.Equal(t, "$config_unknown", configgen.Substitute("$config_unknown", map[string]any{"name": "x"}))
}
