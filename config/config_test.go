// Tests in this package set environment variables and therefore do not run in parallel.

package config_test

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
)

const testPrefix = "BRIDGETEST_"

const settings = `
[default.runtime]
blocking_workers = 8
default_debounce = "250ms"

[default.ui]
fps = 30
title = "lectures"

[dev.runtime]
blocking_workers = 2

[broken]
value = 1
`

type runtimeConfig struct {
	BlockingWorkers int           `koanf:"blocking_workers"`
	DefaultDebounce time.Duration `koanf:"default_debounce"`
}

type uiConfig struct {
	FPS   int
	Title string
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/settings.toml": &fstest.MapFile{Data: []byte(settings)},
		"bad.toml":           &fstest.MapFile{Data: []byte("this is = = not toml")},
	}
}

func TestDefaultEnv(t *testing.T) {
	cfg, err := config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Environment())

	rc := runtimeConfig{}
	require.NoError(t, cfg.Unmarshal("runtime", &rc))
	assert.Equal(t, runtimeConfig{BlockingWorkers: 8, DefaultDebounce: 250 * time.Millisecond}, rc)

	uc := uiConfig{}
	require.NoError(t, cfg.Unmarshal("ui", &uc))
	assert.Equal(t, uiConfig{FPS: 30, Title: "lectures"}, uc)
}

func TestEnvironmentSection(t *testing.T) {
	t.Setenv(testPrefix+"ENV", "dev")

	cfg, err := config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix))
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Environment())

	rc := runtimeConfig{}
	require.NoError(t, cfg.Unmarshal("runtime", &rc))
	assert.Equal(t, 2, rc.BlockingWorkers)
	assert.Equal(t, 250*time.Millisecond, rc.DefaultDebounce)
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv(testPrefix+"UI_FPS", "60")

	cfg, err := config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix))
	require.NoError(t, err)

	uc := uiConfig{}
	require.NoError(t, cfg.Unmarshal("ui", &uc))
	assert.Equal(t, 60, uc.FPS)
}

func TestMissingSection(t *testing.T) {
	t.Setenv(testPrefix+"ENV", "prod")

	_, err := config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix))
	require.Error(t, err)
	assert.Equal(t, errclass.Persistent, errclass.GetClass(err))

	_, err = config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix), config.WithDefaultEnv("staging"))
	assert.Error(t, err)
}

func TestBadSection(t *testing.T) {
	t.Setenv(testPrefix+"ENV", "nope")

	_, err := config.NewConfiguration(fstest.MapFS{
		"data/settings.toml": &fstest.MapFile{Data: []byte("default = 3\nnope = 4\n")},
	}, config.WithEnvPrefix(testPrefix))
	assert.Error(t, err)
}

func TestFileErrors(t *testing.T) {
	_, err := config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix), config.WithFilePath("missing.toml"))
	assert.Error(t, err)

	_, err = config.NewConfiguration(testFS(), config.WithEnvPrefix(testPrefix), config.WithFilePath("bad.toml"))
	assert.Error(t, err)
}

func TestEnvOnly(t *testing.T) {
	t.Setenv(testPrefix+"RUNTIME_WORKERS", "4")
	t.Setenv(testPrefix+"ADMIN__PORT", "9000")

	cfg, err := config.NewConfiguration(nil, config.WithEnvPrefix(testPrefix), config.WithEnvSeparator("__"))
	require.NoError(t, err)

	var admin struct{ Port int }
	require.NoError(t, cfg.Unmarshal("admin", &admin))
	assert.Equal(t, 9000, admin.Port)

	var flat map[string]any
	require.NoError(t, cfg.Unmarshal("", &flat))
	assert.Equal(t, "4", flat["runtime_workers"])
}

func TestMismatchedType(t *testing.T) {
	cfg, err := config.NewConfigurationFromMap(map[string]any{"ui.fps": "fast"})
	require.NoError(t, err)

	uc := uiConfig{}
	err = cfg.Unmarshal("ui", &uc)
	require.Error(t, err)
	assert.Equal(t, errclass.Persistent, errclass.GetClass(err))
}
