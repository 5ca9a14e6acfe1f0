// Package config loads settings from a TOML file with per-environment sections,
// overridden by prefixed environment variables.
//
// The file holds one table per environment. The default table is always loaded and the
// table named by <prefix>ENV (eg CFG_ENV=dev) is merged on top of it. Finally, variables
// such as CFG_RUNTIME_BLOCKING_WORKERS override the key runtime.blocking.workers.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	koanffs "github.com/knadh/koanf/providers/fs"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

const (
	defaultEnv          = "default"
	defaultEnvPrefix    = "CFG_"
	defaultEnvSeparator = "_"
	defaultSeparator    = "."
	defaultSettingsPath = "data/settings.toml"

	envVarName = "ENV"
)

type options struct {
	defaultEnv   string
	envPrefix    string
	filepath     string
	separator    string
	envSeparator string
}

// Option is an option func for NewConfiguration.
type Option func(options *options)

// WithDefaultEnv sets the name of the table that is always loaded.
func WithDefaultEnv(env string) Option {
	return func(options *options) {
		options.defaultEnv = env
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(options *options) {
		options.envPrefix = prefix
	}
}

// WithFilePath sets the path of the TOML file within the file system.
func WithFilePath(path string) Option {
	return func(options *options) {
		options.filepath = path
	}
}

// WithEnvSeparator sets the separator that stands for "." in environment variable names.
func WithEnvSeparator(separator string) Option {
	return func(options *options) {
		options.envSeparator = separator
	}
}

// Configuration is a read-only view over the merged settings.
type Configuration struct {
	k   *koanf.Koanf
	env string
}

// NewConfigurationFromMap builds a configuration from a flat map with dotted keys.
func NewConfigurationFromMap(cfg map[string]any) (*Configuration, error) {
	k := koanf.New(defaultSeparator)
	if err := k.Load(confmap.Provider(cfg, defaultSeparator), nil); err != nil {
		return nil, persistent(err)
	}
	return &Configuration{k: k, env: defaultEnv}, nil
}

// NewConfiguration reads the settings file from f and applies environment overrides.
// If f is nil only environment variables are used.
func NewConfiguration(f fs.FS, opts ...Option) (*Configuration, error) {
	options := options{
		defaultEnv:   defaultEnv,
		envPrefix:    defaultEnvPrefix,
		filepath:     defaultSettingsPath,
		separator:    defaultSeparator,
		envSeparator: defaultEnvSeparator,
	}
	for _, opt := range opts {
		opt(&options)
	}

	environment := os.Getenv(options.envPrefix + envVarName)
	merged := koanf.New(options.separator)

	if f != nil {
		file := koanf.New(options.separator)
		if err := file.Load(koanffs.Provider(f, options.filepath), toml.Parser()); err != nil {
			return nil, persistent(err)
		}

		if err := mergeSection(merged, file, options.defaultEnv, options.separator); err != nil {
			return nil, err
		}
		if environment != "" && environment != options.defaultEnv {
			if err := mergeSection(merged, file, environment, options.separator); err != nil {
				return nil, err
			}
		}
	}

	if environment == "" {
		environment = options.defaultEnv
	}

	if err := merged.Load(env.Provider(options.envPrefix, options.separator, envToKey(options)), nil); err != nil {
		return nil, persistent(err)
	}

	return &Configuration{k: merged, env: environment}, nil
}

func mergeSection(dst, src *koanf.Koanf, section, separator string) error {
	if !src.Exists(section) {
		return persistent(fmt.Errorf("environment settings for '%s' not found", section))
	}
	settings, ok := src.Get(section).(map[string]any)
	if !ok {
		return persistent(fmt.Errorf("failed to parse settings for '%s'", section))
	}
	if err := dst.Load(confmap.Provider(settings, separator), nil); err != nil {
		return persistent(err)
	}
	return nil
}

func persistent(err error) error {
	return errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
}

// Unmarshal decodes the settings rooted at path into a.
func (c *Configuration) Unmarshal(path string, a any) error {
	if err := c.k.Unmarshal(path, a); err != nil {
		return persistent(err)
	}
	return nil
}

// Environment returns the name of the selected environment.
func (c *Configuration) Environment() string {
	return c.env
}

// envToKey maps eg PREFIX_RUNTIME_FPS to runtime.fps.
func envToKey(options options) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, options.envPrefix))
		return strings.ReplaceAll(s, options.envSeparator, options.separator)
	}
}
