// Package config loads hyprtune settings from a YAML file, HYPRTUNE_*
// environment variables and built-in defaults, in that order of precedence
// (environment wins over the file).
//
// # Configuration File
//
// The file lives at $XDG_CONFIG_HOME/hyprtune/config.yaml:
//
//	state_dir: ~/.local/state/hyprtune
//	profile: nord
//	catalogs:
//	  - ~/.config/hyprtune/extra.yaml
//	  - ~/.config/hyprtune/gaming.lua
//	persist:
//	  debounce: 250ms
//	log_level: info
//
// A missing file is not an error; defaults apply.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/viper"

	"github.com/dshills/hyprtune/internal/logging"
)

var log = logging.For("config")

const (
	// AppName is used for directory names.
	AppName = "hyprtune"
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "HYPRTUNE"
	// FileName is the config file name without extension.
	FileName = "config"
)

// Setting keys.
const (
	KeyStateDir        = "state_dir"
	KeyProfile         = "profile"
	KeyCatalogs        = "catalogs"
	KeyPersistDebounce = "persist.debounce"
	KeyLogLevel        = "log_level"
	KeyEmitter         = "emitter"
)

// ErrInvalidDebounce is returned when persist.debounce is negative.
var ErrInvalidDebounce = errors.New("persist.debounce must not be negative")

// Config is the typed result of Load.
type Config struct {
	// StateDir holds the persisted documents.
	StateDir string `mapstructure:"state_dir"`

	// Profile is the initially selected profile. Empty means none.
	Profile string `mapstructure:"profile"`

	// Catalogs are extra YAML or Lua catalog files merged over the
	// built-in catalog, in order.
	Catalogs []string `mapstructure:"catalogs"`

	Persist PersistConfig `mapstructure:"persist"`

	LogLevel string `mapstructure:"log_level"`

	// Emitter tags the notifications this process sends.
	Emitter string `mapstructure:"emitter"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// PersistConfig configures document writes.
type PersistConfig struct {
	// Debounce coalesces writes to the same document. Zero writes through.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	file string
	dir  string
}

// WithFile reads the given file instead of searching the config directory.
// The file must exist.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithDir overrides the config directory searched for config.yaml.
func WithDir(dir string) Option {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		StateDir: defaultStateDir(),
		Persist:  PersistConfig{Debounce: 0},
		LogLevel: "warn",
		Emitter:  AppName,
	}
}

// Load reads the configuration.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{dir: Dir()}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	defaults := Default()
	v.SetDefault(KeyStateDir, defaults.StateDir)
	v.SetDefault(KeyProfile, defaults.Profile)
	v.SetDefault(KeyCatalogs, []string{})
	v.SetDefault(KeyPersistDebounce, defaults.Persist.Debounce)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyEmitter, defaults.Emitter)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		v.AddConfigPath(o.dir)
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.file != "" || !errors.As(err, &notFound) {
			return nil, oops.In("config").With("file", o.file).With("dir", o.dir).Wrapf(err, "reading config")
		}
		log.WithField("dir", o.dir).Debug("no config file, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "decoding config")
	}
	cfg.File = v.ConfigFileUsed()

	cfg.StateDir = expandHome(cfg.StateDir)
	cfg.Catalogs = cleanPaths(cfg.Catalogs)

	if cfg.Persist.Debounce < 0 {
		return nil, oops.In("config").With("debounce", cfg.Persist.Debounce).Wrap(ErrInvalidDebounce)
	}

	return &cfg, nil
}

// Dir returns $XDG_CONFIG_HOME/hyprtune, falling back to ~/.config/hyprtune.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+AppName)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName)
}

func defaultStateDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+AppName, "state")
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, AppName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// cleanPaths trims and expands paths. HYPRTUNE_CATALOGS="a.yaml, b.lua" is
// split on commas by viper but keeps the spaces.
func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, expandHome(p))
		}
	}
	return out
}
