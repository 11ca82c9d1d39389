package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrSourceMissing marks a source with nothing to contribute. The loader
// skips it; any other source error aborts the load.
var ErrSourceMissing = stderrors.New("configuration source missing")

// Source produces a partial configuration. Zero fields mean "not set".
type Source interface {
	Name() string
	Load() (*Config, error)
	Priority() int
}

// Validator validates configuration
type Validator interface {
	Validate(cfg *Config) error
}

// Loader layers sources over each other in priority order
type Loader struct {
	sources    []Source
	validators []Validator
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{}
}

// AddSource adds a configuration source
func (l *Loader) AddSource(source Source) {
	l.sources = append(l.sources, source)
}

// AddValidator adds a validator run on the merged result
func (l *Loader) AddValidator(validator Validator) {
	l.validators = append(l.validators, validator)
}

// Load merges the sources without defaults. At least one must contribute.
func (l *Loader) Load() (*Config, error) {
	cfg, n, err := l.layer(nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("no valid configuration sources found")
	}
	return cfg, l.validate(cfg)
}

// LoadWithDefaults merges the sources over DefaultConfig
func (l *Loader) LoadWithDefaults() (*Config, error) {
	cfg, _, err := l.layer(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return cfg, l.validate(cfg)
}

func (l *Loader) layer(base *Config) (*Config, int, error) {
	sources := append([]Source(nil), l.sources...)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	applied := 0
	for _, src := range sources {
		cfg, err := src.Load()
		if stderrors.Is(err, ErrSourceMissing) {
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", src.Name(), err)
		}
		base = Merge(base, cfg)
		applied++
	}
	return base, applied, nil
}

func (l *Loader) validate(cfg *Config) error {
	for _, v := range l.validators {
		if err := v.Validate(cfg); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return nil
}

// FileSource reads a YAML, JSON or TOML file through viper
type FileSource struct {
	path string
}

// NewFileSource creates a file source. A missing file contributes nothing.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string  { return "file:" + f.path }
func (f *FileSource) Priority() int { return 100 }

// Load reads the file. A present but unreadable file is an error.
func (f *FileSource) Load() (*Config, error) {
	path := os.ExpandEnv(f.path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return &cfg, nil
}

// EnvSource reads PREFIX_SECTION_KEY variables, e.g. CLAWDECK_POLLING_FAST
type EnvSource struct {
	prefix string
}

// NewEnvSource creates an environment source for prefix
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

func (e *EnvSource) Name() string  { return "env:" + e.prefix }
func (e *EnvSource) Priority() int { return 200 }

// Load binds every config key to its variable and decodes the set ones
func (e *EnvSource) Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(e.prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range Keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return &cfg, nil
}

// Keys lists every leaf key of Config in dotted form, e.g. "polling.fast"
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("mapstructure")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("mapstructure"))
		}
	}
	return keys
}

// FlagSource maps changed command-line flags onto the config
type FlagSource struct {
	flags *pflag.FlagSet
}

// NewFlagSource creates a flag source over flags
func NewFlagSource(flags *pflag.FlagSet) *FlagSource {
	return &FlagSource{flags: flags}
}

func (f *FlagSource) Name() string  { return "flags" }
func (f *FlagSource) Priority() int { return 300 }

// flagFields routes a flag name to the config field it sets
var flagFields = map[string]func(*Config, *pflag.Flag){
	"debug":          func(c *Config, fl *pflag.Flag) { c.Debug.Enabled = flagBool(fl) },
	"log-level":      func(c *Config, fl *pflag.Flag) { c.App.LogLevel = fl.Value.String() },
	"log-file":       func(c *Config, fl *pflag.Flag) { c.App.LogFile = fl.Value.String() },
	"no-color":       func(c *Config, fl *pflag.Flag) { c.UI.NoColor = flagBool(fl) },
	"verbose":        func(c *Config, fl *pflag.Flag) { c.App.Verbose = flagBool(fl) },
	"gateway-url":    func(c *Config, fl *pflag.Flag) { c.Gateway.URL = fl.Value.String() },
	"token":          func(c *Config, fl *pflag.Flag) { c.Gateway.Token = fl.Value.String() },
	"cache-path":     func(c *Config, fl *pflag.Flag) { c.Cache.Path = fl.Value.String() },
	"pricing-source": func(c *Config, fl *pflag.Flag) { c.Pricing.Source = fl.Value.String() },
	"offline":        func(c *Config, fl *pflag.Flag) { c.Pricing.Offline = flagBool(fl) },
}

func flagBool(fl *pflag.Flag) bool {
	return fl.Value.String() == "true"
}

// Load applies only the flags set on the command line
func (f *FlagSource) Load() (*Config, error) {
	cfg := &Config{}
	f.flags.Visit(func(fl *pflag.Flag) {
		if set, ok := flagFields[fl.Name]; ok {
			set(cfg, fl)
		}
	})
	return cfg, nil
}

// Merge returns base with every non-zero field of override applied. Booleans
// can only be switched on by a higher source. Neither input is modified.
func Merge(base, override *Config) *Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base
	mergeStruct(reflect.ValueOf(&result).Elem(), reflect.ValueOf(override).Elem())
	return &result
}

func mergeStruct(dst, src reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		d, s := dst.Field(i), src.Field(i)
		switch s.Kind() {
		case reflect.Struct:
			mergeStruct(d, s)
		case reflect.Bool:
			if s.Bool() {
				d.SetBool(true)
			}
		default:
			if !s.IsZero() {
				d.Set(s)
			}
		}
	}
}
