package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "REPOGUARD"
	configName = "repoguard"
	configType = "yaml"
)

// Loader resolves a Config from defaults, an optional YAML file, REPOGUARD_*
// environment variables and changed CLI flags, in increasing precedence.
type Loader struct {
	searchPaths []string
	envReplacer *strings.Replacer
	flags       *pflag.FlagSet
	flagKeys    map[string]string
}

// Loaded reports where the configuration came from.
type Loaded struct {
	Config         *Config
	ConfigFileUsed string
}

// DefaultSearchPaths are the working directory and $HOME/.config/repoguard.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", configName))
	}
	return paths
}

func NewLoader(searchPaths []string) *Loader {
	return &Loader{
		searchPaths: append([]string(nil), searchPaths...),
		envReplacer: strings.NewReplacer(".", "_"),
	}
}

// BindFlags maps config keys (e.g. "target.owner") to flag names in fs.
// A flag only overrides lower layers when it was set on the command line.
func (l *Loader) BindFlags(fs *pflag.FlagSet, keys map[string]string) {
	l.flags = fs
	l.flagKeys = keys
}

// Load reads configuration. An explicit path must exist; otherwise a missing
// repoguard.yaml in the search paths is not an error.
func (l *Loader) Load(path string) (Loaded, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	for _, p := range l.searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(l.envReplacer)
	v.AutomaticEnv()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if l.flags != nil {
		for key, name := range l.flagKeys {
			f := l.flags.Lookup(name)
			if f == nil {
				return Loaded{}, fmt.Errorf("bind flag %q: not defined", name)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Loaded{}, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Loaded{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	cfg := &Config{}
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hooks); err != nil {
		return Loaded{}, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return Loaded{Config: cfg, ConfigFileUsed: v.ConfigFileUsed()}, nil
}
