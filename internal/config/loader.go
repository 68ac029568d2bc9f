package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/onehub-labs/onehub/internal/session"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "onehub.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "onehub.yml"

// maxUpwardSearchLevels limits how far up the directory tree to search
// for a config file.
const maxUpwardSearchLevels = 10

// configFileUsed tracks the file the last Load read, if any.
var configFileUsed string

// Load resolves the configuration. Precedence, highest to lowest:
// flags > ONEHUB_ environment variables > config file > defaults.
//
// cfgFile names an explicit config file; when empty, onehub.yaml or
// onehub.yml is searched for in the working directory and then upward.
// A missing config file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"store_path":               DefaultStorePath,
		"log_level":                DefaultLogLevel,
		"log_format":               DefaultLogFormat,
		"server.addr":              DefaultServerAddr,
		"session.idle_timeout":     session.DefaultIdleTimeout,
		"session.max_lifetime":     session.DefaultMaxLifetime,
		"session.cleanup_interval": session.DefaultCleanupInterval,
		"session.max_per_config":   0,
		"export.null_literal":      "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file.
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables. ONEHUB_LOG_LEVEL -> log_level; a double
	// underscore nests: ONEHUB_SERVER__ADDR -> server.addr.
	if err := k.Load(env.Provider("ONEHUB_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "ONEHUB_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest priority.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set.
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --store and --addr for brevity; the config
			// keys spell out where they live.
			switch key {
			case "store":
				return "store_path", posflag.FlagVal(flags, f)
			case "addr":
				return "server.addr", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Relative store paths anchor to the config file's directory so a
	// project-local onehub.yaml finds its store regardless of the cwd
	// the command runs from.
	if configFileUsed != "" {
		cfg.StorePath = resolvePathRelativeTo(cfg.StorePath, filepath.Dir(configFileUsed))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file the last Load
// read, or empty when none was found.
func ConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > onehub.yaml > onehub.yml, searched in the
// working directory and then upward.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := cwd
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty, absolute, or the
// :memory: pseudo-path.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
