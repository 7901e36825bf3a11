// Package config loads settings from defaults, an optional YAML file, the
// environment and command line flags, in increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/studydeck/internal/validate"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STUDYDECK_"

// Config holds the service settings.
type Config struct {
	Addr             string        `koanf:"addr" validate:"required"`
	DB               string        `koanf:"db" validate:"required"`
	ReposDir         string        `koanf:"repos_dir" validate:"required"`
	LogLevel         string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        string        `koanf:"log_format" validate:"oneof=text json logfmt"`
	DesiredRetention float64       `koanf:"desired_retention" validate:"gt=0,lt=1"`
	SessionTTL       time.Duration `koanf:"session_ttl" validate:"gt=0"`

	// Command line only.
	ConfigFile string `koanf:"config"`
	Sync       bool   `koanf:"sync"`
	AddSource  string `koanf:"add_source"`
	Project    string `koanf:"project"`
}

// Flags returns the flag set Load reads. Flag defaults are the built-in
// defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("studydeck", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("addr", ":8080", "HTTP listen address")
	f.String("db", "studydeck.db", "Path to the SQLite database file")
	f.String("repos-dir", "repos", "Directory git sources are checked out into")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("log-format", "text", "Log format: text, json or logfmt")
	f.Float64("desired-retention", 0.9, "Target recall probability used for scheduling")
	f.Duration("session-ttl", 2*time.Hour, "Idle time after which a study session is dropped")
	f.Bool("sync", false, "Sync all sources and exit")
	f.String("add-source", "", "Register a markdown source (directory or git URL) and exit")
	f.String("project", "", "Project ID for --add-source")
	return f
}

// Load parses args with f and merges file, environment and flag values.
func Load(f *pflag.FlagSet, args []string) (*Config, error) {
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Unchanged flags only fill keys no other source has set.
	err = k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
