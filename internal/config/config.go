// Package config loads StudyTrace settings from defaults, a YAML file,
// STUDYTRACE_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
// Nested keys use a double underscore: STUDYTRACE_SERVER__ADDR.
const EnvPrefix = "STUDYTRACE_"

type Server struct {
	Addr            string        `koanf:"addr" validate:"required"`
	CORSAllowOrigin string        `koanf:"cors_allow_origin"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type Storage struct {
	DSN string `koanf:"dsn" validate:"required"`
}

type Ingest struct {
	MaxInputChars int `koanf:"max_input_chars" validate:"gt=0"`
	PreviewChars  int `koanf:"preview_chars" validate:"gt=0,ltefield=MaxInputChars"`
}

type Sources struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type Review struct {
	SuggestionLimit int `koanf:"suggestion_limit" validate:"gt=0"`
	DueLimit        int `koanf:"due_limit" validate:"gt=0"`
	// CardScanLimit bounds how many cards ranking and due lists load.
	CardScanLimit int `koanf:"card_scan_limit" validate:"gt=0"`
}

// Config is the complete application configuration.
type Config struct {
	Server  Server  `koanf:"server"`
	Storage Storage `koanf:"storage"`
	Ingest  Ingest  `koanf:"ingest"`
	Sources Sources `koanf:"sources"`
	Log     Log     `koanf:"log"`
	Review  Review  `koanf:"review"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":3001",
			CORSAllowOrigin: "*",
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: Storage{DSN: "studytrace.db"},
		Ingest:  Ingest{MaxInputChars: 12000, PreviewChars: 500},
		Sources: Sources{ReposDir: "repos"},
		Log:     Log{Level: "info", Format: "text"},
		Review:  Review{SuggestionLimit: 10, DueLimit: 20, CardScanLimit: 1000},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"db":         "storage.dsn",
	"repos-dir":  "sources.repos_dir",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("addr", d.Server.Addr, "HTTP listen address")
	fs.String("db", d.Storage.DSN, "Path to the SQLite database file")
	fs.String("repos-dir", d.Sources.ReposDir, "Directory git sources are cloned into")
	fs.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "Log format (text, json)")
}

// Load builds the configuration. fs may be nil; only flags explicitly set on
// the command line override other sources. A "config" flag names the YAML file.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	var path string
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's field constraints.
func Validate(cfg Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// flagKey reports the configuration key of flags explicitly set on fs.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}
