// Package config loads flashlearn settings from flags, a YAML file, a
// .env file and FLASHLEARN_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix   = "FLASHLEARN_"
	DefaultFile = "flashlearn.yaml"
)

type Config struct {
	DB     string `koanf:"db"`
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres memory"`
	DSN    string `koanf:"dsn" validate:"required_if=Driver postgres"`
	Addr   string `koanf:"addr" validate:"required"`

	Category   string `koanf:"category"`
	Difficulty string `koanf:"difficulty"`
	Count      int    `koanf:"count" validate:"min=1"`

	KnowDelay     time.Duration `koanf:"know_delay" validate:"gte=0"`
	GenerateDelay time.Duration `koanf:"generate_delay" validate:"gte=0"`
	Topic         string        `koanf:"topic"`

	Git      string `koanf:"git"`
	GitCache string `koanf:"git_cache" validate:"required"`

	CORSOrigins []string `koanf:"cors_origins"`

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`
	LogFile   string `koanf:"log_file"`
}

// NewFlagSet returns a flag set with every configuration key registered
// under its dashed name, plus --config and --env-file.
func NewFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "YAML config file (default "+DefaultFile+" if present)")
	flags.String("env-file", ".env", "dotenv file loaded into the environment if present")

	flags.String("db", "flashlearn.db", "Path to the SQLite database file")
	flags.String("driver", "sqlite", "Store driver: sqlite, postgres or memory")
	flags.String("dsn", "", "Postgres connection string")
	flags.String("addr", "127.0.0.1:8080", "Listen address for serve")

	flags.String("category", "All Categories", "Category to study")
	flags.String("difficulty", "All Levels", "Difficulty to study")
	flags.Int("count", 10, "Number of questions (5, 10, 15 or 20 in the menus)")

	flags.Duration("know-delay", 700*time.Millisecond, "Lock after a Know judgement")
	flags.Duration("generate-delay", time.Second, "Delay of the mock generator")
	flags.String("topic", "", "Topic for generate")

	flags.String("git", "", "Git repository to import from")
	flags.String("git-cache", "repos", "Directory holding git checkouts")

	flags.StringSlice("cors-origins", []string{"*"}, "Allowed origins for /api")

	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "", "text or json (default depends on the command)")
	flags.String("log-file", "", "Write logs to this file")
	return flags
}

// Load layers flag defaults, the YAML file, the environment and explicitly
// set flags, in increasing precedence. flags must already be parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	path, _ := flags.GetString("config")
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flagKey := func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" || f.Name == "env-file" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
