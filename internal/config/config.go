// Package config loads settings for the todo command.
//
// Sources are applied in order, later ones winning:
//  1. Defaults
//  2. User config file (todo/todo.toml under os.UserConfigDir)
//  3. Project config file (todo.toml in the working directory), or the file
//     named by -config / TODO_CONFIG instead of 2 and 3
//  4. A .env file in the working directory
//  5. TODO_* environment variables
//  6. Root command-line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/ui"
)

const (
	EnvPrefix       = "TODO_"
	FileName        = "todo.toml"
	DefaultLogLevel = "info"
	DefaultTheme    = "classic"
	DefaultTimeout  = 10 * time.Second
)

// Config holds every setting.
type Config struct {
	DatabaseURL   string   `toml:"database_url"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
	LogFile       string   `toml:"log_file"`
	Theme         string   `toml:"theme"`
	DefaultFilter string   `toml:"default_filter"`
	EnsureSchema  bool     `toml:"ensure_schema"`
	Timeout       Duration `toml:"timeout"`

	// Group lists pending and done todos separately in `ls`.
	Group bool `toml:"group"`

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `toml:"-"`
}

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Filter returns the parsed default filter.
func (c *Config) Filter() model.Filter {
	f, _ := model.ParseFilter(c.DefaultFilter)
	return f
}

func setDefaults(cfg *Config) {
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = "text"
	cfg.Theme = DefaultTheme
	cfg.DefaultFilter = "all"
	cfg.Timeout = Duration{DefaultTimeout}
}

// flagValues mirrors the root flags before they are merged.
type flagValues struct {
	configFile string
	dsn        string
	logLevel   string
	logFile    string
	theme      string
	filter     string
	group      bool
	initSchema bool
	timeout    time.Duration
}

func registerFlags(fs *flag.FlagSet, v *flagValues) {
	fs.StringVar(&v.configFile, "config", "", "path to a todo.toml config file")
	fs.StringVar(&v.dsn, "db", "", "PostgreSQL connection string")
	fs.StringVar(&v.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&v.logFile, "log-file", "", "write logs to this file")
	fs.StringVar(&v.theme, "theme", "", "color theme (classic, neon, mono)")
	fs.StringVar(&v.filter, "filter", "", "initial filter (all, completed, incomplete)")
	fs.BoolVar(&v.group, "group", false, "group output by pending/done")
	fs.BoolVar(&v.initSchema, "init", false, "create the todos table if it is missing")
	fs.DurationVar(&v.timeout, "timeout", 0, "timeout for each database call")
}

// Load parses root flags from args and merges every source. It returns the
// config and the arguments left after the flags.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	var fv flagValues
	registerFlags(fs, &fv)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	explicit := fv.configFile
	if explicit == "" {
		explicit = os.Getenv(EnvPrefix + "CONFIG")
	}
	if explicit != "" {
		if err := loadConfigFile(cfg, explicit); err != nil {
			return nil, nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else {
		for _, path := range []string{userConfigFile(), projectConfigFile()} {
			if path == "" {
				continue
			}
			if err := loadConfigFile(cfg, path); err != nil {
				return nil, nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, nil, err
	}
	applyFlags(cfg, fs, &fv)

	if err := validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	cfg.ConfigFile = path
	return nil
}

func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return existing(filepath.Join(dir, "todo", FileName))
}

func projectConfigFile() string {
	return existing(FileName)
}

func existing(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func loadFromEnv(cfg *Config) error {
	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := lookup("THEME"); ok {
		cfg.Theme = v
	}
	if v, ok := lookup("FILTER"); ok {
		cfg.DefaultFilter = v
	}
	if v, ok := lookup("GROUP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sGROUP: %w", EnvPrefix, err)
		}
		cfg.Group = b
	}
	if v, ok := lookup("ENSURE_SCHEMA"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sENSURE_SCHEMA: %w", EnvPrefix, err)
		}
		cfg.EnsureSchema = b
	}
	if v, ok := lookup("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Timeout = Duration{d}
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// applyFlags copies only the flags the user actually set.
func applyFlags(cfg *Config, fs *flag.FlagSet, fv *flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DatabaseURL = fv.dsn
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "log-file":
			cfg.LogFile = fv.logFile
		case "theme":
			cfg.Theme = fv.theme
		case "filter":
			cfg.DefaultFilter = fv.filter
		case "group":
			cfg.Group = fv.group
		case "init":
			cfg.EnsureSchema = fv.initSchema
		case "timeout":
			cfg.Timeout = Duration{fv.timeout}
		}
	})
}

func validate(cfg *Config) error {
	if _, err := model.ParseFilter(cfg.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	if _, ok := logging.LookupLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("log_level: unknown level %q (want debug, info, warn, error or fatal)", cfg.LogLevel)
	}
	if _, ok := logging.LookupFormatter(cfg.LogFormat); !ok {
		return fmt.Errorf("log_format: unknown format %q (want text, json or logfmt)", cfg.LogFormat)
	}
	if !ui.HasTheme(cfg.Theme) {
		return fmt.Errorf("theme: unknown theme %q (want %s)", cfg.Theme, strings.Join(ui.Themes, ", "))
	}
	if cfg.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout.Duration)
	}
	return nil
}
