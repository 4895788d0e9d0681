// Package config resolves obra's runtime settings: defaults, then an
// optional YAML file, then OBRA_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all runtime configuration.
type Config struct {
	DBPath    string
	LogLevel  slog.Level
	LogFormat string
	// LogPath receives use-case records. "-" means stderr.
	LogPath string
	// VarianceThresholdPct is the ± band inside which a variance is on track.
	VarianceThresholdPct decimal.Decimal
	// Actor is recorded as author of certifications and events created from
	// this process.
	Actor string
	// Source is the config file that was read, empty when none was.
	Source string
}

// fileConfig mirrors the YAML layout. Decimals are kept as strings so
// "10" and "10.5" parse the same way.
type fileConfig struct {
	DB  string `yaml:"db"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Path   string `yaml:"path"`
	} `yaml:"log"`
	Variance struct {
		ThresholdPct string `yaml:"threshold_pct"`
	} `yaml:"variance"`
	Actor string `yaml:"actor"`
}

// Dir returns ~/.obra, or .obra when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".obra"
	}
	return filepath.Join(home, ".obra")
}

// DefaultPath is the config file read when neither --config nor OBRA_CONFIG
// names one.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath:               filepath.Join(Dir(), "obra.db"),
		LogLevel:             slog.LevelInfo,
		LogFormat:            FormatText,
		LogPath:              filepath.Join(Dir(), "obra.log"),
		VarianceThresholdPct: decimal.NewFromInt(10),
		Actor:                domain.CoalesceStr(os.Getenv("USER"), "obra"),
	}
}

// Load builds the effective configuration. path is the --config flag; when
// empty OBRA_CONFIG and then DefaultPath are tried. A missing default file is
// not an error, a missing explicit one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv("OBRA_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	if fc.DB != "" {
		cfg.DBPath = expandHome(fc.DB)
	}
	if fc.Log.Level != "" {
		lvl, err := parseLevel(fc.Log.Level)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}
	if fc.Log.Format != "" {
		f, err := parseFormat(fc.Log.Format)
		if err != nil {
			return err
		}
		cfg.LogFormat = f
	}
	if fc.Log.Path != "" {
		cfg.LogPath = expandHome(fc.Log.Path)
	}
	if fc.Variance.ThresholdPct != "" {
		d, err := parseThreshold(fc.Variance.ThresholdPct)
		if err != nil {
			return err
		}
		cfg.VarianceThresholdPct = d
	}
	if fc.Actor != "" {
		cfg.Actor = fc.Actor
	}
	return nil
}

// applyEnv overrides cfg from the environment. Unparseable values are
// ignored and the previous setting kept.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OBRA_DB"); v != "" {
		cfg.DBPath = expandHome(v)
	}
	if v := os.Getenv("OBRA_LOG_LEVEL"); v != "" {
		if lvl, err := parseLevel(v); err == nil {
			cfg.LogLevel = lvl
		}
	}
	if v := os.Getenv("OBRA_LOG_FORMAT"); v != "" {
		if f, err := parseFormat(v); err == nil {
			cfg.LogFormat = f
		}
	}
	if v := os.Getenv("OBRA_LOG_PATH"); v != "" {
		cfg.LogPath = expandHome(v)
	}
	if v := os.Getenv("OBRA_VARIANCE_THRESHOLD"); v != "" {
		if d, err := parseThreshold(v); err == nil {
			cfg.VarianceThresholdPct = d
		}
	}
	if v := os.Getenv("OBRA_ACTOR"); v != "" {
		cfg.Actor = v
	}
}

// OpenLog opens LogPath for appending, creating its directory. For "-" it
// returns stderr with a no-op Close.
func (c Config) OpenLog() (io.WriteCloser, error) {
	if c.LogPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewLogger returns a slog logger writing to w at the configured level and format.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

func parseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f != FormatText && f != FormatJSON {
		return "", fmt.Errorf("log format %q must be %s or %s", s, FormatText, FormatJSON)
	}
	return f, nil
}

func parseThreshold(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("variance threshold %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("variance threshold %s must be positive", d)
	}
	return d, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
