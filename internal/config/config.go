// Package config loads mentorbot settings from defaults, a config file, a
// .env file and MENTOR_* environment variables, in that order.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MENTOR_"

// Duration is a time.Duration written as "30m" in every config format.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MiddlewareSetting switches a registered middleware on or off.
type MiddlewareSetting struct {
	ID      string `json:"id" toml:"id" yaml:"id"`
	Enabled bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
}

type Config struct {
	Provider string `json:"provider" toml:"provider" yaml:"provider"`
	Model    string `json:"model" toml:"model" yaml:"model"`
	BaseURL  string `json:"base_url,omitempty" toml:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty" toml:"api_key,omitempty" yaml:"api_key,omitempty"`

	DBPath      string `json:"db_path" toml:"db_path" yaml:"db_path"`
	CatalogPath string `json:"catalog_path,omitempty" toml:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`

	LogPath      string `json:"log_path,omitempty" toml:"log_path,omitempty" yaml:"log_path,omitempty"`
	DebugLogPath string `json:"debug_log_path,omitempty" toml:"debug_log_path,omitempty" yaml:"debug_log_path,omitempty"`
	LogLevel     string `json:"log_level" toml:"log_level" yaml:"log_level"`

	Listen         string   `json:"listen" toml:"listen" yaml:"listen"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" toml:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	TelegramToken  string   `json:"telegram_token,omitempty" toml:"telegram_token,omitempty" yaml:"telegram_token,omitempty"`

	SessionTTL   Duration `json:"session_ttl" toml:"session_ttl" yaml:"session_ttl"`
	TitleTimeout Duration `json:"title_timeout" toml:"title_timeout" yaml:"title_timeout"`
	MaxTokens    int      `json:"max_tokens" toml:"max_tokens" yaml:"max_tokens"`

	Middlewares []MiddlewareSetting `json:"middlewares,omitempty" toml:"middlewares,omitempty" yaml:"middlewares,omitempty"`

	// DisabledMiddlewares is filled from MENTOR_DISABLED_MIDDLEWARES.
	DisabledMiddlewares []string `json:"-" toml:"-" yaml:"-"`
}

func Default() Config {
	return Config{
		Provider:     "ollama",
		Model:        "llama3.2",
		DBPath:       "mentorbot.db",
		DebugLogPath: filepath.Join("bin", "middleware.debug.jsonl"),
		LogLevel:     "info",
		Listen:       ":8080",
		SessionTTL:   Duration{time.Hour},
		TitleTimeout: Duration{5 * time.Second},
		MaxTokens:    1024,
	}
}

// Load builds the configuration. A missing config file is not an error; a
// malformed one is. envFiles are read with godotenv and never override
// variables already set in the environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	strs := map[string]*string{
		"PROVIDER":       &c.Provider,
		"MODEL":          &c.Model,
		"BASE_URL":       &c.BaseURL,
		"API_KEY":        &c.APIKey,
		"DB_PATH":        &c.DBPath,
		"CATALOG_PATH":   &c.CatalogPath,
		"LOG_PATH":       &c.LogPath,
		"DEBUG_LOG_PATH": &c.DebugLogPath,
		"LOG_LEVEL":      &c.LogLevel,
		"LISTEN":         &c.Listen,
		"TELEGRAM_TOKEN": &c.TelegramToken,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	durs := map[string]*Duration{
		"SESSION_TTL":   &c.SessionTTL,
		"TITLE_TIMEOUT": &c.TitleTimeout,
	}
	for name, dst := range durs {
		if v, ok := get(name); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
		}
	}

	if v, ok := get("MAX_TOKENS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_TOKENS: %w", envPrefix, err)
		}
		c.MaxTokens = n
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := get("DISABLED_MIDDLEWARES"); ok {
		c.DisabledMiddlewares = splitList(v)
	}
	return nil
}

// Validate reports settings no component can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Model == "" && c.Provider != "gemini" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.SessionTTL.Duration <= 0 {
		errs = append(errs, errors.New("session_ttl must be positive"))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("max_tokens must not be negative"))
	}
	return errors.Join(errs...)
}

// Disabled lists the middleware ids switched off by the file or environment.
func (c Config) Disabled() []string {
	var out []string
	for _, m := range c.Middlewares {
		if !m.Enabled {
			out = append(out, m.ID)
		}
	}
	return append(out, c.DisabledMiddlewares...)
}

// SaveToFile writes the config in the format its extension names.
func (c Config) SaveToFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}
	data, err := c.Encode(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Encode renders the config as TOML, YAML or, for any other extension, JSON.
func (c Config) Encode(ext string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(ext) {
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Exists reports whether a config file is already at path.
func Exists(path string) (bool, error) {
	path, err := expandHome(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
