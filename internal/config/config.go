// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/rigrun-reveal/internal/util"
)

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete reveal configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Typing  TypingConfig  `toml:"typing" json:"typing"`
	Scroll  ScrollConfig  `toml:"scroll" json:"scroll"`
	Render  RenderConfig  `toml:"render" json:"render"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// TypingConfig controls the simulated typing effect.
type TypingConfig struct {
	// WPM is the reveal rate in words per minute.
	WPM int `toml:"wpm" json:"wpm"`
	// ChunkSize is the number of characters revealed per tick.
	ChunkSize int `toml:"chunk_size" json:"chunk_size"`
}

// ScrollConfig controls auto-follow.
type ScrollConfig struct {
	// Threshold is the distance from the bottom, in scroll units (20 per
	// terminal row), that still counts as "at the bottom".
	Threshold int `toml:"threshold" json:"threshold"`
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	// HighlightStyle is a chroma style name used for code blocks.
	HighlightStyle string `toml:"highlight_style" json:"highlight_style"`
	// Width wraps text at this many columns; 0 uses the terminal width.
	Width int `toml:"width" json:"width"`
	// LineNumbers prefixes code block lines with their number.
	LineNumbers bool `toml:"line_numbers" json:"line_numbers"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
}

// StorageConfig locates conversation history.
type StorageConfig struct {
	// DBPath is the SQLite database file (empty = ~/.reveal/history.db).
	DBPath string `toml:"db_path" json:"db_path"`
}

// LogConfig controls the debug log. The TUI owns the terminal, so logs only
// go to a file.
type LogConfig struct {
	// File is the log file path; empty disables logging.
	File string `toml:"file" json:"file"`
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
}

// SlogLevel converts Level to a slog level. Unknown names map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Typing: TypingConfig{
			WPM:       600,
			ChunkSize: 4,
		},
		Scroll: ScrollConfig{
			Threshold: 40,
		},
		Render: RenderConfig{
			HighlightStyle: "monokai",
			Width:          0,
			LineNumbers:    false,
			Theme:          "auto",
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the reveal configuration directory. REVEAL_HOME
// overrides the default ~/.reveal.
func ConfigDir() (string, error) {
	if dir := os.Getenv("REVEAL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".reveal"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultDBPath returns the default history database path.
func DefaultDBPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "reveal.db"
	}
	return filepath.Join(dir, "history.db")
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.reveal/config.toml, falling back to config.json and then to
// the defaults. Environment overrides are applied last. A file that fails to
// parse is reported in the returned error alongside a usable default config.
func Load() (*Config, error) {
	var loadErr error

	if path, err := ConfigPathTOML(); err == nil && fileExists(path) {
		cfg := Default()
		if err := LoadTOML(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
		} else {
			return finish(cfg)
		}
	}

	if path, err := ConfigPathJSON(); err == nil && fileExists(path) {
		cfg := Default()
		if err := LoadJSON(cfg, path); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
		} else {
			return finish(cfg)
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads a specific file; the extension selects JSON or TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values with defaults. Width and LineNumbers
// are meaningful at zero and are left alone.
func fillDefaults(cfg *Config) {
	d := Default()
	if cfg.Version == "" {
		cfg.Version = d.Version
	}
	if cfg.Typing.WPM == 0 {
		cfg.Typing.WPM = d.Typing.WPM
	}
	if cfg.Typing.ChunkSize == 0 {
		cfg.Typing.ChunkSize = d.Typing.ChunkSize
	}
	if cfg.Scroll.Threshold == 0 {
		cfg.Scroll.Threshold = d.Scroll.Threshold
	}
	if cfg.Render.HighlightStyle == "" {
		cfg.Render.HighlightStyle = d.Render.HighlightStyle
	}
	if cfg.Render.Theme == "" {
		cfg.Render.Theme = d.Render.Theme
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = d.Storage.DBPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# reveal configuration file\n")
	buf.WriteString("# Generated by reveal - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with owner-only permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Typing.WPM < 1 || c.Typing.WPM > 20000 {
		add("typing.wpm", "must be between 1 and 20000, got %d", c.Typing.WPM)
	}
	if c.Typing.ChunkSize < 1 || c.Typing.ChunkSize > 64 {
		add("typing.chunk_size", "must be between 1 and 64, got %d", c.Typing.ChunkSize)
	}
	if c.Scroll.Threshold < 0 || c.Scroll.Threshold > 1000 {
		add("scroll.threshold", "must be between 0 and 1000, got %d", c.Scroll.Threshold)
	}
	if _, ok := styles.Registry[c.Render.HighlightStyle]; !ok {
		add("render.highlight_style", "unknown chroma style %q", c.Render.HighlightStyle)
	}
	if c.Render.Width != 0 && (c.Render.Width < 20 || c.Render.Width > 1000) {
		add("render.width", "must be 0 or between 20 and 1000, got %d", c.Render.Width)
	}
	switch c.Render.Theme {
	case "auto", "dark", "light":
	default:
		add("render.theme", "must be auto, dark or light, got %q", c.Render.Theme)
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		add("storage.db_path", "must not be empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies REVEAL_* environment variables:
//   - REVEAL_WPM: typing.wpm
//   - REVEAL_SCROLL_THRESHOLD: scroll.threshold
//   - REVEAL_DB: storage.db_path
//   - REVEAL_THEME: render.theme
//   - REVEAL_LOG_FILE: log.file
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("REVEAL_WPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Typing.WPM = n
		}
	}
	if v := os.Getenv("REVEAL_SCROLL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scroll.Threshold = n
		}
	}
	if v := os.Getenv("REVEAL_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("REVEAL_THEME"); v != "" {
		c.Render.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("REVEAL_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted key such as "typing.wpm".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns the value at a dotted key. String values are converted to the
// field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTag finds the struct field whose toml tag is name.
func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return tag
}

func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %w", err)
			}
			field.SetBool(b)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, tomlName(section))
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the process-wide configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if cfg == nil {
		return err
	}
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	return err
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
