package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config keys.
const (
	KeyVenvDir = "venv-dir"
	KeyScript  = "script"
	KeyBaseDir = "base-dir"
)

// Environment variable fallbacks.
const (
	EnvVenvDir = "VOICETYPE_VENV_DIR"
	EnvScript  = "VOICETYPE_SCRIPT"
	EnvBaseDir = "VOICETYPE_BASE_DIR"
)

// Defaults used when neither flag, config file nor environment set a value.
const (
	DefaultVenvDir = ".venv"
	DefaultScript  = "gui_voice_typing.py"
)

// Keys lists every supported configuration key, in display order.
var Keys = []string{KeyVenvDir, KeyScript, KeyBaseDir}

// envFor maps config keys to their environment variable fallbacks.
var envFor = map[string]string{
	KeyVenvDir: EnvVenvDir,
	KeyScript:  EnvScript,
	KeyBaseDir: EnvBaseDir,
}

// fileName is the config file inside the config directory.
const fileName = "config.toml"

// dotEnvName is the optional dotenv file loaded at startup.
const dotEnvName = ".env"

// Config holds launcher configuration loaded from ~/.config/voicetype/config.toml.
// Empty fields mean "not set"; see WithDefaults.
type Config struct {
	VenvDir string
	Script  string
	BaseDir string
}

// Set assigns value to the field named by key.
// Unknown keys are ignored; callers validate keys with IsValidKey.
func (c *Config) Set(key, value string) {
	switch key {
	case KeyVenvDir:
		c.VenvDir = value
	case KeyScript:
		c.Script = value
	case KeyBaseDir:
		c.BaseDir = value
	}
}

// Value returns the field named by key.
func (c Config) Value(key string) string {
	switch key {
	case KeyVenvDir:
		return c.VenvDir
	case KeyScript:
		return c.Script
	case KeyBaseDir:
		return c.BaseDir
	default:
		return ""
	}
}

// WithDefaults fills empty fields. baseDir is used when BaseDir is empty,
// usually the directory holding the launcher executable.
func (c Config) WithDefaults(baseDir string) Config {
	if c.VenvDir == "" {
		c.VenvDir = DefaultVenvDir
	}
	if c.Script == "" {
		c.Script = DefaultScript
	}
	if c.BaseDir == "" {
		c.BaseDir = baseDir
	}
	return c
}

// Override returns c with every non-empty field of o applied on top.
func (c Config) Override(o Config) Config {
	for _, key := range Keys {
		if v := o.Value(key); v != "" {
			c.Set(key, v)
		}
	}
	return c
}

// IsValidKey reports whether key is a supported configuration key.
func IsValidKey(key string) bool {
	_, ok := envFor[key]
	return ok
}

// EnvVar returns the environment variable that backs key.
func EnvVar(key string) string {
	return envFor[key]
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/voicetype.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "voicetype"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "voicetype"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	switch {
	case err == nil:
		for key, value := range data {
			cfg.Set(key, value)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	for _, key := range Keys {
		if cfg.Value(key) == "" {
			cfg.Set(key, os.Getenv(envFor[key]))
		}
	}

	return cfg, nil
}

// parseFile decodes a flat TOML table of string values.
func parseFile(p string) (map[string]string, error) {
	raw, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}

	data := make(map[string]string)
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", p, err)
	}
	return data, nil
}

// Save writes a single key to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing keys but discards comments.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map as TOML.
func writeFile(p string, data map[string]string) (err error) {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cannot write config file: %w", cerr)
		}
	}()

	if err := toml.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all config file values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// ResolvePath resolves p against base:
//  1. ~ is expanded
//  2. absolute paths are kept as-is
//  3. relative paths are joined onto base (or kept relative if base is empty)
//
// The result is cleaned with filepath.Clean.
func ResolvePath(base, p string) string {
	p = ExpandPath(p)
	if filepath.IsAbs(p) || base == "" {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(ExpandPath(base), p))
}

// ExecutableDir returns the directory holding the running executable,
// falling back to the working directory when it cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// LoadDotEnv loads a .env file from each directory, if present.
// Variables already set in the environment are not overridden, and earlier
// directories win over later ones.
func LoadDotEnv(dirs ...string) []string {
	var loaded []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		if d == "" {
			continue
		}
		p := filepath.Join(d, dotEnvName)
		if seen[p] {
			continue
		}
		seen[p] = true
		// Missing or unreadable files are skipped.
		if err := godotenv.Load(p); err != nil {
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}

// Path returns the configuration file path.
func Path() (string, error) {
	return path()
}
