package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config represents the critic configuration.
type Config struct {
	Provider               string        `json:"provider" validate:"oneof=ollama openai lmstudio anthropic gemini google"`
	Model                  string        `json:"model,omitempty"`
	Endpoint               string        `json:"endpoint,omitempty" validate:"omitempty,url"`
	AdvisoryEnabled        bool          `json:"advisoryEnabled"`
	AdvisoryTimeoutSeconds int           `json:"advisoryTimeoutSeconds" validate:"gte=1,lte=600"`
	Format                 string        `json:"format" validate:"oneof=text json markdown html sarif legacy"`
	FailOn                 string        `json:"failOn" validate:"oneof=none low medium high"`
	RulesFile              string        `json:"rulesFile,omitempty"`
	LogLevel               string        `json:"logLevel" validate:"oneof=trace debug info warn error off"`
	Sandbox                SandboxConfig `json:"sandbox"`
	Server                 ServerConfig  `json:"server"`
	Cache                  CacheConfig   `json:"cache"`
	Privacy                PrivacyConfig `json:"privacy"`
}

// SandboxConfig controls the execution stage.
type SandboxConfig struct {
	Enabled        bool   `json:"enabled"`
	Python         string `json:"python" validate:"required"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"gte=1,lte=300"`
	MaxConcurrent  int    `json:"maxConcurrent" validate:"gte=1,lte=64"`
	MemoryMB       int    `json:"memoryMB" validate:"gte=0"`
}

// ServerConfig controls the upload server.
type ServerConfig struct {
	Addr              string  `json:"addr" validate:"required"`
	MaxUploadBytes    int64   `json:"maxUploadBytes" validate:"gte=1"`
	RequestsPerSecond float64 `json:"requestsPerSecond" validate:"gte=0"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" validate:"gte=0"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:               "ollama",
		Model:                  "deepseek-r1:1.5b",
		AdvisoryEnabled:        true,
		AdvisoryTimeoutSeconds: 60,
		Format:                 "text",
		FailOn:                 "none",
		LogLevel:               "warn",
		Sandbox: SandboxConfig{
			Enabled:        true,
			Python:         "python3",
			TimeoutSeconds: 5,
			MaxConcurrent:  4,
			MemoryMB:       256,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:5000",
			MaxUploadBytes:    1 << 20,
			RequestsPerSecond: 5,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for critic.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "critic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "critic"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "critic"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "critic"), nil
	default:
		return filepath.Join(home, ".config", "critic"), nil
	}
}

// ConfigPath returns the full path to the config file. CRITIC_CONFIG
// overrides the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("CRITIC_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile decodes the config file over cfg. Keys absent from the file keep
// their current values. A missing file is not an error.
func LoadFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags and uses the keys accepted by SetField.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	if err := LoadFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"CRITIC_PROVIDER":         "provider",
	"CRITIC_MODEL":            "model",
	"CRITIC_ENDPOINT":         "endpoint",
	"CRITIC_ADVISORY":         "advisoryEnabled",
	"CRITIC_ADVISORY_TIMEOUT": "advisoryTimeoutSeconds",
	"CRITIC_FORMAT":           "format",
	"CRITIC_FAIL_ON":          "failOn",
	"CRITIC_RULES":            "rulesFile",
	"CRITIC_LOG_LEVEL":        "logLevel",
	"CRITIC_SANDBOX":          "sandbox.enabled",
	"CRITIC_PYTHON":           "sandbox.python",
	"CRITIC_EXEC_TIMEOUT":     "sandbox.timeoutSeconds",
	"CRITIC_ADDR":             "server.addr",
	"CRITIC_CACHE":            "cache.enabled",
	"CRITIC_CACHE_DIR":        "cache.dir",
}

func mergeEnv(cfg *Config) error {
	names := make([]string, 0, len(envKeys))
	for name := range envKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if err := SetField(cfg, envKeys[name], v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the keys accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "endpoint", "advisoryEnabled", "advisoryTimeoutSeconds",
		"format", "failOn", "rulesFile", "logLevel",
		"sandbox.enabled", "sandbox.python", "sandbox.timeoutSeconds", "sandbox.maxConcurrent", "sandbox.memoryMB",
		"server.addr", "server.maxUploadBytes", "server.requestsPerSecond",
		"cache.enabled", "cache.dir", "cache.ttlSeconds",
		"privacy.redactSecrets",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "endpoint":
		cfg.Endpoint = value
	case "advisoryEnabled":
		cfg.AdvisoryEnabled, err = parseBool(key, value)
	case "advisoryTimeoutSeconds":
		cfg.AdvisoryTimeoutSeconds, err = parseInt(key, value)
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "rulesFile":
		cfg.RulesFile = value
	case "logLevel":
		cfg.LogLevel = strings.ToLower(value)
	case "sandbox.enabled":
		cfg.Sandbox.Enabled, err = parseBool(key, value)
	case "sandbox.python":
		cfg.Sandbox.Python = value
	case "sandbox.timeoutSeconds":
		cfg.Sandbox.TimeoutSeconds, err = parseInt(key, value)
	case "sandbox.maxConcurrent":
		cfg.Sandbox.MaxConcurrent, err = parseInt(key, value)
	case "sandbox.memoryMB":
		cfg.Sandbox.MemoryMB, err = parseInt(key, value)
	case "server.addr":
		cfg.Server.Addr = value
	case "server.maxUploadBytes":
		var n int
		n, err = parseInt(key, value)
		cfg.Server.MaxUploadBytes = int64(n)
	case "server.requestsPerSecond":
		cfg.Server.RequestsPerSecond, err = strconv.ParseFloat(value, 64)
		if err != nil {
			err = fmt.Errorf("%s must be a number: %w", key, err)
		}
	case "cache.enabled":
		cfg.Cache.Enabled, err = parseBool(key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		cfg.Cache.TTLSeconds, err = parseInt(key, value)
	case "privacy.redactSecrets":
		cfg.Privacy.RedactSecrets, err = parseBool(key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ErrExists is returned by Init when the config file is already present.
var ErrExists = errors.New("config file already exists")

// Init writes a default config file. It refuses to overwrite an existing
// file unless force is set.
func Init(force bool) (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return path, Save(Default())
}

// Set updates one key in the config file.
func Set(key, value string) error {
	cfg := Default()
	if err := LoadFile(&cfg); err != nil {
		return err
	}
	if err := SetField(&cfg, key, value); err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	return Save(cfg)
}
