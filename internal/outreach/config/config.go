package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "OUTREACH_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	DB        DBConfig        `koanf:"db"`
	Gate      GateConfig      `koanf:"gate"`
	Blocklist BlocklistConfig `koanf:"blocklist"`
	Seed      SeedConfig      `koanf:"seed"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type HTTPConfig struct {
	// Port is the TCP port the API binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65536"`
}

type DBConfig struct {
	// Path is the bbolt database file holding patterns, send rules and work records.
	Path string `koanf:"path" validate:"required"`
}

type GateConfig struct {
	// Timezone is the IANA zone send rules are evaluated in.
	Timezone string `koanf:"timezone" validate:"required,iana_zone"`
}

type BlocklistConfig struct {
	// CacheSize is the number of per-list prefilter snapshots kept; 0 disables the prefilter.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`
	// FPRate is the Bloom filter target false positive rate.
	FPRate float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type SeedConfig struct {
	// Dir holds YAML, JSON or TOML seed files applied at startup; empty disables seeding.
	Dir string `koanf:"dir" validate:"omitempty,dir"`
}

// DEFAULT_APP_CONFIG is applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:       "prod",
	Log:       LogConfig{Level: "info"},
	HTTP:      HTTPConfig{Port: 8080},
	DB:        DBConfig{Path: "/var/lib/outreach-gate/outreach.db"},
	Gate:      GateConfig{Timezone: "UTC"},
	Blocklist: BlocklistConfig{CacheSize: 1024, FPRate: 0.01},
}

// envKeys maps the flat environment names (without prefix) onto koanf paths.
var envKeys = map[string]string{
	"env":                  "env",
	"log_level":            "log.level",
	"http_port":            "http.port",
	"db_path":              "db.path",
	"gate_timezone":        "gate.timezone",
	"blocklist_cache_size": "blocklist.cache_size",
	"blocklist_fp_rate":    "blocklist.fp_rate",
	"seed_dir":             "seed.dir",
}

// Location resolves the configured gate timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Gate.Timezone)
}

// validTimezone accepts any zone name time.LoadLocation understands.
func validTimezone(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// envLoader loads OUTREACH_* variables. Unknown variables are dropped so a
// typo cannot land on an unrelated key. Mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			path, ok := envKeys[key]
			if !ok {
				return "", nil
			}
			return path, strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("iana_zone", validTimezone)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
