package application

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	session "revstrux/internal/session/domain"
)

// Defaults seed the settings of every new session.
type Defaults struct {
	Currency    string `yaml:"currency"`
	PeriodStart string `yaml:"period_start"`
	PeriodEnd   string `yaml:"period_end"`
}

// Config defines service configuration.
type Config struct {
	Defaults      Defaults `yaml:"defaults"`
	MaxUploadMB   int      `yaml:"max_upload_mb"`
	SyntheticSeed int64    `yaml:"synthetic_seed"`
}

// LoadConfig loads config from yaml or env. REVSTRUX_CONFIG names an
// optional yaml file; env vars fill anything the file leaves unset.
func LoadConfig() (Config, error) {
	cfg := Config{
		Defaults: Defaults{
			Currency:    getenvDefault("REVSTRUX_CURRENCY", "USD"),
			PeriodStart: getenvDefault("REVSTRUX_PERIOD_START", "2024-01"),
			PeriodEnd:   getenvDefault("REVSTRUX_PERIOD_END", "2024-12"),
		},
		MaxUploadMB:   getenvIntDefault("REVSTRUX_MAX_UPLOAD_MB", 64),
		SyntheticSeed: int64(getenvIntDefault("REVSTRUX_SYNTHETIC_SEED", 42)),
	}

	if path := os.Getenv("REVSTRUX_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.MaxUploadMB <= 0 {
		return cfg, errors.New("analysis: max upload size must be positive")
	}
	return cfg, nil
}

// Settings converts the configured defaults into session settings.
func (d Defaults) Settings() session.Settings {
	return session.Settings{Currency: d.Currency, PeriodStart: d.PeriodStart, PeriodEnd: d.PeriodEnd}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
