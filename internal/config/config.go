// config — источник загрузки конфигурации консоли.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Бэкенды хранения сессии.
const (
	SessionBackendFile    = "file"
	SessionBackendKeyring = "keyring"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Central CentralConfig `yaml:"central"`
	Health  HealthConfig  `yaml:"health"`
	Session SessionConfig `yaml:"session"`
}

// CentralConfig — адрес и таймаут центрального сервиса.
// BaseURL хранится без завершающего слэша.
type CentralConfig struct {
	BaseURL string        `yaml:"base_url" env:"CENTRAL_BASE_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env:"CENTRAL_TIMEOUT" env-default:"10s"`
}

// HealthConfig — прямые health-пробы филиалов (мимо центрального сервиса).
type HealthConfig struct {
	Timeout       time.Duration `yaml:"timeout" env:"HEALTH_TIMEOUT" env-default:"5s"`
	MaxConcurrent int           `yaml:"max_concurrent" env:"HEALTH_MAX_CONCURRENT" env-default:"4"`
}

// SessionConfig — хранение bearer-токена и идентификатора читателя.
//
// Backend: file — JSON-файл (Path; по умолчанию — каталог конфигурации
// пользователя), keyring — системное хранилище секретов (Service — имя
// записи в keychain).
type SessionConfig struct {
	Backend string `yaml:"backend" env:"SESSION_BACKEND" env-default:"file"`
	Path    string `yaml:"path" env:"SESSION_PATH"`
	Service string `yaml:"service" env:"SESSION_SERVICE" env-default:"library-console"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		return normalize(&cfg)
	}

	if path != "" {
		return tryRead(path)
	}

	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return tryRead(env)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	return normalize(&cfg)
}

// normalize — валидация и приведение значений после чтения.
func normalize(cfg *Config) (*Config, error) {
	cfg.Central.BaseURL = strings.TrimRight(cfg.Central.BaseURL, "/")

	u, err := url.Parse(cfg.Central.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("central.base_url %q: expected absolute http(s) URL", cfg.Central.BaseURL)
	}

	switch cfg.Session.Backend {
	case SessionBackendFile, SessionBackendKeyring:
	default:
		return nil, fmt.Errorf("session.backend %q: expected %q or %q",
			cfg.Session.Backend, SessionBackendFile, SessionBackendKeyring)
	}

	if cfg.Health.MaxConcurrent <= 0 {
		cfg.Health.MaxConcurrent = 4
	}

	return cfg, nil
}
