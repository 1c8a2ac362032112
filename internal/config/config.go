// Package config arma la configuración del servicio: defaults, luego el YAML de CONFIG_FILE
// (opcional) y por último las variables de entorno, que siempre ganan.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rosie/internal/domain/mood"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Pet     PetConfig     `yaml:"pet"`
	Notify  NotifyConfig  `yaml:"notify"`
	Assets  AssetsConfig  `yaml:"assets"`
	Plans   PlansConfig   `yaml:"plans"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

type StorageConfig struct {
	// DSN de Postgres; vacío = documentos en memoria.
	DSN string `yaml:"dsn"`
	// SQLitePath guarda settings en archivo cuando no hay Postgres.
	SQLitePath  string `yaml:"sqlite_path"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AuthMode string

const (
	AuthDev             AuthMode = "dev"
	AuthLocal           AuthMode = "local"
	AuthIdentityToolkit AuthMode = "identitytoolkit"
)

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	IdentityBaseURL string        `yaml:"identity_base_url"`
	IdentityAPIKey  string        `yaml:"identity_api_key"`
}

// Mode: proveedor remoto si hay API key, local si hay secreto, si no modo dev (X-Debug-User-ID).
func (a AuthConfig) Mode() AuthMode {
	switch {
	case a.IdentityAPIKey != "":
		return AuthIdentityToolkit
	case a.JWTSecret != "":
		return AuthLocal
	default:
		return AuthDev
	}
}

type PetConfig struct {
	Name               string        `yaml:"name"`
	RemedyPolicy       string        `yaml:"remedy_policy"`
	IdleThreshold      time.Duration `yaml:"idle_threshold"`
	ReminderDelay      time.Duration `yaml:"reminder_delay"`
	DecayCheckInterval time.Duration `yaml:"decay_check_interval"`
	DevMenuEnabled     bool          `yaml:"dev_menu_enabled"`
}

type NotifyConfig struct {
	// Sender: "log" (dev) o "expo".
	Sender          string `yaml:"sender"`
	ExpoPushURL     string `yaml:"expo_push_url"`
	ExpoAccessToken string `yaml:"expo_access_token"`
}

type AssetsConfig struct {
	BaseURL     string `yaml:"base_url"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
}

type PlansConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	AllowAll bool   `yaml:"allow_all"`
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text", App: "rosie"},
		Storage: StorageConfig{
			AutoMigrate: true,
		},
		Auth: AuthConfig{AccessTokenTTL: 24 * time.Hour},
		Pet: PetConfig{
			Name:               "Rosie",
			RemedyPolicy:       string(mood.PolicySimple),
			IdleThreshold:      mood.IdleThreshold,
			ReminderDelay:      30 * time.Minute,
			DecayCheckInterval: time.Minute,
		},
		Notify: NotifyConfig{Sender: "log"},
	}
}

// Load lee CONFIG_FILE (si está) y el entorno.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

// LoadFrom es Load con un archivo explícito (flag --config); vacío = CONFIG_FILE.
func LoadFrom(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Load()
	}
	return load(func(key string) (string, bool) {
		if key == "CONFIG_FILE" {
			return path, true
		}
		return os.LookupEnv(key)
	})
}

// Redacted devuelve una copia sin secretos, apta para imprimir.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "***"
		}
	}
	mask(&c.Storage.DSN)
	mask(&c.Auth.JWTSecret)
	mask(&c.Auth.IdentityAPIKey)
	mask(&c.Notify.ExpoAccessToken)
	mask(&c.Assets.S3SecretKey)
	mask(&c.Plans.APIKey)
	return c
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()

	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := overlayFile(&cfg, strings.TrimSpace(path)); err != nil {
			return nil, err
		}
	}

	if err := overlayEnv(&cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overlayEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s value %q: %w", key, v, err))
			return
		}
		*dst = d
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s value %q", key, v))
			return
		}
		*dst = b
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		addr, err := parseAddr(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Server.Addr = addr
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("APP_NAME", &cfg.Log.App)

	str("DB_DSN", &cfg.Storage.DSN)
	str("SQLITE_PATH", &cfg.Storage.SQLitePath)
	flag("AUTO_MIGRATE", &cfg.Storage.AutoMigrate)

	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	dur("ACCESS_TOKEN_TTL", &cfg.Auth.AccessTokenTTL)
	str("IDENTITY_BASE_URL", &cfg.Auth.IdentityBaseURL)
	str("IDENTITY_API_KEY", &cfg.Auth.IdentityAPIKey)

	str("PET_NAME", &cfg.Pet.Name)
	str("REMEDY_POLICY", &cfg.Pet.RemedyPolicy)
	dur("IDLE_THRESHOLD", &cfg.Pet.IdleThreshold)
	dur("REMINDER_DELAY", &cfg.Pet.ReminderDelay)
	dur("DECAY_CHECK_INTERVAL", &cfg.Pet.DecayCheckInterval)
	flag("DEV_MENU_ENABLED", &cfg.Pet.DevMenuEnabled)

	str("NOTIFY_SENDER", &cfg.Notify.Sender)
	str("EXPO_PUSH_URL", &cfg.Notify.ExpoPushURL)
	str("EXPO_ACCESS_TOKEN", &cfg.Notify.ExpoAccessToken)

	str("ASSETS_BASE_URL", &cfg.Assets.BaseURL)
	str("S3_BUCKET", &cfg.Assets.S3Bucket)
	str("S3_REGION", &cfg.Assets.S3Region)
	str("S3_ENDPOINT", &cfg.Assets.S3Endpoint)
	str("S3_ACCESS_KEY", &cfg.Assets.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.Assets.S3SecretKey)

	str("PLANS_BASE_URL", &cfg.Plans.BaseURL)
	str("PLANS_API_KEY", &cfg.Plans.APIKey)
	flag("ALLOW_ALL_CAPABILITIES", &cfg.Plans.AllowAll)

	return errors.Join(errs...)
}

// parseAddr acepta "8080", ":8080" o "127.0.0.1:8080".
func parseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}

// parseDuration acepta "30m" o segundos sueltos ("1800").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := mood.ParsePolicy(c.Pet.RemedyPolicy); err != nil {
		errs = append(errs, fmt.Errorf("remedy policy: %w", err))
	}
	if c.Pet.IdleThreshold <= 0 || c.Pet.ReminderDelay <= 0 || c.Pet.DecayCheckInterval <= 0 {
		errs = append(errs, errors.New("pet durations must be positive"))
	}
	switch c.Notify.Sender {
	case "log", "expo":
	default:
		errs = append(errs, fmt.Errorf("unknown notify sender %q", c.Notify.Sender))
	}
	if c.Auth.Mode() == AuthLocal && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	return errors.Join(errs...)
}
