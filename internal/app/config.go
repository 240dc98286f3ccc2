package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/zahnovia-backend/internal/data/db"
	httpH "github.com/yungbote/zahnovia-backend/internal/http/handlers"
	"github.com/yungbote/zahnovia-backend/internal/observability"
	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/envutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/mailer"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var errMissingJWTSecret = errors.New("JWT_SECRET_KEY is required outside development")

type AuthSettings struct {
	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	CookieDomain    string        `yaml:"cookie_domain"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the whole process configuration. Google credentials are not part
// of it; they come from the environment only.
type Config struct {
	Env            string                   `yaml:"env"`
	Addr           string                   `yaml:"addr"`
	ServiceName    string                   `yaml:"service_name"`
	Database       db.Config                `yaml:"database"`
	Auth           AuthSettings             `yaml:"auth"`
	Storage        cloudstore.Config        `yaml:"storage"`
	Mail           mailer.Config            `yaml:"mail"`
	DocumentAI     gcp.DocumentAIConfig     `yaml:"document_ai"`
	Redis          RedisSettings            `yaml:"redis"`
	OTel           observability.OtelConfig `yaml:"otel"`
	AllowedOrigins []string                 `yaml:"allowed_origins"`
	FrontendURL    string                   `yaml:"frontend_url"`
	AdminEmail     string                   `yaml:"admin_email"`
	TimeZone       string                   `yaml:"time_zone"`
	FontPath       string                   `yaml:"font_path"`
	MaxUploadBytes int64                    `yaml:"max_upload_bytes"`
	MetricsEnabled bool                     `yaml:"metrics_enabled"`
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), EnvDevelopment)
}

func defaultConfig() Config {
	return Config{
		Env:         EnvDevelopment,
		Addr:        ":8080",
		ServiceName: "zahnovia-backend",
		Database: db.Config{
			Driver:  db.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "zahnovia",
			SSLMode: "disable",
		},
		Auth: AuthSettings{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Storage: cloudstore.Config{
			Mode:       cloudstore.ModeNone,
			RootFolder: "Zahnovia",
			Timeout:    time.Minute,
		},
		Mail: mailer.Config{
			Backend:  mailer.BackendLog,
			FromName: "Zahnovia",
		},
		DocumentAI: gcp.DocumentAIConfig{
			Location: "eu",
			Timeout:  90 * time.Second,
		},
		OTel: observability.OtelConfig{
			SampleRatio: 1,
		},
		FrontendURL:    "http://localhost:3000",
		TimeZone:       services.DefaultTimeZone,
		MaxUploadBytes: httpH.DefaultMaxUploadBytes,
		MetricsEnabled: true,
	}
}

// LoadConfig layers typed defaults, an optional YAML file and environment
// variables, in that order. An empty path falls back to CONFIG_FILE.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := defaultConfig()

	if strings.TrimSpace(path) == "" {
		path = envutil.String("CONFIG_FILE", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.Auth.JWTSecretKey) == "" {
		if !cfg.IsDevelopment() {
			return Config{}, errMissingJWTSecret
		}
		key, err := ephemeralSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.Auth.JWTSecretKey = key
		log.Warn("JWT_SECRET_KEY not set; using an ephemeral key, sessions end on restart")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = httpH.DefaultMaxUploadBytes
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = cfg.ServiceName
	}
	if cfg.OTel.Environment == "" {
		cfg.OTel.Environment = cfg.Env
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", envutil.String("LOG_MODE", cfg.Env))
	cfg.Addr = envutil.String("HTTP_ADDR", cfg.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		cfg.Addr = ":" + port
	}
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.DSN = envutil.String("DATABASE_URL", d.DSN)
	d.Host = envutil.String("POSTGRES_HOST", d.Host)
	d.Port = envutil.String("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_NAME", d.Name)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode)

	a := &cfg.Auth
	a.JWTSecretKey = envutil.String("JWT_SECRET_KEY", a.JWTSecretKey)
	a.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", a.AccessTokenTTL)
	a.RefreshTokenTTL = envutil.Duration("REFRESH_TOKEN_TTL", a.RefreshTokenTTL)
	a.CookieDomain = envutil.String("COOKIE_DOMAIN", a.CookieDomain)
	a.CookieSecure = envutil.Bool("COOKIE_SECURE", a.CookieSecure)

	s := &cfg.Storage
	s.Mode = envutil.String("CLOUD_STORAGE_MODE", s.Mode)
	s.RootFolderID = envutil.String("DRIVE_ROOT_FOLDER_ID", s.RootFolderID)
	s.RootFolder = envutil.String("DRIVE_ROOT_FOLDER", s.RootFolder)
	s.Bucket = envutil.String("GCS_BUCKET", s.Bucket)
	s.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", s.EmulatorHost)
	s.Timeout = envutil.Duration("CLOUD_STORAGE_TIMEOUT", s.Timeout)

	m := &cfg.Mail
	m.Backend = envutil.String("MAIL_BACKEND", m.Backend)
	m.From = envutil.String("MAIL_FROM", m.From)
	m.FromName = envutil.String("MAIL_FROM_NAME", m.FromName)
	m.SendGrid.APIKey = envutil.String("SENDGRID_API_KEY", m.SendGrid.APIKey)
	m.SendGrid.BaseURL = envutil.String("SENDGRID_BASE_URL", m.SendGrid.BaseURL)
	m.SendGrid.Timeout = envutil.Duration("SENDGRID_TIMEOUT", m.SendGrid.Timeout)
	m.SendGrid.MaxRetries = envutil.Int("SENDGRID_MAX_RETRIES", m.SendGrid.MaxRetries)

	ai := &cfg.DocumentAI
	ai.ProjectID = envutil.String("DOCUMENTAI_PROJECT_ID", ai.ProjectID)
	ai.Location = envutil.String("DOCUMENTAI_LOCATION", ai.Location)
	ai.ProcessorID = envutil.String("DOCUMENTAI_PROCESSOR_ID", ai.ProcessorID)
	ai.Timeout = envutil.Duration("DOCUMENTAI_TIMEOUT", ai.Timeout)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password)
	r.DB = envutil.Int("REDIS_DB", r.DB)

	o := &cfg.OTel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Version = envutil.String("APP_VERSION", o.Version)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	if raw := envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""); raw != "" {
		o.Headers = observability.ParseHeaders(raw)
	}
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	if pct := envutil.Int("OTEL_TRACES_SAMPLE_PERCENT", -1); pct >= 0 {
		o.SampleRatio = float64(pct) / 100
	}

	if raw := envutil.String("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	cfg.FrontendURL = envutil.String("FRONTEND_URL", cfg.FrontendURL)
	cfg.AdminEmail = envutil.String("ADMIN_NOTIFICATION_EMAIL", cfg.AdminEmail)
	cfg.TimeZone = envutil.String("TIME_ZONE", cfg.TimeZone)
	cfg.FontPath = envutil.String("PDF_FONT_PATH", cfg.FontPath)
	cfg.MaxUploadBytes = int64(envutil.Int("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
