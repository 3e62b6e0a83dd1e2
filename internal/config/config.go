package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = "5000"
	defaultDatabaseURL     = "file:sportsequip.db?_pragma=foreign_keys(1)"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTExpiresIn    = "7d"
	defaultOTPTTL          = "5m"
	defaultUploadPath      = "./uploads"
	defaultMaxFileSize     = "5242880"
	defaultMaxFiles        = "10"
	defaultBaseURL         = "http://localhost:5000"
	defaultCORSOrigins     = "http://localhost:3000,http://localhost:5173"
	defaultRateLimitWindow = "15m"
	defaultRateLimitMax    = "100"
	defaultOTPRateLimitMax = "5"
	defaultAdminPassword   = "admin123"
	defaultSMTPPort        = "587"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	BaseURL     string

	JWTSecret    string
	JWTExpiresIn time.Duration
	OTPTTL       time.Duration

	Upload    UploadConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	SMTP      SMTPConfig

	CORSAllowedOrigins   []string
	DefaultAdminPassword string
	OTPCleanupInterval   time.Duration
}

type UploadConfig struct {
	Path        string
	MaxFileSize int64
	MaxFiles    int
}

type RateLimitConfig struct {
	Window time.Duration
	Max    int
	OTPMax int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// source resolves a key from the environment first, then the optional YAML
// file, then the fallback.
type source struct {
	file map[string]string
}

func (s source) get(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if v, ok := s.file[name]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	return build(src)
}

func readYAML(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	raw := map[string]any{}
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

func build(src source) (*Config, error) {
	cfg := &Config{}
	cfg.AppEnv = strings.ToLower(src.get("APP_ENV", src.get("ENV", "dev")))
	cfg.Port = src.get("PORT", defaultPort)
	cfg.DatabaseURL = src.get("DATABASE_URL", defaultDatabaseURL)
	cfg.BaseURL = strings.TrimRight(src.get("BASE_URL", defaultBaseURL), "/")
	cfg.JWTSecret = src.get("JWT_SECRET", defaultJWTSecret)
	cfg.DefaultAdminPassword = src.get("DEFAULT_ADMIN_PASSWORD", defaultAdminPassword)
	cfg.CORSAllowedOrigins = splitList(src.get("CORS_ALLOWED_ORIGINS", defaultCORSOrigins))

	var err error
	if cfg.JWTExpiresIn, err = parseDuration(src, "JWT_EXPIRES_IN", defaultJWTExpiresIn); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDuration(src, "OTP_TTL", defaultOTPTTL); err != nil {
		return nil, err
	}
	if cfg.OTPCleanupInterval, err = parseDuration(src, "OTP_CLEANUP_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.Upload.Path = src.get("UPLOAD_PATH", defaultUploadPath)
	if cfg.Upload.MaxFileSize, err = parseInt64(src, "MAX_FILE_SIZE", defaultMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.Upload.MaxFiles, err = parseInt(src, "MAX_FILES", defaultMaxFiles); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Window, err = parseMinutesOrDuration(src, "RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Max, err = parseInt(src, "RATE_LIMIT_MAX", defaultRateLimitMax); err != nil {
		return nil, err
	}
	if cfg.RateLimit.OTPMax, err = parseInt(src, "OTP_RATE_LIMIT_MAX", defaultOTPRateLimitMax); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = src.get("REDIS_ADDR", "")
	cfg.Redis.Password = src.get("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = parseInt(src, "REDIS_DB", "0"); err != nil {
		return nil, err
	}

	cfg.SMTP.Host = src.get("SMTP_HOST", "")
	cfg.SMTP.User = src.get("SMTP_USER", "")
	cfg.SMTP.Password = src.get("SMTP_PASS", "")
	cfg.SMTP.From = src.get("SMTP_FROM", cfg.SMTP.User)
	if cfg.SMTP.Port, err = parseInt(src, "SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be > 0")
	}
	if cfg.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be > 0")
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}
	if cfg.Upload.MaxFiles <= 0 {
		return fmt.Errorf("MAX_FILES must be > 0")
	}
	if cfg.RateLimit.Window <= 0 || cfg.RateLimit.Max <= 0 || cfg.RateLimit.OTPMax <= 0 {
		return fmt.Errorf("rate limit window and limits must be > 0")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.DefaultAdminPassword == defaultAdminPassword {
			return fmt.Errorf("in prod/release DEFAULT_ADMIN_PASSWORD must be changed")
		}
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

// parseDuration accepts Go durations plus a day suffix ("7d").
func parseDuration(src source, name, fallback string) (time.Duration, error) {
	value := src.get(name, fallback)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

// parseMinutesOrDuration treats a bare number as minutes.
func parseMinutesOrDuration(src source, name, fallback string) (time.Duration, error) {
	value := src.get(name, fallback)
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return parseDuration(src, name, fallback)
}

func parseInt(src source, name, fallback string) (int, error) {
	value := src.get(name, fallback)
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseInt64(src source, name, fallback string) (int64, error) {
	value := src.get(name, fallback)
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
