package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime configuration loaded from environment variables,
// optionally layered over a TOML file named by PORTFOLIO_CONFIG.
type Config struct {
	Port string

	StoreDriver   string
	BoltPath      string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	JWTSecret        string
	JWTIssuer        string
	AccessTTLSeconds int64

	ClientURL         string
	CorsOrigins       []string
	CorsPreviewSuffix string
	TrustProxy        bool

	RateLimitWindow    time.Duration
	RateLimitMax       int
	ContactLimitWindow time.Duration
	ContactLimitMax    int

	UploadDriver   string
	UploadDir      string
	UploadMaxBytes int64
	S3             S3Config

	Mail MailConfig

	RevalidateURL    string
	RevalidateSecret string

	MetricsEnabled       bool
	MetricsSampleSeconds int
	MetricsDiskPath      string

	LogLevel         string
	LogJSON          bool
	LogDir           string
	LogRetentionDays int
}

type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string
	PublicURL       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	NotifyTo string
}

// fileConfig mirrors Config for the optional TOML overlay. Only keys present
// in the file are applied; environment variables still take precedence.
type fileConfig struct {
	Port        string   `toml:"port"`
	StoreDriver string   `toml:"store_driver"`
	BoltPath    string   `toml:"bolt_path"`
	DatabaseURL string   `toml:"database_url"`
	MongoURI    string   `toml:"mongodb_uri"`
	MongoDB     string   `toml:"mongodb_database"`
	JWTSecret   string   `toml:"jwt_secret"`
	JWTIssuer   string   `toml:"jwt_issuer"`
	ClientURL   string   `toml:"client_url"`
	CorsOrigins []string `toml:"cors_origins"`
	UploadDir   string   `toml:"upload_dir"`
	LogDir      string   `toml:"log_dir"`
	LogLevel    string   `toml:"log_level"`
	Mail        struct {
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		User     string `toml:"user"`
		From     string `toml:"from"`
		NotifyTo string `toml:"notify_to"`
	} `toml:"mail"`
	S3 struct {
		Bucket    string `toml:"bucket"`
		Region    string `toml:"region"`
		Prefix    string `toml:"prefix"`
		PublicURL string `toml:"public_url"`
		Endpoint  string `toml:"endpoint"`
	} `toml:"s3"`
}

// Load reads the server configuration.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate(true)
}

// LoadOperator reads the configuration for the operator CLI, which signs no
// tokens and so does not need JWT_SECRET.
func LoadOperator() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate(false)
}

func read() (Config, error) {
	if path := strings.TrimSpace(os.Getenv("PORTFOLIO_CONFIG")); path != "" {
		if err := applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Port:          envOr("PORT", "5000"),
		StoreDriver:   strings.ToLower(envOr("STORE_DRIVER", "bolt")),
		BoltPath:      envOr("BOLT_PATH", "storage/portfolio.db"),
		DatabaseURL:   envOr("DATABASE_URL", ""),
		MongoURI:      envOr("MONGODB_URI", ""),
		MongoDatabase: envOr("MONGODB_DATABASE", "portfolio"),

		JWTSecret:        envOr("JWT_SECRET", ""),
		JWTIssuer:        envOr("JWT_ISSUER", "portfolio"),
		AccessTTLSeconds: int64(envOrInt("ACCESS_TTL_SECONDS", 30*24*3600)),

		ClientURL:         envOr("CLIENT_URL", ""),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),
		CorsPreviewSuffix: envOr("CORS_PREVIEW_SUFFIX", ".vercel.app"),
		TrustProxy:        envOrBool("TRUST_PROXY", false),

		RateLimitWindow:    time.Duration(envOrInt("RATE_LIMIT_WINDOW_MS", 15*60*1000)) * time.Millisecond,
		RateLimitMax:       envOrInt("RATE_LIMIT_MAX_REQUESTS", 100),
		ContactLimitWindow: time.Duration(envOrInt("CONTACT_LIMIT_WINDOW_MS", 60*60*1000)) * time.Millisecond,
		ContactLimitMax:    envOrInt("CONTACT_LIMIT_MAX", 5),

		UploadDriver:   strings.ToLower(envOr("UPLOAD_DRIVER", "local")),
		UploadDir:      envOr("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(envOrInt("UPLOAD_MAX_BYTES", 5<<20)),
		S3: S3Config{
			Bucket:    envOr("S3_BUCKET", ""),
			Region:    envOr("S3_REGION", "us-east-1"),
			Prefix:    envOr("S3_PREFIX", "uploads"),
			PublicURL: envOr("S3_PUBLIC_URL", ""),
			Endpoint:  envOr("S3_ENDPOINT", ""),

			AccessKeyID:     envOr("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: envOr("S3_SECRET_ACCESS_KEY", ""),
		},

		Mail: MailConfig{
			Host:     envOr("EMAIL_HOST", ""),
			Port:     envOrInt("EMAIL_PORT", 587),
			User:     envOr("EMAIL_USER", ""),
			Password: envOr("EMAIL_PASSWORD", ""),
			From:     envOr("EMAIL_FROM", "Portfolio"),
			NotifyTo: envOr("CONTACT_NOTIFY_TO", ""),
		},

		RevalidateURL:    envOr("REVALIDATE_URL", ""),
		RevalidateSecret: envOr("REVALIDATE_SECRET", ""),

		MetricsEnabled:       envOrBool("METRICS_ENABLED", true),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "."),

		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogJSON:          envOrBool("LOG_JSON", false),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: envOrInt("LOG_RETENTION_DAYS", 7),
	}
	return cfg, nil
}

func (c Config) validate(needSecret bool) error {
	var errs []error
	if needSecret && c.JWTSecret == "" {
		errs = append(errs, errors.New("missing env var: JWT_SECRET"))
	}
	switch c.StoreDriver {
	case "bolt":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("missing env var: DATABASE_URL"))
		}
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("missing env var: MONGODB_URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.UploadDriver {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("missing env var: S3_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_DRIVER %q", c.UploadDriver))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW_MS must be positive"))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS must be positive"))
	}
	if c.ContactLimitWindow <= 0 {
		errs = append(errs, errors.New("CONTACT_LIMIT_WINDOW_MS must be positive"))
	}
	if c.ContactLimitMax <= 0 {
		errs = append(errs, errors.New("CONTACT_LIMIT_MAX must be positive"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.MetricsSampleSeconds <= 0 {
		errs = append(errs, errors.New("METRICS_SAMPLE_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins is the explicit CORS list: configured origins plus the
// local development servers.
func (c Config) AllowedOrigins() []string {
	origins := []string{}
	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}
	origins = append(origins, c.CorsOrigins...)
	return append(origins, "http://localhost:3000", "http://localhost:3001")
}

// applyFile exports keys from the TOML file into the process environment
// unless the environment already defines them.
func applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}
	pairs := map[string]string{
		"PORT":              fc.Port,
		"STORE_DRIVER":      fc.StoreDriver,
		"BOLT_PATH":         fc.BoltPath,
		"DATABASE_URL":      fc.DatabaseURL,
		"MONGODB_URI":       fc.MongoURI,
		"MONGODB_DATABASE":  fc.MongoDB,
		"JWT_SECRET":        fc.JWTSecret,
		"JWT_ISSUER":        fc.JWTIssuer,
		"CLIENT_URL":        fc.ClientURL,
		"CORS_ORIGINS":      strings.Join(fc.CorsOrigins, ","),
		"UPLOAD_DIR":        fc.UploadDir,
		"LOG_DIR":           fc.LogDir,
		"LOG_LEVEL":         fc.LogLevel,
		"EMAIL_HOST":        fc.Mail.Host,
		"EMAIL_USER":        fc.Mail.User,
		"EMAIL_FROM":        fc.Mail.From,
		"CONTACT_NOTIFY_TO": fc.Mail.NotifyTo,
		"S3_BUCKET":         fc.S3.Bucket,
		"S3_REGION":         fc.S3.Region,
		"S3_PREFIX":         fc.S3.Prefix,
		"S3_PUBLIC_URL":     fc.S3.PublicURL,
		"S3_ENDPOINT":       fc.S3.Endpoint,
	}
	if fc.Mail.Port != 0 {
		pairs["EMAIL_PORT"] = strconv.Itoa(fc.Mail.Port)
	}
	for key, value := range pairs {
		if value == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
