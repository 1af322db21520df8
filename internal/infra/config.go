package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	StoreDriver            string
	DatabaseURL            string
	DBMaxConns             int
	DBMinConns             int
	JWTSecret              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	RotateRefreshTokens    bool
	BlacklistAfterRotation bool
	MediaPath              string
	MediaBaseURL           string
	MaxUploadBytes         int64
	GeoIPDBPath            string
	DefaultLocale          string
	CORSAllowedOrigins     []string
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	RateLimitPerMin        int
	MaxRequestsPerDonation int
	DonationTTL            time.Duration
	SweepInterval          time.Duration
	LogFile                string
	LogFileMaxSizeMB       int
	LogFileMaxAgeDays      int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   port,
		StoreDriver:            strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:             getEnvInt("DB_MIN_CONNS", 1),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AccessTokenTTL:         time.Minute * time.Duration(getEnvInt("ACCESS_TOKEN_LIFETIME_MINUTES", 60)),
		RefreshTokenTTL:        24 * time.Hour * time.Duration(getEnvInt("REFRESH_TOKEN_LIFETIME_DAYS", 7)),
		RotateRefreshTokens:    getEnvBool("ROTATE_REFRESH_TOKENS", true),
		BlacklistAfterRotation: getEnvBool("BLACKLIST_AFTER_ROTATION", true),
		MediaPath:              getEnv("MEDIA_PATH", "./media"),
		MediaBaseURL:           strings.TrimRight(getEnv("MEDIA_BASE_URL", "http://localhost:"+port+"/media"), "/"),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_MB", 5)) << 20,
		GeoIPDBPath:            os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:          getEnv("DEFAULT_LOCALE", "en"),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxRequestsPerDonation: getEnvInt("MAX_REQUESTS_PER_DONATION", 5),
		DonationTTL:            24 * time.Hour * time.Duration(getEnvInt("DONATION_EXPIRY_DAYS", 30)),
		SweepInterval:          time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 300)),
		LogFile:                os.Getenv("LOG_FILE"),
		LogFileMaxSizeMB:       getEnvInt("LOG_FILE_MAX_SIZE_MB", 50),
		LogFileMaxAgeDays:      getEnvInt("LOG_FILE_MAX_AGE_DAYS", 14),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := url.Parse(cfg.MediaBaseURL); err != nil {
		return nil, fmt.Errorf("invalid MEDIA_BASE_URL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
