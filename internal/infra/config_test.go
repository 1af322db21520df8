package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaultMediaBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("MEDIA_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:8080/media"
	if cfg.MediaBaseURL != expected {
		t.Fatalf("MediaBaseURL mismatch: got %q want %q", cfg.MediaBaseURL, expected)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("AccessTokenTTL = %s, want 1h", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %s, want 168h", cfg.RefreshTokenTTL)
	}
	if !cfg.RotateRefreshTokens || !cfg.BlacklistAfterRotation {
		t.Fatalf("rotation defaults mismatch: %+v", cfg)
	}
	if cfg.MaxRequestsPerDonation != 5 {
		t.Fatalf("MaxRequestsPerDonation = %d, want 5", cfg.MaxRequestsPerDonation)
	}
}

func TestLoadConfigInheritsPortInMediaBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "1919")
	t.Setenv("MEDIA_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/media"
	if cfg.MediaBaseURL != expected {
		t.Fatalf("MediaBaseURL mismatch: got %q want %q", cfg.MediaBaseURL, expected)
	}
}

func TestLoadConfigHonorsExplicitMediaBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example.com/media/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "https://cdn.example.com/media"
	if cfg.MediaBaseURL != expected {
		t.Fatalf("MediaBaseURL mismatch: got %q want %q", cfg.MediaBaseURL, expected)
	}
}

func TestLoadConfigRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "postgres")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without DATABASE_URL")
	}

	t.Setenv("STORE_DRIVER", "memory")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("memory driver should not need DATABASE_URL: %v", err)
	}

	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error for unknown driver")
	}
}

func TestLoadConfigParsesOriginsAndFlags(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("ROTATE_REFRESH_TOKENS", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
	if cfg.RotateRefreshTokens {
		t.Fatalf("RotateRefreshTokens should be false")
	}
}
