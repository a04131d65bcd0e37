package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"EDIT_PROVIDER", "MASK_FILTER", "DEFAULT_BRUSH_SIZE", "DATABASE_URL", "CORS_ALLOWED_ORIGINS", "MAX_UPLOAD_MB", "SESSION_TTL_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EditProvider != ProviderGemini {
		t.Fatalf("EditProvider = %q", cfg.EditProvider)
	}
	if cfg.DefaultBrushSize != 30 || cfg.MaskFilter != "bilinear" {
		t.Fatalf("brush/filter defaults: %d %q", cfg.DefaultBrushSize, cfg.MaskFilter)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.SessionTTL != time.Hour || cfg.EditTimeout != 0 {
		t.Fatalf("ttl/timeout defaults: %v %v", cfg.SessionTTL, cfg.EditTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL should be optional")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("EDIT_PROVIDER", "Synthetic")
	t.Setenv("MASK_FILTER", "nearest")
	t.Setenv("DEFAULT_BRUSH_SIZE", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("EDIT_TIMEOUT_SECONDS", "90")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EditProvider != ProviderSynthetic || cfg.MaskFilter != "nearest" || cfg.DefaultBrushSize != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.EditTimeout != 90*time.Second {
		t.Fatalf("EditTimeout = %v", cfg.EditTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q", i, cfg.CORSAllowedOrigins[i])
		}
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown provider", "EDIT_PROVIDER", "dalle"},
		{"unknown filter", "MASK_FILTER", "lanczos"},
		{"brush too small", "DEFAULT_BRUSH_SIZE", "2"},
		{"brush too large", "DEFAULT_BRUSH_SIZE", "200"},
		{"zero container", "DEFAULT_CONTAINER_WIDTH", "-5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}
