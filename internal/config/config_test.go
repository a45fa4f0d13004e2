// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"strings"
	"testing"
)

var allEnvVars = []string{
	"APP_HOST", "APP_PORT", "APP_ENV",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"MEDIA_ROOT", "MEDIA_URL",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL",
	"LOGIN_RATE_LIMIT", "TRUST_PROXY",
}

// clearEnv sets every variable Load reads to "", which envOrDefault treats
// the same as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s: got %q, want %q", field, got, want)
		}
	}
	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("DBUser", cfg.DBUser, "quill")
	check("DBName", cfg.DBName, "quill")
	check("ValkeyPort", cfg.ValkeyPort, "6379")
	check("MediaRoot", cfg.MediaRoot, "media")
	check("MediaURL", cfg.MediaURL, "/media/")
	check("S3Bucket", cfg.S3Bucket, "quill-media")

	if cfg.LoginRateLimit != 10 {
		t.Errorf("LoginRateLimit: got %d, want 10", cfg.LoginRateLimit)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev() to be true by default")
	}
	if cfg.UseS3() {
		t.Error("expected UseS3() to be false without S3 credentials")
	}
	if cfg.TrustProxy {
		t.Error("expected TrustProxy to be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("MEDIA_ROOT", "/var/lib/quill/media")
	t.Setenv("LOGIN_RATE_LIMIT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port: got %q, want %q", cfg.Port, "9000")
	}
	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost: got %q, want %q", cfg.DBHost, "db.internal")
	}
	if cfg.MediaRoot != "/var/lib/quill/media" {
		t.Errorf("MediaRoot: got %q", cfg.MediaRoot)
	}
	if cfg.LoginRateLimit != 3 {
		t.Errorf("LoginRateLimit: got %d, want 3", cfg.LoginRateLimit)
	}
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LOGIN_RATE_LIMIT", v)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for LOGIN_RATE_LIMIT=%q", v)
			}
		})
	}
}

func TestLoad_TrustProxy(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUST_PROXY", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy: got false, want true")
	}

	t.Setenv("TRUST_PROXY", "sometimes")
	if _, err := Load(); err == nil {
		t.Error("expected error for TRUST_PROXY=sometimes")
	}
}

func TestLoad_ProductionRequiresPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when POSTGRES_PASSWORD is the default in production")
	}
	if !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
		t.Errorf("error should mention POSTGRES_PASSWORD, got: %v", err)
	}

	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	if _, err := Load(); err != nil {
		t.Errorf("Load with password in production: %v", err)
	}
}

func TestDSNAndAddr(t *testing.T) {
	cfg := &Config{
		Host: "127.0.0.1", Port: "8080",
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "n",
	}
	if got, want := cfg.DSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
	if got, want := cfg.Addr(), "127.0.0.1:8080"; got != want {
		t.Errorf("Addr: got %q, want %q", got, want)
	}
}

func TestUseS3(t *testing.T) {
	cfg := &Config{S3Endpoint: "https://s3.example.com", S3AccessKey: "a", S3SecretKey: "b"}
	if !cfg.UseS3() {
		t.Error("expected UseS3() with endpoint and credentials")
	}
	cfg.S3SecretKey = ""
	if cfg.UseS3() {
		t.Error("expected UseS3() false without secret key")
	}
}
