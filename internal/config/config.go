// Package config loads Javari core configuration from environment variables.
//
// Server-level settings (port, telemetry, environment) are loaded once at
// startup. Feature flags and adapter credentials are deliberately NOT part of
// the snapshot: tool enablement is re-read from the environment on every
// check, so toggling a flag takes effect on the next request without a
// restart.
package config

import (
	"os"
	"strconv"
)

// Config holds the startup configuration for the Javari core server.
type Config struct {
	Port        int
	Version     string
	Environment string // "production" enables egress blocking
	Telemetry   TelemetryConfig
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envInt("JAVARI_PORT", 8080),
		Version:     envStr("JAVARI_VERSION", "0.4.0"),
		Environment: envStr("JAVARI_ENV", "development"),
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "javari-core"),
		},
	}
}

// Production reports whether the core runs with production egress policy.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// ── Feature Flags & Credentials ─────────────────────────────
//
// Each tool adapter is gated by a feature flag that must equal the literal
// string "1", plus the presence of its required credentials. These helpers
// hit the environment on every call; there is no cached enabled state.

// Feature flag names.
const (
	FlagGitHubRead   = "FEATURE_GITHUB_READ"
	FlagGitHubWrite  = "FEATURE_GITHUB_WRITE"
	FlagSupabaseRead = "FEATURE_SUPABASE_READ"
	FlagVercelRead   = "FEATURE_VERCEL_READ"
)

// FlagEnabled reports whether a feature flag is set to exactly "1".
// Absence or any other value disables the feature.
func FlagEnabled(name string) bool {
	return os.Getenv(name) == "1"
}

// HaveCredentials reports whether every named environment variable is
// non-empty.
func HaveCredentials(names ...string) bool {
	for _, n := range names {
		if os.Getenv(n) == "" {
			return false
		}
	}
	return true
}

// Credential env var names used by the tool adapters.
const (
	EnvGitHubReadToken  = "GITHUB_READ_TOKEN"
	EnvGitHubWriteToken = "GITHUB_WRITE_TOKEN"
	EnvGitHubOwner      = "GITHUB_OWNER"
	EnvGitHubRepo       = "GITHUB_REPO"
	EnvGitHubBranch     = "GITHUB_DEFAULT_BRANCH"

	EnvSupabaseURL     = "SUPABASE_URL"
	EnvSupabaseAnonKey = "SUPABASE_ANON_KEY"

	EnvVercelToken   = "VERCEL_TOKEN"
	EnvVercelTeamID  = "VERCEL_TEAM_ID"
	EnvVercelProject = "VERCEL_PROJECT_ID"

	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
